package models

// ModerationField is the data key carrying the server-authored review
// feedback sub-object.
const ModerationField = "moderation"

// Severity grades a moderation reason for display.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityWarning
	SeverityDanger
)

// String returns the wire/display name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityDanger:
		return "danger"
	default:
		return "none"
	}
}

// ModerationDecision is the reviewer's overall verdict.
type ModerationDecision struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ModerationReason is one per-field complaint from review.
type ModerationReason struct {
	Field     string `json:"field"`
	Code      string `json:"code"`
	Details   string `json:"details"`
	CanAppeal bool   `json:"can_appeal"`
}

// Severity maps appealable reasons to warnings and final ones to danger.
func (r ModerationReason) Severity() Severity {
	if r.CanAppeal {
		return SeverityWarning
	}
	return SeverityDanger
}

// Moderation is the projection of the free-form moderation payload. It is
// re-derived on every access and never cached.
type Moderation struct {
	Decision    *ModerationDecision `json:"decision,omitempty"`
	Reasons     []ModerationReason  `json:"reasons,omitempty"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

// ModerationFor extracts the moderation projection from an announcement's
// data document. Absent or malformed payloads yield the zero projection;
// extraction never fails.
func ModerationFor(a Announcement) Moderation {
	raw, ok := a.Data.Get(ModerationField)
	if !ok {
		return Moderation{}
	}
	var m Moderation
	if decision, ok := raw.Get("decision"); ok {
		status, _ := decision.GetString("status")
		message, _ := decision.GetString("message")
		if status != "" || message != "" {
			m.Decision = &ModerationDecision{Status: status, Message: message}
		}
	}
	if reasons, ok := raw.Get("reasons"); ok {
		if items, ok := reasons.AsArray(); ok {
			for _, item := range items {
				field, ok := item.GetString("field")
				if !ok {
					continue
				}
				reason := ModerationReason{Field: field}
				reason.Code, _ = item.GetString("code")
				reason.Details, _ = item.GetString("details")
				reason.CanAppeal, _ = item.GetBool("can_appeal")
				m.Reasons = append(m.Reasons, reason)
			}
		}
	}
	if suggestions, ok := raw.Get("suggestions"); ok {
		if items, ok := suggestions.AsArray(); ok {
			for _, item := range items {
				if s, ok := item.AsString(); ok {
					m.Suggestions = append(m.Suggestions, s)
				}
			}
		}
	}
	return m
}

// FieldSeverity returns the max severity among reasons for the named field.
func (m Moderation) FieldSeverity(field string) Severity {
	max := SeverityNone
	for _, reason := range m.Reasons {
		if reason.Field != field {
			continue
		}
		if sev := reason.Severity(); sev > max {
			max = sev
		}
	}
	return max
}

// ItemSeverity returns the max severity across all reasons.
func (m Moderation) ItemSeverity() Severity {
	max := SeverityNone
	for _, reason := range m.Reasons {
		if sev := reason.Severity(); sev > max {
			max = sev
		}
	}
	return max
}
