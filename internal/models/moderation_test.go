package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delegationapp/delegate/pkg/jsonval"
)

func moderationDoc(raw string) jsonval.Document {
	var v jsonval.Value
	if err := v.UnmarshalJSON([]byte(raw)); err != nil {
		panic(err)
	}
	return jsonval.Document{ModerationField: v}
}

func TestModerationForFullPayload(t *testing.T) {
	a := Announcement{ID: "1", Data: moderationDoc(`{
		"decision": {"status": "needs_fix", "message": "title is misleading"},
		"reasons": [
			{"field": "title", "code": "misleading", "details": "reword it", "can_appeal": true},
			{"field": "photos", "code": "prohibited", "can_appeal": false}
		],
		"suggestions": ["use the real service name"]
	}`)}

	m := ModerationFor(a)
	require.NotNil(t, m.Decision)
	assert.Equal(t, "needs_fix", m.Decision.Status)
	assert.Equal(t, "title is misleading", m.Decision.Message)
	require.Len(t, m.Reasons, 2)
	assert.Equal(t, SeverityWarning, m.Reasons[0].Severity())
	assert.Equal(t, SeverityDanger, m.Reasons[1].Severity())
	assert.Equal(t, []string{"use the real service name"}, m.Suggestions)

	assert.Equal(t, SeverityWarning, m.FieldSeverity("title"))
	assert.Equal(t, SeverityDanger, m.FieldSeverity("photos"))
	assert.Equal(t, SeverityNone, m.FieldSeverity("budget"))
	assert.Equal(t, SeverityDanger, m.ItemSeverity())
}

func TestModerationMixedAppealabilityOnOneField(t *testing.T) {
	// the final reason outweighs the appealable one on the same field
	a := Announcement{ID: "1", Data: moderationDoc(`{
		"reasons": [
			{"field": "title", "code": "misleading", "can_appeal": true},
			{"field": "title", "code": "prohibited", "can_appeal": false}
		]
	}`)}

	m := ModerationFor(a)
	require.Len(t, m.Reasons, 2)
	assert.Equal(t, SeverityDanger, m.FieldSeverity("title"))
	assert.Equal(t, SeverityDanger, m.ItemSeverity())
}

func TestModerationForAbsentOrMalformed(t *testing.T) {
	assert.Equal(t, Moderation{}, ModerationFor(Announcement{ID: "1"}))

	// moderation key present but not an object
	a := Announcement{ID: "1", Data: jsonval.Document{ModerationField: jsonval.String("oops")}}
	assert.Equal(t, Moderation{}, ModerationFor(a))

	// reasons entries missing the field key are skipped, not fatal
	a = Announcement{ID: "1", Data: moderationDoc(`{
		"reasons": [{"code": "orphan"}, {"field": "title", "can_appeal": true}, "garbage"]
	}`)}
	m := ModerationFor(a)
	require.Len(t, m.Reasons, 1)
	assert.Equal(t, "title", m.Reasons[0].Field)
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "none", SeverityNone.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "danger", SeverityDanger.String())
}
