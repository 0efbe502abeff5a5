package models

import (
	"strings"
	"time"
)

// Coordinate is a geocoded point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CargoDimensions are optional per-axis sizes in centimeters for delivery
// tasks. Nil axes are simply not specified.
type CargoDimensions struct {
	Length *float64 `json:"length,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// Attachment is a photo attached to a draft, held in memory until submission.
type Attachment struct {
	Name string
	Data []byte
}

// Draft is the client-only authoring state for an announcement. It is owned
// by a single authoring flow, consumed exactly once on submission, and never
// sent to the server before that.
type Draft struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Budget   string   `json:"budget"`
	Notes    string   `json:"notes"`
	Audience string   `json:"audience"`
	Phone    string   `json:"phone"`

	// Delivery tasks carry a pickup→dropoff route; help tasks a single
	// address.
	PickupAddress  string `json:"pickup_address"`
	DropoffAddress string `json:"dropoff_address"`
	Address        string `json:"address"`

	Cargo CargoDimensions `json:"cargo"`
	Floor *int            `json:"floor,omitempty"`

	StartAt time.Time  `json:"start_at"`
	EndAt   *time.Time `json:"end_at,omitempty"`

	Attachments []Attachment `json:"-"`

	// points memoizes geocoding per normalized address so an unchanged
	// address is never re-resolved. Owned exclusively by this draft.
	points map[string]Coordinate
}

// NormalizeAddress collapses internal whitespace and case for comparison and
// geocode-cache keying.
func NormalizeAddress(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// Addresses returns the address fields this draft's category requires, keyed
// by field name.
func (d *Draft) Addresses() map[string]string {
	if d.Category == CategoryDelivery {
		return map[string]string{
			"pickup_address":  d.PickupAddress,
			"dropoff_address": d.DropoffAddress,
		}
	}
	return map[string]string{"address": d.Address}
}

// CachedPoint returns the memoized coordinate for an address, if resolved.
func (d *Draft) CachedPoint(address string) (Coordinate, bool) {
	point, ok := d.points[NormalizeAddress(address)]
	return point, ok
}

// RememberPoint memoizes a resolved coordinate for an address. A later change
// to the address naturally misses the cache under its new normalized key.
func (d *Draft) RememberPoint(address string, point Coordinate) {
	if d.points == nil {
		d.points = make(map[string]Coordinate)
	}
	d.points[NormalizeAddress(address)] = point
}

// Points returns resolved coordinates for the category's address fields in
// field-name → coordinate form. ok is false until every required address has
// a cached point.
func (d *Draft) Points() (map[string]Coordinate, bool) {
	out := make(map[string]Coordinate)
	for field, address := range d.Addresses() {
		point, ok := d.CachedPoint(address)
		if !ok {
			return nil, false
		}
		out[field] = point
	}
	return out, true
}

// PrefillFrom seeds a fresh draft from an existing announcement, used when
// the user restarts a rejected or needs-fix item.
func (d *Draft) PrefillFrom(a Announcement) {
	d.Category = a.Category
	d.Title = a.Title
	if budget, ok := a.Data.GetString("budget"); ok {
		d.Budget = budget
	}
	if notes, ok := a.Data.GetString("notes"); ok {
		d.Notes = notes
	}
	if audience, ok := a.Data.GetString("audience"); ok {
		d.Audience = audience
	}
	if phone, ok := a.Data.GetString("phone"); ok {
		d.Phone = phone
	}
	if pickup, ok := a.Data.GetString("pickup_address"); ok {
		d.PickupAddress = pickup
	}
	if dropoff, ok := a.Data.GetString("dropoff_address"); ok {
		d.DropoffAddress = dropoff
	}
	if address, ok := a.Data.GetString("address"); ok {
		d.Address = address
	}
}
