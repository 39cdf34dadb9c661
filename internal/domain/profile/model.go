package profile

import "errors"

var ErrProfileNotFound = errors.New("profile not found")

// Theme is the dashboard theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// BriefingStyle selects the daily briefing's tone.
type BriefingStyle string

const (
	BriefingStyleConcise      BriefingStyle = "concise"
	BriefingStyleMotivational BriefingStyle = "motivational"
	BriefingStyleDetailed     BriefingStyle = "detailed"
)

// Section describes one dashboard section's visibility and position.
type Section struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
	Order   int    `json:"order"`
}

// DashboardConfig is the layout a renderer external to this service uses.
type DashboardConfig struct {
	Sections      []Section     `json:"sections"`
	BriefingStyle BriefingStyle `json:"briefingStyle"`
}

// Avatar is a custom avatar: an emoji, or a colored-initial descriptor.
type Avatar struct {
	Kind  string `json:"kind"` // "emoji" or "initial"
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// Profile is the per-user record. CalendarToken is the provider OAuth access
// token; empty means the account is not calendar-linked.
type Profile struct {
	UID           string          `json:"uid"`
	DisplayName   string          `json:"displayName"`
	PhotoURL      string          `json:"photoUrl,omitempty"`
	Email         string          `json:"email,omitempty"`
	CalendarToken string          `json:"calendarToken,omitempty"`
	Guest         bool            `json:"guest"`
	Avatar        *Avatar         `json:"avatar,omitempty"`
	Dashboard     DashboardConfig `json:"dashboard"`
	Theme         Theme           `json:"theme"`
}

// DefaultDashboard returns the section layout a fresh profile starts with.
func DefaultDashboard() DashboardConfig {
	return DashboardConfig{
		Sections: []Section{
			{ID: "briefing", Label: "Daily Briefing", Visible: true, Order: 0},
			{ID: "calendar", Label: "Calendar", Visible: true, Order: 1},
			{ID: "goals", Label: "Goals", Visible: true, Order: 2},
			{ID: "habits", Label: "Habits", Visible: true, Order: 3},
			{ID: "dates", Label: "Important Dates", Visible: true, Order: 4},
		},
		BriefingStyle: BriefingStyleConcise,
	}
}
