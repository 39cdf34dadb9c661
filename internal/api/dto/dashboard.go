package dto

import (
	"github.com/ewellner/daybridge/internal/domain/profile"
	"github.com/ewellner/daybridge/internal/syncer"
	"github.com/ewellner/daybridge/internal/weather"
)

// DashboardResponse is the full dashboard payload: the session's state
// snapshot plus the profile driving the layout. Weather is nil when the
// fetch failed; the dashboard simply omits it.
type DashboardResponse struct {
	State   syncer.Snapshot `json:"state"`
	Profile profile.Profile `json:"profile"`
	Weather *weather.Report `json:"weather,omitempty"`
}

// UpdateDashboardConfigRequest replaces the section layout.
type UpdateDashboardConfigRequest struct {
	Sections      []profile.Section     `json:"sections" binding:"required,min=1,dive"`
	BriefingStyle profile.BriefingStyle `json:"briefingStyle" binding:"omitempty,oneof=concise motivational detailed"`
}
