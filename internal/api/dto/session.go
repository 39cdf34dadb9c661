package dto

import "github.com/ewellner/daybridge/internal/domain/profile"

// GuestSessionResponse is returned when a guest session is minted.
type GuestSessionResponse struct {
	Token   string          `json:"token"`
	Profile profile.Profile `json:"profile"`
}

// OAuthCallbackRequest represents the provider redirect parameters
type OAuthCallbackRequest struct {
	Code  string `form:"code" binding:"required"`
	State string `form:"state" binding:"required"`
}

// AuthResponse is returned after a successful provider sign-in.
type AuthResponse struct {
	Token   string          `json:"token"`
	Profile profile.Profile `json:"profile"`
}

// UpdateProfileRequest updates display preferences on the profile.
type UpdateProfileRequest struct {
	DisplayName   *string                `json:"displayName,omitempty"`
	Theme         *profile.Theme         `json:"theme,omitempty" binding:"omitempty,oneof=light dark auto"`
	BriefingStyle *profile.BriefingStyle `json:"briefingStyle,omitempty"`
	Avatar        *profile.Avatar        `json:"avatar,omitempty"`
}
