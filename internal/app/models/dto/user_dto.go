package dto

// UpdateProfileRequest represents profile update data.
// Empty university or major clear the value.
type UpdateProfileRequest struct {
	Username       string  `json:"username" example:"ania"`
	University     *string `json:"university" example:"Uniwersytet Warszawski"`
	Major          *string `json:"major" example:"Informatyka"`
	StudyStartYear *int    `json:"studyStartYear" example:"2022"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AvatarResponse carries the public URL of an uploaded avatar
type AvatarResponse struct {
	AvatarURL string `json:"avatarUrl"`
}
