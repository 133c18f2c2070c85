package models

import (
	"time"
)

// User defines the account model based on the 'users' table
type User struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	Username  string    `json:"username" db:"username" example:"ania"`
	Email     string    `json:"email" db:"email" example:"ania@uni.edu.pl"`
	Password  string    `json:"-" db:"password"`
	CreatedAt time.Time `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" example:"2024-01-02T15:30:00Z"`
}

// UserProfile defines the public profile based on the 'user_profiles' table.
// ID equals the owning user's ID.
type UserProfile struct {
	ID             int64     `json:"id" db:"id" example:"1"`
	Username       string    `json:"username" db:"username" example:"ania"`
	University     *string   `json:"university" db:"university" example:"Uniwersytet Warszawski"`
	Major          *string   `json:"major" db:"major" example:"Informatyka"`
	AvatarURL      *string   `json:"avatarUrl" db:"avatar_url"`
	StudyStartYear *int      `json:"studyStartYear" db:"study_start_year" example:"2022"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}
