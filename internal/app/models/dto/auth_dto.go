package dto

import "time"

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username        string `json:"username" example:"ania"`
	Email           string `json:"email" example:"ania@uni.edu.pl"`
	Password        string `json:"password" example:"sekret1"`
	ConfirmPassword string `json:"confirmPassword" example:"sekret1"`
}

// LoginRequest represents login credentials. Login is a username or an email.
type LoginRequest struct {
	Login    string `json:"login" binding:"required" example:"ania"`
	Password string `json:"password" binding:"required" example:"sekret1"`
}

// AuthResponse represents a successful authentication
type AuthResponse struct {
	UserID    int64     `json:"userId" example:"1"`
	Username  string    `json:"username" example:"ania"`
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType" example:"Bearer"`
	ExpiresAt time.Time `json:"expiresAt"`
}
