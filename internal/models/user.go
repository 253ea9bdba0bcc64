package models

import "time"

type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	DisplayName  *string   `json:"displayName" db:"display_name"`
	AvatarURL    *string   `json:"avatarUrl" db:"avatar_url"`
	Bio          *string   `json:"bio" db:"bio"`
	IsAdmin      bool      `json:"isAdmin" db:"is_admin"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// UserSummary is the author block embedded in hydrated memos.
type UserSummary struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName *string    `json:"displayName"`
	AvatarURL   *string    `json:"avatarUrl"`
	Bio         *string    `json:"bio,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30" example:"alice"`
	Email    string `json:"email" validate:"required,email" example:"a@x.com"`
	Password string `json:"password" validate:"required,min=6" example:"secret1"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required" example:"alice"`
	Password string `json:"password" validate:"required" example:"secret1"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
	Bio         *string `json:"bio,omitempty"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
