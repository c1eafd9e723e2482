package model

import "time"

// Account mirrors the `accounts` table. It is the only place the password
// hash and the refresh token digest live; anything leaving the service
// layer goes through Public().
type Account struct {
	ID                 string
	UserName           string // lower-cased, trimmed, unique
	Email              string // lower-cased, trimmed, unique
	FullName           string
	PasswordHash       string
	AvatarURL          string
	AvatarPublicID     string
	CoverImageURL      string
	CoverImagePublicID string
	RefreshTokenHash   *string // nil when no refresh session is live
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PublicAccount is the outward projection of an Account. It has no field
// for the password hash or the refresh token.
type PublicAccount struct {
	ID         string    `json:"_id"`
	UserName   string    `json:"userName"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (a *Account) Public() *PublicAccount {
	return &PublicAccount{
		ID:         a.ID,
		UserName:   a.UserName,
		Email:      a.Email,
		FullName:   a.FullName,
		Avatar:     a.AvatarURL,
		CoverImage: a.CoverImageURL,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}
