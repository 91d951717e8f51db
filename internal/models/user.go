package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleEditor  Role = "editor"
	RoleStudent Role = "student"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleEditor, RoleStudent:
		return r, true
	}
	return "", false
}

// User is an account. Sub is the token subject: the user's own ID for
// locally registered accounts, the issuer's subject for OIDC accounts.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Sub          string    `bson:"sub" json:"-"`
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"full_name" json:"name"`
	PasswordHash string    `bson:"password_hash,omitempty" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
