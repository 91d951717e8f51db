package sessions

import "time"

// Session is a refresh session; the refresh token is the lookup key.
type Session struct {
	ID           string    `bson:"_id,omitempty" json:"id,omitempty"`
	RefreshToken string    `bson:"refresh_token" json:"refresh_token"`
	Sub          string    `bson:"sub" json:"sub"`
	ExpiresAt    time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

func (s *Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }
