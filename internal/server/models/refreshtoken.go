package models

import "time"

// RefreshToken is one opaque refresh token row. Tokens are single-use and
// rotated on every refresh.
type RefreshToken struct {
	UserID  string
	Token   string
	Expires time.Time
}
