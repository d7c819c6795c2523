package models

import "time"

// Student is an end-user account on the learning side.
type Student struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
	LastSyncAt   *time.Time
}
