package models

import "time"

// Teacher is a content-author account allowed to publish quizzes.
type Teacher struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}
