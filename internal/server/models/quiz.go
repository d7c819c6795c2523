// Package models contains the server-side data structures persisted in
// PostgreSQL.
package models

import "time"

// Quiz is the index record of one published quiz. The payload itself lives
// in object storage under StorageKey; the index only carries metadata.
type Quiz struct {
	ID            string
	Title         string
	Subject       string
	Difficulty    string
	QuestionCount int
	StorageKey    string
	CreatedBy     string
	CreatedAt     time.Time
}
