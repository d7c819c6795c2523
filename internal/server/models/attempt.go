package models

import "time"

// Attempt is one recorded quiz attempt, either reported live or replayed
// from a device's offline stats snapshot.
type Attempt struct {
	ID               string
	UserID           string
	QuizID           string
	Score            int
	TotalQuestions   int
	Accuracy         float64
	Subject          string
	Difficulty       string
	DeviceID         string
	CompletedAtLocal string
	SyncedAt         time.Time
}
