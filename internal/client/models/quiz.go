// Package models defines the student-side domain types: the quiz payload
// stored in the local cache and the manifest returned by the content index.
package models

// Question is one question inside a cached quiz payload.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Quiz is the full content payload downloaded from object storage and kept
// in the local cache, one file per quiz id.
type Quiz struct {
	QuizID     string     `json:"quiz_id"`
	Title      string     `json:"title"`
	Subject    string     `json:"subject,omitempty"`
	Difficulty string     `json:"difficulty,omitempty"`
	Questions  []Question `json:"questions"`
	CreatedAt  string     `json:"created_at,omitempty"`
}
