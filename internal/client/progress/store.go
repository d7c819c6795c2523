// Package progress keeps the student's local study stats in a JSON file,
// with a backup copy used to recover from a corrupted primary.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/filex"
	"github.com/studaxis/studaxis/internal/logging"
)

const (
	statsFileName  = "user_stats.json"
	backupFileName = "user_stats.backup.json"
)

// Streak tracks consecutive study days.
type Streak struct {
	Current          int    `json:"current"`
	Longest          int    `json:"longest"`
	LastActivityDate string `json:"last_activity_date"`
}

// QuizTotals aggregates quiz outcomes.
type QuizTotals struct {
	TotalAttempted int            `json:"total_attempted"`
	TotalCorrect   int            `json:"total_correct"`
	AverageScore   float64        `json:"average_score"`
	BySubject      map[string]int `json:"by_subject"`
}

// PendingAttempt is one completed quiz waiting to be delivered to the index
// with the next stats push. Field names follow the wire contract of the
// recordQuizAttempt mutation, so the server ingests them as-is.
type PendingAttempt struct {
	QuizID           string `json:"quizId"`
	Score            int    `json:"score"`
	TotalQuestions   int    `json:"totalQuestions"`
	Subject          string `json:"subject"`
	Difficulty       string `json:"difficulty"`
	CompletedAtLocal string `json:"completedAtLocal"`
}

// Preferences holds the student's app settings.
type Preferences struct {
	DifficultyLevel string `json:"difficulty_level"`
	Language        string `json:"language"`
}

// UserStats is the persisted stats document.
type UserStats struct {
	UserID            string           `json:"user_id"`
	DeviceID          string           `json:"device_id"`
	LastSyncTimestamp string           `json:"last_sync_timestamp"`
	Streak            Streak           `json:"streak"`
	QuizStats         QuizTotals       `json:"quiz_stats"`
	Preferences       Preferences      `json:"preferences"`
	PendingAttempts   []PendingAttempt `json:"pending_attempts,omitempty"`
}

// Snapshot is the payload uploaded to the sync bucket: aggregate counters
// plus the attempts not yet delivered. Field names match what the index-side
// ingestion expects.
type Snapshot struct {
	StudentID    string           `json:"student_id"`
	DeviceID     string           `json:"device_id"`
	QuizAttempts int              `json:"quiz_attempts"`
	TotalScore   float64          `json:"total_score"`
	Streak       int              `json:"streak"`
	LastSync     string           `json:"last_sync"`
	Attempts     []PendingAttempt `json:"attempts,omitempty"`
}

// Store owns the stats file and its backup.
type Store struct {
	statsPath  string
	backupPath string
	logger     logging.Logger
}

// New ensures the data directory exists and returns a Store.
func New(baseDir string, logger logging.Logger) (*Store, error) {
	dir, err := filex.EnsureDir(baseDir)
	if err != nil {
		return nil, err
	}
	return &Store{
		statsPath:  filepath.Join(dir, statsFileName),
		backupPath: filepath.Join(dir, backupFileName),
		logger:     logger.With("module", "progress"),
	}, nil
}

// Init writes a fresh default stats document for userID and returns it.
func (s *Store) Init(userID, deviceID string) (*UserStats, error) {
	stats := &UserStats{
		UserID:            userID,
		DeviceID:          deviceID,
		LastSyncTimestamp: time.Now().UTC().Format(time.RFC3339),
		Streak: Streak{
			LastActivityDate: time.Now().UTC().Format("2006-01-02"),
		},
		QuizStats: QuizTotals{
			BySubject: map[string]int{},
		},
		Preferences: Preferences{
			DifficultyLevel: "Beginner",
			Language:        "English",
		},
	}
	if err := s.Save(stats, false); err != nil {
		return nil, err
	}
	return stats, nil
}

// Load reads the stats document. A corrupt primary is restored from the
// backup; a missing file yields ErrorNotFound.
func (s *Store) Load() (*UserStats, error) {
	data, err := os.ReadFile(s.statsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read stats: %w", err)
	}

	var stats UserStats
	if err := json.Unmarshal(data, &stats); err != nil {
		s.logger.Warn(context.Background(), "stats file corrupted, restoring backup", "error", err.Error())
		return s.restoreFromBackup()
	}
	return &stats, nil
}

// Save writes the stats document, optionally copying the previous version
// to the backup file first.
func (s *Store) Save(stats *UserStats, backup bool) error {
	if backup {
		if prev, err := os.ReadFile(s.statsPath); err == nil {
			if err := os.WriteFile(s.backupPath, prev, 0o660); err != nil {
				s.logger.Warn(context.Background(), "could not write stats backup", "error", err.Error())
			}
		}
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := os.WriteFile(s.statsPath, data, 0o660); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

// ApplyAttempt folds one completed quiz into the aggregates, queues it for
// the next push, and maintains the day streak. A missing completion time is
// stamped with the current moment.
func (s *Store) ApplyAttempt(stats *UserStats, att PendingAttempt) error {
	if att.TotalQuestions <= 0 {
		return fmt.Errorf("%w: totalQuestions must be > 0", common.ErrorValidation)
	}
	if att.Score < 0 || att.Score > att.TotalQuestions {
		return fmt.Errorf("%w: score out of range", common.ErrorValidation)
	}
	if att.CompletedAtLocal == "" {
		att.CompletedAtLocal = time.Now().UTC().Format(time.RFC3339)
	}

	q := &stats.QuizStats
	prevTotal := q.AverageScore * float64(q.TotalAttempted)
	q.TotalAttempted++
	q.TotalCorrect += att.Score
	q.AverageScore = (prevTotal + float64(att.Score)/float64(att.TotalQuestions)*100) / float64(q.TotalAttempted)
	if q.BySubject == nil {
		q.BySubject = map[string]int{}
	}
	if att.Subject != "" {
		q.BySubject[att.Subject]++
	}
	stats.PendingAttempts = append(stats.PendingAttempts, att)

	today := time.Now().UTC().Format("2006-01-02")
	if stats.Streak.LastActivityDate != today {
		yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
		if stats.Streak.LastActivityDate == yesterday {
			stats.Streak.Current++
		} else {
			stats.Streak.Current = 1
		}
		stats.Streak.LastActivityDate = today
	} else if stats.Streak.Current == 0 {
		stats.Streak.Current = 1
	}
	if stats.Streak.Current > stats.Streak.Longest {
		stats.Streak.Longest = stats.Streak.Current
	}

	return s.Save(stats, true)
}

// Snapshot builds the upload payload from the current stats.
func (s *Store) Snapshot(stats *UserStats) Snapshot {
	return Snapshot{
		StudentID:    stats.UserID,
		DeviceID:     stats.DeviceID,
		QuizAttempts: stats.QuizStats.TotalAttempted,
		TotalScore:   stats.QuizStats.AverageScore,
		Streak:       stats.Streak.Current,
		LastSync:     stats.LastSyncTimestamp,
		Attempts:     stats.PendingAttempts,
	}
}

func (s *Store) restoreFromBackup() (*UserStats, error) {
	data, err := os.ReadFile(s.backupPath)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	var stats UserStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, common.ErrorNotFound
	}
	if err := os.WriteFile(s.statsPath, data, 0o660); err != nil {
		s.logger.Warn(context.Background(), "could not restore stats from backup", "error", err.Error())
	}
	return &stats, nil
}
