// Package cache implements the local quiz cache: a directory holding one
// JSON file per quiz id plus the last successfully fetched manifest. There
// is no TTL and no eviction; entries live until an explicit Clear.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/studaxis/studaxis/internal/client/models"
	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/filex"
	"github.com/studaxis/studaxis/internal/logging"
)

const manifestFileName = "manifest.json"

// Stats describes the current cache contents, for display only.
type Stats struct {
	Count      int    `json:"quiz_count"`
	TotalBytes int64  `json:"total_size_bytes"`
	Dir        string `json:"cache_dir"`
}

// Store owns the on-disk cache directory. All methods operate on whole
// files; concurrent writers race with last-writer-wins semantics.
type Store struct {
	dir          string
	manifestPath string
	logger       logging.Logger
}

// New ensures dir exists and returns a Store over it.
func New(dir string, logger logging.Logger) (*Store, error) {
	d, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &Store{
		dir:          d,
		manifestPath: filepath.Join(d, manifestFileName),
		logger:       logger.With("module", "cache"),
	}, nil
}

// Dir returns the cache directory path.
func (s *Store) Dir() string { return s.dir }

func (s *Store) entryPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == manifestFileName {
		return "", fmt.Errorf("%w: bad cache id %q", common.ErrorValidation, id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Put writes the payload for id, overwriting unconditionally. Disk write
// failures propagate: a failed write has no safe silent fallback.
func (s *Store) Put(id string, quiz *models.Quiz) error {
	path, err := s.entryPath(id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(quiz, "", "  ")
	if err != nil {
		return fmt.Errorf("encode quiz %s: %w", id, err)
	}
	if err := os.WriteFile(path, data, 0o660); err != nil {
		return fmt.Errorf("write cache entry %s: %w", id, err)
	}
	return nil
}

// Get reads the payload for id. Absent, unreadable, and corrupt entries all
// come back as common.ErrorNotFound; the caller never sees a parse error.
func (s *Store) Get(id string) (*models.Quiz, error) {
	path, err := s.entryPath(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	var quiz models.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		s.logger.Warn(context.Background(), "corrupt cache entry treated as absent", "id", id, "error", err.Error())
		return nil, common.ErrorNotFound
	}
	return &quiz, nil
}

// Exists reports whether an entry file is present for id. It does not check
// that the entry parses; Get does.
func (s *Store) Exists(id string) bool {
	path, err := s.entryPath(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// ListAll enumerates every cached quiz, skipping unreadable files, ordered
// newest created_at first. Ordering relies on the payload's own timestamp
// field, not filesystem metadata.
func (s *Store) ListAll() []models.Quiz {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	var quizzes []models.Quiz
	for _, e := range entries {
		if e.IsDir() || e.Name() == manifestFileName || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var quiz models.Quiz
		if err := json.Unmarshal(data, &quiz); err != nil {
			continue
		}
		quizzes = append(quizzes, quiz)
	}

	sort.SliceStable(quizzes, func(i, j int) bool {
		return quizzes[i].CreatedAt > quizzes[j].CreatedAt
	})
	return quizzes
}

// Clear deletes every cache entry and the last-known manifest. Per-file
// deletes are best-effort; one failure does not abort the rest.
func (s *Store) Clear() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error(context.Background(), "cache clear: cannot read dir", "error", err.Error())
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			s.logger.Warn(context.Background(), "cache clear: could not remove file", "file", e.Name(), "error", err.Error())
		}
	}
	s.logger.Info(context.Background(), "quiz cache cleared")
}

// Stats returns entry count and total size, manifest excluded.
func (s *Store) Stats() Stats {
	st := Stats{Dir: s.dir}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return st
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == manifestFileName || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		st.Count++
		st.TotalBytes += info.Size()
	}
	return st
}

// SaveManifest persists the latest manifest for offline reference.
func (s *Store) SaveManifest(m *models.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(s.manifestPath, data, 0o660); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LoadManifest returns the last saved manifest, or ErrorNotFound if there
// is none (or it does not parse).
func (s *Store) LoadManifest() (*models.Manifest, error) {
	data, err := os.ReadFile(s.manifestPath)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	var m models.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, common.ErrorNotFound
	}
	return &m, nil
}
