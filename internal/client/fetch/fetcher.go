// Package fetch downloads individual quiz payloads from the time-limited
// URLs carried in a manifest and hands them to the local cache.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/studaxis/studaxis/internal/client/cache"
	"github.com/studaxis/studaxis/internal/client/models"
	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/logging"
)

const defaultTimeout = 30 * time.Second

// Fetcher performs one HTTP GET per descriptor. There is no retry loop;
// a descriptor gets a single attempt per sync pass.
type Fetcher struct {
	httpClient *http.Client
	cache      *cache.Store
	logger     logging.Logger
}

func New(store *cache.Store, logger logging.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: defaultTimeout},
		cache:      store,
		logger:     logger.With("module", "fetch"),
	}
}

// SetTimeout overrides the per-download timeout (default 30s).
func (f *Fetcher) SetTimeout(d time.Duration) {
	f.httpClient.Timeout = d
}

// Fetch downloads the payload for d and caches it under d.ID.
//
// A transport failure falls back to any existing cache entry for the same id
// (stale-but-available). Every other failure — bad status, malformed body,
// missing URL — returns an error and the item counts as failed.
func (f *Fetcher) Fetch(ctx context.Context, d models.ContentDescriptor) (*models.Quiz, error) {
	if d.DownloadURL == "" {
		f.logger.Warn(ctx, "no download url for quiz", "id", d.ID)
		return nil, fmt.Errorf("%w: quiz %s has no download url", common.ErrorValidation, d.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.DownloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", d.ID, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Info(ctx, "offline, trying cached copy", "id", d.ID)
		if quiz, cacheErr := f.cache.Get(d.ID); cacheErr == nil {
			return quiz, nil
		}
		return nil, common.ErrOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Error(ctx, "download failed", "id", d.ID, "status", resp.StatusCode)
		return nil, fmt.Errorf("download %s: unexpected status %d", d.ID, resp.StatusCode)
	}

	var quiz models.Quiz
	if err := json.NewDecoder(resp.Body).Decode(&quiz); err != nil {
		f.logger.Error(ctx, "download returned malformed payload", "id", d.ID, "error", err.Error())
		return nil, fmt.Errorf("decode %s: %w", d.ID, err)
	}

	if err := f.cache.Put(d.ID, &quiz); err != nil {
		f.logger.Error(ctx, "could not cache downloaded quiz", "id", d.ID, "error", err.Error())
		return nil, err
	}

	f.logger.Info(ctx, "downloaded and cached quiz", "id", d.ID)
	return &quiz, nil
}
