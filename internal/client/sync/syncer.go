// Package sync coordinates one reconciliation pass between the local quiz
// cache and the latest remote manifest: manifest fetch, per-item cache
// check, fetch-if-missing, aggregate result.
package sync

import (
	"context"
	"errors"

	"github.com/studaxis/studaxis/internal/client/cache"
	"github.com/studaxis/studaxis/internal/client/models"
	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/logging"
)

// ManifestClient fetches the content manifest for a user. Errors are the
// degrade-to-cache sentinels; the syncer never surfaces them.
type ManifestClient interface {
	FetchManifest(ctx context.Context, userID, subject string) (*models.Manifest, error)
}

// ContentFetcher downloads one descriptor's payload into the cache.
type ContentFetcher interface {
	Fetch(ctx context.Context, d models.ContentDescriptor) (*models.Quiz, error)
}

// Syncer runs the sync pipeline. Items are processed strictly sequentially;
// each network call is bounded by its client's timeout and there is no
// retry-from-failure transition.
type Syncer struct {
	remote  ManifestClient
	fetcher ContentFetcher
	cache   *cache.Store
	logger  logging.Logger
}

func New(remote ManifestClient, fetcher ContentFetcher, store *cache.Store, logger logging.Logger) *Syncer {
	return &Syncer{
		remote:  remote,
		fetcher: fetcher,
		cache:   store,
		logger:  logger.With("module", "sync"),
	}
}

// Sync reconciles the local cache against the latest manifest.
//
// When the manifest cannot be fetched (offline or rejected), the result is
// everything already cached, with downloaded=0 and failed=0 — the full
// degrade-to-cache fallback.
//
// A cached entry is trusted as long as it parses; the manifest's created_at
// is not compared against it, so re-published content under the same id is
// not re-downloaded until the cache is cleared.
func (s *Syncer) Sync(ctx context.Context, userID, subject string) models.SyncResult {
	var result models.SyncResult

	manifest, err := s.remote.FetchManifest(ctx, userID, subject)
	if err != nil {
		if errors.Is(err, common.ErrOffline) {
			s.logger.Info(ctx, "offline, serving cached quizzes")
		} else {
			s.logger.Warn(ctx, "manifest fetch failed, serving cached quizzes", "error", err.Error())
		}
		result.Quizzes = s.cache.ListAll()
		result.Cached = len(result.Quizzes)
		return result
	}

	for _, item := range manifest.Items {
		if s.cache.Exists(item.ID) {
			if quiz, err := s.cache.Get(item.ID); err == nil {
				result.Cached++
				result.Quizzes = append(result.Quizzes, *quiz)
				continue
			}
			// entry file present but unreadable or corrupt: re-download
		}

		quiz, err := s.fetcher.Fetch(ctx, item)
		if err != nil {
			result.Failed++
			continue
		}
		result.Downloaded++
		result.Quizzes = append(result.Quizzes, *quiz)
	}

	s.logger.Info(ctx, "sync complete",
		"downloaded", result.Downloaded,
		"cached", result.Cached,
		"failed", result.Failed,
	)
	return result
}
