package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/studaxis/studaxis/internal/logging"
	"github.com/studaxis/studaxis/internal/netx"
)

// UploadURLProvider hands out a presigned PUT URL for the stats snapshot.
type UploadURLProvider interface {
	GetStatsUploadURL(ctx context.Context, userID string) (string, error)
}

// Pusher uploads the local stats snapshot to the sync bucket when the
// student has connectivity.
type Pusher struct {
	remote UploadURLProvider
	store  *Store
	logger logging.Logger
}

func NewPusher(remote UploadURLProvider, store *Store, logger logging.Logger) *Pusher {
	return &Pusher{remote: remote, store: store, logger: logger.With("module", "progress_push")}
}

// Push loads the current stats, obtains an upload slot, and PUTs the
// snapshot there. Only after a successful upload is LastSyncTimestamp
// advanced and the pending-attempt queue drained.
func (p *Pusher) Push(ctx context.Context) error {
	stats, err := p.store.Load()
	if err != nil {
		return fmt.Errorf("no local stats to push: %w", err)
	}

	url, err := p.remote.GetStatsUploadURL(ctx, stats.UserID)
	if err != nil {
		return err
	}

	body, err := json.Marshal(p.store.Snapshot(stats))
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := netx.UploadJSONToPresignedURL(ctx, url, body); err != nil {
		return err
	}

	stats.LastSyncTimestamp = time.Now().UTC().Format(time.RFC3339)
	stats.PendingAttempts = nil
	if err := p.store.Save(stats, false); err != nil {
		p.logger.Warn(ctx, "stats uploaded but local state not updated", "error", err.Error())
	}

	p.logger.Info(ctx, "stats snapshot uploaded", "user", stats.UserID)
	return nil
}
