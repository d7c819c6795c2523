package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/studaxis/studaxis/internal/logging"
)

func TestServer_RunStopsOnCancel(t *testing.T) {
	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	s := NewServer("127.0.0.1:0", http.NewServeMux(), logger)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}
