// Package cli implements the student-side command-line app: syncing
// assigned quizzes for offline use, inspecting the local cache, and pushing
// study progress back to the index when connectivity allows.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/studaxis/studaxis/internal/client/cache"
	"github.com/studaxis/studaxis/internal/client/config"
	"github.com/studaxis/studaxis/internal/client/fetch"
	"github.com/studaxis/studaxis/internal/client/progress"
	"github.com/studaxis/studaxis/internal/client/remote"
	syncer "github.com/studaxis/studaxis/internal/client/sync"
	"github.com/studaxis/studaxis/internal/common"
	"github.com/studaxis/studaxis/internal/logging"
)

const cacheDirName = "quiz_cache"

// App wires the student-side components together and dispatches commands.
type App struct {
	config   *config.Config
	cache    *cache.Store
	remote   *remote.Client
	syncer   *syncer.Syncer
	progress *progress.Store
	pusher   *progress.Pusher
	logger   logging.Logger
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	dataDir := filepath.Join(cfg.BasePath, "data")

	store, err := cache.New(filepath.Join(dataDir, cacheDirName), logger)
	if err != nil {
		return nil, fmt.Errorf("cache init: %w", err)
	}

	apiKey := cfg.APIKey
	if saved, err := loadCredentials(dataDir); err == nil {
		if apiKey == "" {
			apiKey = saved.APIKey
		}
		if cfg.UserID == "anonymous" && saved.UserID != "" {
			cfg.UserID = saved.UserID
		}
	}

	client := remote.New(cfg.Endpoint, apiKey, store, logger)
	client.SetTimeout(cfg.ManifestTimeout)

	fetcher := fetch.New(store, logger)
	fetcher.SetTimeout(cfg.DownloadTimeout)

	prog, err := progress.New(dataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("progress init: %w", err)
	}

	return &App{
		config:   cfg,
		cache:    store,
		remote:   client,
		syncer:   syncer.New(client, fetcher, store, logger),
		progress: prog,
		pusher:   progress.NewPusher(client, prog, logger),
		logger:   logger.With("module", "cli"),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

// Run dispatches a single subcommand and returns its exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage()
		return 2
	}

	var err error
	switch args[0] {
	case "login":
		err = a.cmdLogin(ctx)
	case "sync":
		err = a.cmdSync(ctx)
	case "list":
		err = a.cmdList(ctx)
	case "stats":
		err = a.cmdStats(ctx)
	case "clear":
		err = a.cmdClear(ctx)
	case "attempt":
		err = a.cmdAttempt(ctx, args[1:])
	case "push":
		err = a.cmdPush(ctx)
	default:
		fmt.Fprintf(a.out, "unknown command: %s\n", args[0])
		a.usage()
		return 2
	}

	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *App) usage() {
	fmt.Fprintln(a.out, `usage: student [flags] <command>

commands:
  login     store the content-index API key locally
  sync      reconcile the local quiz cache with the index
  list      list cached quizzes
  stats     show cache and study stats
  clear     delete all cached quizzes
  attempt   record a completed quiz (attempt <quiz_id> <score> <total>)
  push      upload the local stats snapshot`)
}

func (a *App) cmdLogin(ctx context.Context) error {
	userID, err := GetSimpleText(a.reader, a.out, "Student id")
	if err != nil {
		return err
	}
	key, err := GetAPIKey(a.out)
	if err != nil {
		return err
	}
	dataDir := filepath.Join(a.config.BasePath, "data")
	if err := saveCredentials(dataDir, credentials{APIKey: string(key), UserID: userID}); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "credentials saved")
	return nil
}

func (a *App) cmdSync(ctx context.Context) error {
	res := a.syncer.Sync(ctx, a.config.UserID, a.config.Subject)
	fmt.Fprintf(a.out, "sync done: downloaded=%d cached=%d failed=%d\n",
		res.Downloaded, res.Cached, res.Failed)
	if !res.HasItems() {
		fmt.Fprintln(a.out, "no quizzes available; connect to the internet and sync again")
	}
	return nil
}

func (a *App) cmdList(ctx context.Context) error {
	quizzes := a.cache.ListAll()
	if len(quizzes) == 0 {
		fmt.Fprintln(a.out, "cache is empty")
		return nil
	}
	for _, q := range quizzes {
		fmt.Fprintf(a.out, "%-20s %-30s %-12s %d questions\n",
			q.QuizID, q.Title, q.Subject, len(q.Questions))
	}
	return nil
}

func (a *App) cmdStats(ctx context.Context) error {
	st := a.cache.Stats()
	fmt.Fprintf(a.out, "cache: %d quizzes, %.1f KB in %s\n",
		st.Count, float64(st.TotalBytes)/1024, st.Dir)

	stats, err := a.progress.Load()
	if err != nil {
		fmt.Fprintln(a.out, "no study stats yet")
		return nil
	}
	fmt.Fprintf(a.out, "study: %d attempts, avg %.1f%%, streak %d (best %d)\n",
		stats.QuizStats.TotalAttempted, stats.QuizStats.AverageScore,
		stats.Streak.Current, stats.Streak.Longest)
	return nil
}

func (a *App) cmdClear(ctx context.Context) error {
	a.cache.Clear()
	fmt.Fprintln(a.out, "cache cleared")
	return nil
}

func (a *App) cmdAttempt(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: usage: attempt <quiz_id> <score> <total>", common.ErrorValidation)
	}
	quizID := args[0]
	score, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: score must be an integer", common.ErrorValidation)
	}
	total, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("%w: total must be an integer", common.ErrorValidation)
	}

	quiz, err := a.cache.Get(quizID)
	if err != nil {
		return fmt.Errorf("quiz %s is not in the local cache", quizID)
	}

	stats, err := a.progress.Load()
	if err != nil {
		stats, err = a.progress.Init(a.config.UserID, a.config.DeviceID)
		if err != nil {
			return err
		}
	}
	att := progress.PendingAttempt{
		QuizID:           quizID,
		Score:            score,
		TotalQuestions:   total,
		Subject:          quiz.Subject,
		Difficulty:       quiz.Difficulty,
		CompletedAtLocal: time.Now().UTC().Format(time.RFC3339),
	}
	if err := a.progress.ApplyAttempt(stats, att); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "attempt recorded locally")

	// best-effort immediate report; offline attempts ride along with the
	// next stats push
	report := remote.AttemptReport{
		UserID:           a.config.UserID,
		QuizID:           att.QuizID,
		Score:            att.Score,
		TotalQuestions:   att.TotalQuestions,
		Subject:          att.Subject,
		Difficulty:       att.Difficulty,
		DeviceID:         a.config.DeviceID,
		CompletedAtLocal: att.CompletedAtLocal,
	}
	if err := a.remote.RecordAttempt(ctx, report); err != nil {
		a.logger.Info(ctx, "attempt not reported, will sync later", "error", err.Error())
	} else {
		fmt.Fprintln(a.out, "attempt reported to the index")
	}
	return nil
}

func (a *App) cmdPush(ctx context.Context) error {
	if err := a.pusher.Push(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "stats pushed")
	return nil
}
