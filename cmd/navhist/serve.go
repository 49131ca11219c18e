package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/vango-dev/navhist/pkg/bridge"
	"github.com/vango-dev/navhist/pkg/history"
	"github.com/vango-dev/navhist/pkg/journal"
	"github.com/vango-dev/navhist/pkg/middleware"
)

func serveCmd() *cobra.Command {
	var (
		addr        string
		baseHref    string
		useHash     bool
		journalKind string
		journalTTL  time.Duration
		s3Bucket    string
		s3Prefix    string
		cacheSize   int
		maxSessions int
		logJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bridge server",
		Long: `Start the WebSocket bridge server.

Clients connect to /ws (optionally with ?session_id= to resume a
persisted timeline); Prometheus metrics are served on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(logJSON)

			store, err := buildStore(cmd.Context(), journalKind, journalTTL, s3Bucket, s3Prefix, cacheSize)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			metrics := middleware.NewNavMetrics()

			srv := bridge.New(&bridge.Config{
				Address:     addr,
				BaseHref:    baseHref,
				UseHash:     useHash,
				MaxSessions: maxSessions,
				Store:       store,
				TrackerOptions: []history.Option{
					history.WithHook(metrics.Hook()),
					history.WithHook(middleware.OpenTelemetry()),
				},
			}, logSessionOpens)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				slog.Info("shutting down", "signal", sig.String())
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&baseHref, "base-href", "", "Base href prefix for application paths")
	cmd.Flags().BoolVar(&useHash, "hash", false, "Keep application paths in the URL fragment")
	cmd.Flags().StringVar(&journalKind, "journal", "none", "Timeline persistence: none, memory, or s3")
	cmd.Flags().DurationVar(&journalTTL, "journal-ttl", time.Hour, "How long persisted timelines live (memory journal)")
	cmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "S3 bucket for the s3 journal")
	cmd.Flags().StringVar(&s3Prefix, "s3-prefix", "navhist/", "Key prefix for the s3 journal")
	cmd.Flags().IntVar(&cacheSize, "journal-cache", 256, "LRU cache size in front of the s3 journal (0 disables)")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 0, "Maximum concurrent sessions (0 = unlimited)")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Emit JSON logs")

	return cmd
}

// buildStore constructs the configured journal store.
func buildStore(ctx context.Context, kind string, ttl time.Duration, bucket, prefix string, cacheSize int) (journal.Store, error) {
	switch kind {
	case "none", "":
		return nil, nil

	case "memory":
		return journal.NewMemoryStore(journal.WithTTL(ttl)), nil

	case "s3":
		if bucket == "" {
			return nil, fmt.Errorf("--s3-bucket is required with --journal=s3")
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		var store journal.Store = journal.NewS3Store(s3.NewFromConfig(cfg), bucket, prefix)
		if cacheSize > 0 {
			store, err = journal.NewCacheStore(store, cacheSize)
			if err != nil {
				return nil, err
			}
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown journal kind %q", kind)
	}
}

func setupLogging(jsonOut bool) {
	var handler slog.Handler
	if jsonOut {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	} else {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	slog.SetDefault(slog.New(handler))
}

// logSessionOpens is the default session handler: it just logs what each
// client's tracker observes.
func logSessionOpens(s *bridge.Session) {
	logger := slog.Default().With("session_id", s.ID)
	s.Tracker().OnURLChange(func(url string, state any) {
		logger.Info("url changed", "url", url)
	})
}
