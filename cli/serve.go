package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/camden-git/mediapicker/handlers"
	"github.com/camden-git/mediapicker/realtime"
	"github.com/camden-git/mediapicker/workers"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var syncTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the picker HTTP API and change notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts, syncTimeout)
		},
	}
	cmd.Flags().DurationVar(&syncTimeout, "sync-timeout", 30*time.Second, "how long a sync request waits for its batch")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, syncTimeout time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	log := opts.Log

	hub := realtime.NewHub(log)
	go hub.Run()

	s, err := openStack(ctx, opts, hub)
	if err != nil {
		return err
	}
	defer s.Close()

	proc := workers.NewSyncProcessor(s.Catalog, log, cfg.SyncQueueSize, cfg.NumSyncWorkers)
	defer proc.Stop()

	rt := &handlers.Router{
		Media: &handlers.MediaHandler{
			Catalog:      s.Catalog,
			DefaultLimit: cfg.DefaultQueryLimit,
			MaxLimit:     cfg.MaxQueryLimit,
			Log:          log,
		},
		Albums:         &handlers.AlbumHandler{Catalog: s.Catalog, Log: log},
		Sync:           &handlers.SyncHandler{Processor: proc, Timeout: syncTimeout, Log: log},
		Provider:       &handlers.ProviderHandler{Catalog: s.Catalog, Settings: s.Settings, Log: log},
		History:        &handlers.HistoryHandler{Records: s.Records, Log: log},
		WebSocket:      hub.ServeWS,
		AllowedOrigins: cfg.AllowedOrigins,
	}

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      rt.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: syncTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.WithFields(logrus.Fields{
		"addr":            serverAddr,
		"database":        cfg.DatabasePath,
		"local_authority": cfg.LocalAuthority,
	}).Info("serve: listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("serve: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
