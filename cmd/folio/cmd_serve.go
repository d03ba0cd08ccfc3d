package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"folio/internal/logging"
	"folio/internal/site"
	"folio/internal/store"
	"folio/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd runs a local dev server and rebuilds on content changes.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the built site locally and rebuild on content changes",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.NewStore(filepath.Join(siteRoot, cfg.Build.DatabasePath))
	if err != nil {
		return err
	}
	defer st.Close()

	builder, err := site.NewBuilder(siteRoot, cfg, st)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial full build so the server has something to serve.
	if _, err := builder.Build(ctx, false); err != nil {
		return err
	}

	rebuild := func(ctx context.Context, changed []string) {
		summary, buildErr := builder.Build(ctx, true)
		if buildErr != nil {
			logger.Error("rebuild failed", zap.Error(buildErr))
			return
		}
		logger.Info("rebuilt",
			zap.Int("changed", len(changed)),
			zap.Int("built", summary.Built),
			zap.Int("invalid", len(summary.Invalid)))
	}

	watcher, err := watch.NewWatcher(filepath.Join(siteRoot, cfg.Site.ContentDir), rebuild)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	outputDir := filepath.Join(siteRoot, cfg.Site.OutputDir)
	server := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           http.FileServer(http.Dir(outputDir)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Serve("listening on %s, serving %s", cfg.Serve.Addr, outputDir)
		errCh <- server.ListenAndServe()
	}()

	fmt.Printf("Serving %s at http://%s (ctrl-c to stop)\n", outputDir, cfg.Serve.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
