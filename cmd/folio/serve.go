package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/folio"
)

var (
	watchDir string
	seed     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Run the web server until SIGINT or SIGTERM.

Examples:
  # Serve with settings from the environment
  ADMIN_PASSWORD=secret ADMIN_SESSION_SECRET=changeme folio serve

  # Load sample content into an empty database and re-import
  # markdown posts whenever they change
  folio serve --seed --watch content/posts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runServe(cmd.Context()); err != nil {
			return fail(cmd, err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&watchDir, "watch", "", "import markdown posts from this directory and re-import on change")
	serveCmd.Flags().BoolVar(&seed, "seed", false, "load sample content when the database is empty")
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if seed {
		cfg.Database.Seed = true
	}
	app := folio.New(cfg)
	if err := app.Setup(); err != nil {
		return err
	}
	logger := app.Logger

	g, ctx := errgroup.WithContext(ctx)
	g.Go(app.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return app.Shutdown(shutdownCtx)
	})
	if watchDir != "" {
		reimport := func() {
			ictx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			res, err := folio.ImportDir(ictx, app.Store, watchDir, app.Author())
			if err != nil {
				logger.Error("import failed", zap.Error(err))
				return
			}
			for path, err := range res.Failed {
				logger.Warn("post skipped", zap.String("path", path), zap.Error(err))
			}
			app.Cache.Invalidate()
			logger.Info("content imported", zap.Int("posts", len(res.Imported)))
		}
		reimport()
		g.Go(func() error {
			return folio.WatchDir(ctx, watchDir, folio.DefaultWatchDebounce, logger, reimport)
		})
	}
	return g.Wait()
}
