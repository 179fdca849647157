package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiaole5211314/portfolio/internal/config"
	"github.com/xiaole5211314/portfolio/internal/content"
	"github.com/xiaole5211314/portfolio/internal/handlers"
	"github.com/xiaole5211314/portfolio/internal/jobs"
	"github.com/xiaole5211314/portfolio/internal/logging"
	"github.com/xiaole5211314/portfolio/internal/session"
	"github.com/xiaole5211314/portfolio/internal/store"
	"github.com/xiaole5211314/portfolio/internal/view"
)

const serviceName = "portfolio"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "portfolio",
		Short: "Single-page portfolio server",
		Long: `portfolio serves a single-page portfolio with motion-aware animations,
section navigation and a back-to-top control.

Run without arguments to start the server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(newServeCmd(), newExportCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newExportCmd() *cobra.Command {
	var (
		out     string
		date    string
		reduced bool
		from    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the page to static HTML",
		Long: `export renders the portfolio once, without the live scroll bridge,
for hosting as a plain HTML file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if date != "" {
				parsed, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
				now = parsed
			}

			c, err := loadContent(from)
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				return exportPage(cmd.OutOrStdout(), c, reduced, now)
			}
			return exportFile(out, c, reduced, now)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&date, "date", "", "footer date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&reduced, "reduced-motion", false, "render without animations")
	cmd.Flags().StringVar(&from, "content", os.Getenv("CONTENT_PATH"), "YAML content file (default built-in)")
	return cmd
}

func exportPage(w io.Writer, c *content.Content, reduced bool, now time.Time) error {
	t, err := view.Templates()
	if err != nil {
		return err
	}
	page := view.Build(c, view.State{ReducedMotion: reduced}, now)
	return view.Render(w, t, page)
}

// exportFile reports the close error too, so a short write is not silent.
func exportFile(path string, c *content.Content, reduced bool, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := exportPage(f, c, reduced, now); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func loadContent(path string) (*content.Content, error) {
	if path == "" {
		return content.Default(), nil
	}
	return content.Load(path)
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := loadContent(cfg.Content.Path)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}

	st, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	sessions := session.NewManager(cfg.Server.SessionTTL, logger, session.WithLimit(cfg.Server.SessionMax))
	defer sessions.Close()

	adm, err := newAdmin(cfg.Admin, st, logger)
	if err != nil {
		return err
	}

	r := handlers.BuildRouter(handlers.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		Content:     c,
		Sessions:    sessions,
		Events:      st,
		DB:          st,
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
		Now:         time.Now,
		Middleware:  []gin.HandlerFunc{adm.visitorTrackingMiddleware()},
	})
	adm.setupRoutes(r)

	scheduler := jobs.NewScheduler(sessions, st, logger)
	scheduler.AddSweeper("login_limiter", adm.logins)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("version", cfg.App.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
