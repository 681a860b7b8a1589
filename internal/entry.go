// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/marblecomic/marble/internal/api"
	"github.com/marblecomic/marble/internal/comicservice"
	"github.com/marblecomic/marble/internal/mcpserver"
	"github.com/marblecomic/marble/internal/sse"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger builds the structured JSON logger and installs it as default.
func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("version", app.version),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("library_path", cfg.Library.Path),
		slog.String("tracker_path", cfg.Tracker.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	lib, err := openLibrary(cfg, logger)
	if err != nil {
		return err
	}
	defer lib.Close()

	broker := sse.NewBroker(cfg.App.HTTP.SSEHeartbeat)
	defer broker.Close()

	svc := lib.service(logger,
		comicservice.WithPublisher(broker),
		comicservice.WithTrackerFile(cfg.Tracker.Path, cfg.Tracker.EnableWriting),
	)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRouter(svc, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Close streams first; Shutdown waits for active handlers.
		broker.Close()

		timeout := cfg.App.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	runErr := g.Wait()

	if svc.Writable() {
		if err := svc.SaveProgress(); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("save progress: %w", err))
		}
	}

	if runErr != nil {
		logger.Error("Application error", slog.String("error", runErr.Error()))
		return runErr
	}

	logger.Info("Server stopped successfully")
	return nil
}

func newRouter(svc *comicservice.Service, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		st := svc.Stats(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","comics":%d,"tracked":%d}`, st.Comics, st.Tracked)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Mount("/api", api.NewRouter(svc, broker))
	return r
}

// RunMCP serves the library over MCP on stdin/stdout until the client
// disconnects. Logs go to the configured output, never stdout.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	logger := app.logger()

	lib, err := openLibrary(app.config, logger)
	if err != nil {
		return err
	}
	defer lib.Close()

	srv := mcpserver.New(lib.service(logger), app.version)
	logger.Info("MCP server listening on stdio", slog.String("version", app.version))
	return srv.ServeStdio()
}

// CheckReport summarises a library check.
type CheckReport struct {
	Comics int
	Pages  int
	Failed int
}

// Check loads the library and resolves the navigation of every comic,
// logging each comic whose page files cannot be laid out.
func Check(ctx context.Context, out io.Writer, opts ...Option) (CheckReport, error) {
	var report CheckReport
	app, err := newApplication(opts)
	if err != nil {
		return report, err
	}
	logger := app.logger()

	lib, err := openLibrary(app.config, logger)
	if err != nil {
		return report, err
	}
	defer lib.Close()

	for id, comic := range lib.catalog.All() {
		report.Comics++
		m, err := lib.resolver.Resolve(ctx, id)
		if err != nil {
			report.Failed++
			fmt.Fprintf(out, "FAIL %d %s: %v\n", id, comic.DisplayName(), err)
			continue
		}
		pages := 0
		for ch := range m.Chapters() {
			for _, p := range m[ch] {
				if p != "" {
					pages++
				}
			}
		}
		report.Pages += pages
		fmt.Fprintf(out, "ok   %d %s: %d chapters, %d pages\n", id, comic.DisplayName(), m.Chapters(), pages)
	}

	if report.Failed > 0 {
		return report, fmt.Errorf("%d of %d comics failed", report.Failed, report.Comics)
	}
	return report, nil
}
