package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"meeting_autopause/internal/config"
	"meeting_autopause/internal/display"
	"meeting_autopause/internal/handlers"
	"meeting_autopause/internal/logger"
	"meeting_autopause/internal/repository"
	"meeting_autopause/internal/repository/db"
	"meeting_autopause/internal/server"
	"meeting_autopause/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

const (
	shutdownTimeout = 10 * time.Second
	defaultLogFile  = "meeting-autopause.log"
)

func main() {
	fs := pflag.NewFlagSet("meeting-autopause", pflag.ContinueOnError)
	config.Flags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	// load config.yml, env and flags
	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
		os.Exit(1)
	}

	// init logger
	log, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	// open history DB
	database, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(database)
	services := service.NewService(repos, service.Deps{
		Source: service.NewLogStreamSource(cfg.Monitor.Command, log),
		Media:  service.NewAppleScriptController(cfg.Media.App, cfg.Media.CommandTimeout, log),
		Log:    log,
		Options: service.MonitorOptions{
			MaxRestarts:    cfg.Monitor.MaxRestarts,
			RestartBackoff: cfg.Monitor.RestartBackoff,
			MaxBackoff:     cfg.Monitor.MaxBackoff,
		},
	})

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.Monitor.Start(ctx); err != nil {
		log.Fatalw("failed to start camera monitor", "err", err)
	}

	var srv *server.Server
	if cfg.HTTP.Enabled {
		gin.SetMode(gin.ReleaseMode)
		srv = &server.Server{}
		apiHandler := handlers.NewHandler(services, log).AllowRemote(cfg.HTTP.AllowRemote)
		_ = runHTTPServer(srv, cfg.HTTP.Addr, apiHandler, log)
	}

	var program *tea.Program
	var displayDone <-chan struct{}
	if cfg.Display.TUI {
		program, displayDone = runDisplay(services, cfg, log)
	}

	log.Infow("meeting_autopause_started",
		"app", cfg.Media.App,
		"http", cfg.HTTP.Enabled,
		"http_addr", cfg.HTTP.Addr,
		"tui", cfg.Display.TUI,
		"history", cfg.History.Path,
	)

	// graceful shutdown
	waitForShutdown(cancel, services.Monitor, srv, program, displayDone, log)
}

// newLogger writes to stdout, or to a file when the terminal display owns
// the screen.
func newLogger(cfg *config.Config) (*logger.Logger, func(), error) {
	if !cfg.Display.TUI {
		log := logger.Get(cfg.Log.Level)
		return log, func() { _ = log.Sync() }, nil
	}

	path := cfg.Log.File
	if path == "" {
		path = filepath.Join(os.TempDir(), defaultLogFile)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg.Log.Level, f)
	return log, func() {
		_ = log.Sync()
		_ = f.Close()
	}, nil
}

// openDB initializes the SQLite history using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	path := cfg.History.Path
	if path == "" || path == db.MemoryPath {
		log.Infow("history kept in memory only", "path", db.MemoryPath)
	}
	return db.InitDB(path)
}

// runHTTPServer runs the HTTP server in a separate goroutine. The status API
// is optional: a failure to serve is logged and reported on the returned
// channel, and the monitor keeps running.
func runHTTPServer(srv *server.Server, addr string, handler *handlers.Handler, log *logger.Logger) <-chan error {
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		log.Infow("http_server_listening", "addr", addr)
		if err := srv.Run(addr, handler.InitRoutes()); err != nil {
			log.Errorw("http_server_failed", "addr", addr, "err", err)
			errs <- err
		}
	}()
	return errs
}

// runDisplay starts the terminal UI. The returned channel is closed when
// the program exits, which happens when the user quits.
func runDisplay(services *service.Service, cfg *config.Config, log *logger.Logger) (*tea.Program, <-chan struct{}) {
	model := display.New(services.Monitoring, cfg.Display.RefreshInterval, service.CameraPredicate)
	program := tea.NewProgram(model, tea.WithAltScreen())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := program.Run(); err != nil {
			log.Errorw("display_exited", "err", err)
		}
	}()
	return program, done
}

// waitForShutdown blocks until a termination signal or the display exits,
// then stops everything in reverse order.
func waitForShutdown(
	cancel context.CancelFunc,
	monitor service.Monitor,
	srv *server.Server,
	program *tea.Program,
	displayDone <-chan struct{},
	log *logger.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		log.Infow("shutting down...", "signal", sig.String())
	case <-displayDone:
		log.Infow("shutting down...", "reason", "display closed")
	}

	// stop background goroutines and the log subprocess
	cancel()
	monitor.Stop()

	if program != nil {
		program.Quit()
		<-displayDone
	}

	if srv == nil {
		return
	}
	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
