// Package server wires configuration, storage, services and the HTTP
// transport together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/logging"
	"github.com/dmitrijs2005/studymatch/internal/server/auth"
	"github.com/dmitrijs2005/studymatch/internal/server/config"
	"github.com/dmitrijs2005/studymatch/internal/server/httpserver"
	"github.com/dmitrijs2005/studymatch/internal/server/images"
	"github.com/dmitrijs2005/studymatch/internal/server/pubsub"
	"github.com/dmitrijs2005/studymatch/internal/server/ratelimit"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/memory"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studymatch/internal/server/services"
	_ "modernc.org/sqlite"
)

const limiterSweepInterval = time.Minute

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	hub     *pubsub.Hub
	limiter *ratelimit.FixedWindow
	http    *httpserver.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if c.DatabaseDSN == "" {
		return newInMemoryApp(ctx, c, logger)
	}

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	return newApp(ctx, c, logger, db, rm)
}

// newInMemoryApp keeps all data in process. The SQLite handle only carries
// transaction boundaries for the services; nothing is written to it.
func newInMemoryApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := sqlOpen("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	db.SetMaxOpenConns(1)

	logger.Warn(ctx, "no database DSN configured, data lives in memory and is lost on exit")

	app, err := newApp(ctx, c, logger, db, memory.NewInMemoryRepositoryManager())
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	var signer services.ImageSigner
	presigner, err := images.NewPresigner(ctx, c)
	switch {
	case err == nil:
		signer = presigner
	case errors.Is(err, images.ErrNotConfigured):
		logger.Info(ctx, "object storage disabled, room listings carry no images")
	default:
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.TokenValidityDuration)
	hasher := auth.NewPasswordHasher(auth.DefaultPasswordCost)
	limiter := ratelimit.NewFixedWindow(c.LoginRateLimit, c.LoginRateWindow)
	hub := pubsub.NewHub(pubsub.DefaultBuffer, logger.With("module", "pubsub"))

	authSvc := services.NewAuthService(db, rm, tokens, hasher, limiter, logger)
	rooms := services.NewChatRoomService(db, rm, signer, logger)
	messages := services.NewMessageService(db, rm, rooms, hub, c.StoreTimeout, logger)

	hs, err := httpserver.NewHTTPServer(httpserver.Options{
		Address:        c.HTTPAddr,
		Auth:           authSvc,
		Rooms:          rooms,
		Messages:       messages,
		Broker:         hub,
		ClientAddr:     ratelimit.NewAddrResolver(c.TrustedProxies),
		SecureCookies:  c.SecureCookies,
		AllowedOrigins: c.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		hub:     hub,
		limiter: limiter,
		http:    hs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives or the HTTP server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.limiter.Run(ctx, limiterSweepInterval)
	}()

	wg.Wait()

	app.hub.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close failed", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
