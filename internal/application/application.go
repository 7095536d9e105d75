package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/cargo-allocator/internal/allocator"
	"github.com/eugenenazirov/cargo-allocator/internal/api"
	"github.com/eugenenazirov/cargo-allocator/internal/config"
	"github.com/eugenenazirov/cargo-allocator/internal/dataset"
	"github.com/eugenenazirov/cargo-allocator/internal/knapsack"
	"github.com/eugenenazirov/cargo-allocator/internal/storage"
)

const indexText = `cargo-allocator

GET  /api/health
GET  /api/items
PUT  /api/items
POST /api/knapsack
POST /api/allocate
GET  /api/report?format=text|pdf
`

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage   storage.Storage
	solver    knapsack.Solver
	allocator *allocator.Allocator
	handler   *api.Handler
	router    http.Handler
	logger    *zap.Logger
	server    *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	store := storage.NewMemoryStorage()
	if cfg.ItemsFile != "" {
		items, err := dataset.FileSource{Path: cfg.ItemsFile, Sheet: cfg.ItemsSheet}.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load items: %w", err)
		}
		if err := store.SetItems(items); err != nil {
			return nil, fmt.Errorf("failed to apply initial items: %w", err)
		}
		logger.Info("catalog loaded", zap.String("path", cfg.ItemsFile), zap.Int("item_types", len(items)))
	}

	solver := NewSolver(cfg, logger)
	alloc := allocator.New(solver, logger)
	handler := api.NewHandler(solver, alloc, store, Containers(cfg))
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		storage:   store,
		solver:    solver,
		allocator: alloc,
		handler:   handler,
		router:    apiRouter,
		logger:    logger,
		server:    NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// NewSolver builds the engine used by both the service and the CLI. Progress
// is logged at debug level every tenth of a sweep.
func NewSolver(cfg config.Config, logger *zap.Logger) knapsack.Solver {
	every := cfg.MaxCapacity / 10
	if every < 1 {
		every = 1
	}
	return knapsack.New(
		knapsack.WithCapacityLimit(cfg.MaxCapacity),
		knapsack.WithProgress(every, func(done, total int) {
			logger.Debug("sweep progress", zap.Int("done", done), zap.Int("total", total))
		}),
	)
}

// Containers converts the configured containers for the allocator.
func Containers(cfg config.Config) [2]allocator.Container {
	var out [2]allocator.Container
	for i, c := range cfg.Containers {
		out[i] = allocator.Container{Name: c.Name, Capacity: c.Capacity, Tare: c.Tare}
	}
	return out
}

// BuildRootHandler routes API requests and serves a plain endpoint listing at the root.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(indexText))
	}))
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
