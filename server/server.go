package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/patrickmn/go-cache"

	"presale-tracker/config"
	"presale-tracker/models"
	"presale-tracker/scraper/taipei"
	"presale-tracker/services"
	"presale-tracker/utils"
)

const (
	latestKey = "latest"

	SourceAPI    = "api"
	SourceUpload = "upload"
	SourceText   = "text"

	// lowVolumeThreshold flags a fetch that probably holds one weekly batch only
	lowVolumeThreshold = 200
)

// ErrRefreshInProgress is returned when a refresh is already running.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// ErrNoData is returned when the fetch succeeded but held no records.
var ErrNoData = errors.New("fetch succeeded but returned no records")

// Fetcher pulls the open-data dataset.
type Fetcher interface {
	Fetch(ctx context.Context) (*taipei.Batch, error)
}

// Snapshotter renders HTML to PNG.
type Snapshotter interface {
	PNG(ctx context.Context, html string) ([]byte, error)
}

// Server exposes the pipeline over HTTP and keeps the latest result.
type Server struct {
	cfg         *config.Config
	logger      *utils.Logger
	pipeline    *services.Pipeline
	market      *services.MarketService
	fetcher     Fetcher
	snapshotter Snapshotter
	metrics     *Metrics

	cache     *cache.Cache
	refreshMu sync.Mutex
	router    chi.Router
}

// New creates a Server. snapshotter may be nil, which disables the PNG endpoint.
func New(cfg *config.Config, logger *utils.Logger, fetcher Fetcher, snapshotter Snapshotter) *Server {
	s := &Server{
		cfg:         cfg,
		logger:      logger,
		pipeline:    services.NewPipeline(logger),
		market:      services.NewMarketService(logger),
		fetcher:     fetcher,
		snapshotter: snapshotter,
		metrics:     NewMetrics(),
		cache:       cache.New(cfg.ResultTTL, time.Hour),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(NewRateLimiter(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst, s.logger, s.metrics).Handler)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/parse", s.handleParse)
		r.Post("/refresh", s.handleRefresh)

		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/projects", s.handleProjects)
			r.Get("/transactions", s.handleTransactions)
			r.Get("/stats", s.handleStats)
			r.Get("/overview", s.handleOverview)
		})

		r.Get("/report", s.handleReport)
		r.Get("/report.png", s.handleReportPNG)
	})
	return r
}

// Latest returns the result currently being served.
func (s *Server) Latest() (*models.AggregationResult, bool) {
	v, ok := s.cache.Get(latestKey)
	if !ok {
		return nil, false
	}
	return v.(*models.AggregationResult), true
}

func (s *Server) store(res *models.AggregationResult) {
	s.cache.Set(latestKey, res, cache.DefaultExpiration)
	s.metrics.SetLatest(res)
	s.logger.Info("[server] Serving run %s from %s: %d projects", res.RunID, res.Source, len(res.Projects))
}

// Refresh fetches the dataset and replaces the latest result. An empty
// filter result is still stored, and returned with its *EmptyResultError.
func (s *Server) Refresh(ctx context.Context) (*models.AggregationResult, error) {
	if !s.refreshMu.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer s.refreshMu.Unlock()

	start := time.Now()
	batch, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.metrics.ObserveRun(SourceAPI, "error", time.Since(start))
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if len(batch.Records) == 0 {
		s.metrics.ObserveRun(SourceAPI, "empty", time.Since(start))
		return nil, ErrNoData
	}
	if len(batch.Records) < lowVolumeThreshold {
		s.logger.Warn("[server] Only %d records fetched, likely a weekly update only", len(batch.Records))
	}

	res, err := s.pipeline.RunRecords(batch.Records, SourceAPI)
	var empty *services.EmptyResultError
	switch {
	case err == nil:
		s.metrics.ObserveRun(SourceAPI, "ok", time.Since(start))
	case errors.As(err, &empty):
		s.metrics.ObserveRun(SourceAPI, "empty", time.Since(start))
	default:
		s.metrics.ObserveRun(SourceAPI, "error", time.Since(start))
		return nil, err
	}
	s.store(res)
	return res, err
}

// Ingest runs a user-supplied buffer and, when anything survived filtering,
// replaces the latest result. text selects the pasted-text path, which skips
// encoding detection.
func (s *Server) Ingest(buf []byte, source string, text bool) (*models.AggregationResult, error) {
	start := time.Now()

	var (
		res *models.AggregationResult
		err error
	)
	if text {
		res, err = s.pipeline.RunText(string(buf), source)
	} else {
		res, err = s.pipeline.RunBytes(buf, source)
	}
	if err != nil {
		outcome := "error"
		var empty *services.EmptyResultError
		if errors.As(err, &empty) {
			outcome = "empty"
		}
		s.metrics.ObserveRun(source, outcome, time.Since(start))
		return res, err
	}

	s.metrics.ObserveRun(source, "ok", time.Since(start))
	s.store(res)
	return res, nil
}

// ListenAndServe serves until ctx is done, then shuts down gracefully. With
// auto refresh enabled the weekly scheduler runs alongside.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.AutoRefresh {
		sched := NewScheduler(s.logger, func(ctx context.Context) error {
			_, err := s.Refresh(ctx)
			return err
		})
		go sched.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[server] Listening on %s", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("[server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
