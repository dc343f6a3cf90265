package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"wbsync/config"
	"wbsync/internal/wildberries/business/services"
	"wbsync/internal/wildberries/business/services/fetch"
	"wbsync/internal/wildberries/business/services/syncer"
	"wbsync/internal/wildberries/storage"
	"wbsync/metrics"
	"wbsync/migrations/wb"
	"wbsync/pkg/dbconnect"
	"wbsync/pkg/logger"
)

// SyncServer owns the dispatch of sync cycles across credentials: one worker
// per credential on a bounded pool, each cycle's report surfaced instead of
// discarded, the run counter advanced after every worker.
type SyncServer struct {
	dbconnect.Database
	cfg    config.Config
	log    logger.Logger
	writer io.Writer
}

func NewSyncServer(connector dbconnect.Database, cfg config.Config, writer io.Writer) *SyncServer {
	return &SyncServer{
		Database: connector,
		cfg:      cfg,
		log:      logger.NewLogger(writer, "[SyncServer]"),
		writer:   writer,
	}
}

// Run connects, migrates, starts the metrics listener and then dispatches
// one pass per scheduling tick until the context is cancelled.
func (s *SyncServer) Run(ctx context.Context) error {
	db, err := s.Connect()
	if err != nil {
		return fmt.Errorf("connecting to Postgres: %w", err)
	}
	defer db.Close()

	for _, m := range wb.All() {
		if err := m.UpMigration(db); err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
	}
	s.log.Log("migrations applied successfully")

	go s.serveMetrics(ctx)

	cadence := time.Duration(s.cfg.Sync.BaseCadenceMinutes) * time.Minute
	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	for {
		if err := s.dispatch(ctx, db); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// dispatch runs one full pass: every credential gets one cycle on the
// bounded worker pool. Credentials share no mutable state; the store's own
// transaction discipline serializes the writes.
func (s *SyncServer) dispatch(ctx context.Context, db *sql.DB) error {
	credRepo := storage.NewCredentialRepository(db, wb.SchemaName)
	creds, err := credRepo.List(ctx)
	if err != nil {
		// Malformed credentials and store connectivity loss are fatal for
		// the whole pass, not per-credential conditions.
		return fmt.Errorf("listing credentials: %w", err)
	}
	if len(creds) == 0 {
		s.log.Log("no credentials configured, nothing to do")
		return nil
	}

	workers := s.cfg.Sync.Workers
	if workers <= 0 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	reports := make(chan syncer.CycleReport, len(creds))
	var wg sync.WaitGroup

	for _, cred := range creds {
		wg.Add(1)
		go func(cred storage.Credential) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			client := fetch.NewClient(
				services.NewBearerAuth(cred.APIKey),
				logger.NewLogger(s.writer, fmt.Sprintf("[fetch %s]", cred.UserID)),
				fetch.DefaultConfig(),
			)
			writer := storage.NewWriter(db, wb.SchemaName, cred.UserID,
				logger.NewLogger(s.writer, fmt.Sprintf("[writer %s]", cred.UserID)))
			service := syncer.NewService(client, writer,
				logger.NewLogger(s.writer, fmt.Sprintf("[sync %s]", cred.UserID)),
				s.cfg.Sync.BaseCadenceMinutes)

			reports <- service.RunCycle(ctx, cred)
		}(cred)
	}

	wg.Wait()
	close(reports)

	for report := range reports {
		for _, step := range report.Failed() {
			s.log.Log("user %s: operation %s failed: %s", report.UserID, step.Name, step.Err)
		}
		// Runs advance unconditionally: cadence gating counts elapsed
		// cycles, not successful ones.
		if err := credRepo.IncrementRuns(ctx, report.UserID); err != nil {
			return fmt.Errorf("advancing run counter: %w", err)
		}
	}
	return nil
}

func (s *SyncServer) serveMetrics(ctx context.Context) {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Handle("/metrics", metrics.MetricsHandler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.Ping(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: s.cfg.Sync.MetricsAddr, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Log("metrics listening on %s", s.cfg.Sync.MetricsAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Log("metrics listener failed: %s", err)
	}
}
