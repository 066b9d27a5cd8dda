// Package http exposes the ingestion pipeline as a small JSON API: upload a
// bank export, review the preview, fix category assignments, import, and
// read the derived reports.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"haushalt/internal/cache"
	"haushalt/internal/fixedcosts"
	"haushalt/internal/ingest"
	applog "haushalt/internal/log"
	"haushalt/internal/store"
)

// ReportStore is the read side the report handlers need.
type ReportStore interface {
	store.CategoryReader
	store.TransactionReader
	store.TransactionLister
	store.SavingsGoalReader
}

// ImportPublisher announces finished imports to the snapshot worker.
// Publishing is best effort; a broker outage never fails the request.
type ImportPublisher interface {
	PublishImportCompleted(ctx context.Context, sessionID string, count int) error
}

type Server struct {
	http.Server

	session      *ingest.Session
	reports      ReportStore
	detector     *fixedcosts.Detector
	publisher    ImportPublisher // nil when AMQP is not configured
	windowMonths int

	// Report caches, purged on import.
	summaryCache *cache.LRUCache[summaryResponse]
	fixedCache   *cache.LRUCache[fixedCostsResponse]
	cacheManager *cache.Manager

	rateLimiter  *rateLimiter
	requests     *applog.RequestLogger
	shutdownOnce sync.Once
	now          func() time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. publisher may be nil.
func NewServer(addr string, session *ingest.Session, reports ReportStore, detector *fixedcosts.Detector, publisher ImportPublisher, windowMonths int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		session:      session,
		reports:      reports,
		detector:     detector,
		publisher:    publisher,
		windowMonths: windowMonths,
		summaryCache: cache.NewLRUCache[summaryResponse](100, 5*time.Minute),
		fixedCache:   cache.NewLRUCache[fixedCostsResponse](10, 5*time.Minute),
		cacheManager: cache.NewManager(),
		rateLimiter:  newRateLimiter(),
		requests:     applog.NewRequestLogger(applog.Default()),
		now:          time.Now,
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.fixedCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/session", s.withMiddleware(s.handleSession))
	mux.HandleFunc("/api/session/assignments", s.withMiddleware(s.handleAssign))
	mux.HandleFunc("/api/session/import", s.withMiddleware(s.handleImport))
	mux.HandleFunc("/api/session/cancel", s.withMiddleware(s.handleCancel))

	mux.HandleFunc("/api/categories", s.withMiddleware(s.handleCategories))
	mux.HandleFunc("/api/savings-goals", s.withMiddleware(s.handleSavingsGoals))
	mux.HandleFunc("/api/fixed-costs", s.withMiddleware(s.handleFixedCosts))
	mux.HandleFunc("/api/summary", s.withMiddleware(s.handleSummary))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
