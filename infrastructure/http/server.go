package http

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"proposal/frontend/proposal"
	sessioncontext "proposal/frontend/shared/context"
	"proposal/frontend/tracker"
	"proposal/infrastructure/audit"
	"proposal/infrastructure/cache"
	"proposal/infrastructure/session"
	"proposal/infrastructure/sqlite"
	"proposal/infrastructure/upi"
	"proposal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed assets/*
var assets embed.FS

var ShutdownTimeout = 2 * time.Second

// Pages carries the static content and payment setup served by the pages.
type Pages struct {
	Proposal   *proposal.Proposal
	Checklist  *tracker.Checklist
	Payment    tracker.PaymentState
	Dispatcher *upi.Dispatcher
}

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	DB           *sqlite.DB
	SessionCache *cache.VisitorSessionCache
	SessionTTL   time.Duration
	Audit        *audit.Service
	Pages        Pages
}

// NewServer creates a new http server.
func NewServer(addr string, db *sqlite.DB, sessionCache *cache.VisitorSessionCache, auditSvc *audit.Service, sessionTTL time.Duration, pages Pages) *Server {
	if pages.Dispatcher == nil {
		pages.Dispatcher = upi.NewDispatcher(nil, nil)
	}
	s := &Server{
		Addr:         addr,
		router:       chi.NewRouter(),
		DB:           db,
		SessionCache: sessionCache,
		SessionTTL:   sessionTTL,
		Audit:        auditSvc,
		Pages:        pages,
		server: &http.Server{
			MaxHeaderBytes: 1 << 20,
		},
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.CSRFMiddleware)

	// Landing placeholder; the proposal lives under /sara.
	s.router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<!doctype html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>Codvertex</title></head><body></body></html>"))
	})

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		slog.Error("assets subfs init failed; serving fallback fs", slog.Any("err", err))
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	s.router.Group(func(r chi.Router) {
		r.Use(s.VisitorSessionMiddleware)
		s.RegisterProposalRoutes(r)
		s.RegisterTrackerRoutes(r)
	})

	s.server.Handler = s.router
	return s
}

// VisitorSessionMiddleware resolves the visitor session from its cookie and
// starts a fresh one when the cookie is missing, unknown or expired.
func (s *Server) VisitorSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			visitor models.VisitorSession
			ok      bool
		)
		if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
			id := session.Digest(c.Value)
			visitor, ok = s.resolveSession(r.Context(), id)
			if ok && visitor.Expired() {
				s.dropSession(r.Context(), id)
				ok = false
			}
		}

		if !ok {
			var err error
			visitor, err = s.startSession(w, r)
			if err != nil {
				slog.Error("create visitor session failed", slog.String("path", r.URL.Path), slog.Any("err", err))
				http.Error(w, "failed to start session", http.StatusInternalServerError)
				return
			}
		}

		ctx := sessioncontext.NewContextWithSession(r.Context(), visitor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveSession(ctx context.Context, id string) (models.VisitorSession, bool) {
	if cached, found := s.SessionCache.Find(id); found {
		return cached, true
	}

	dbSession, err := session.Load(ctx, s.DB, id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("load session from db failed", slog.Any("err", err))
		}
		return models.VisitorSession{}, false
	}

	s.SessionCache.Add(dbSession)
	return dbSession, true
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) (models.VisitorSession, error) {
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	token := session.NewToken()
	visitor, err := session.Create(r.Context(), s.DB, session.Digest(token), r.UserAgent(), session.ExpiryFrom(time.Now(), ttl))
	if err != nil {
		return models.VisitorSession{}, err
	}
	s.SessionCache.Add(visitor)
	http.SetCookie(w, session.SessionCookie(token, int(ttl.Seconds())))
	return visitor, nil
}

func (s *Server) dropSession(ctx context.Context, id string) {
	s.SessionCache.Delete(id)
	if err := session.Delete(ctx, s.DB, id); err != nil {
		slog.Error("cannot delete session from DB", slog.Any("err", err))
	}
}

// PruneSessions removes expired sessions from the cache and the database.
func (s *Server) PruneSessions(ctx context.Context, now time.Time) (int64, error) {
	s.SessionCache.PruneExpired(now)
	return session.PruneExpired(ctx, s.DB, now)
}

// RunSessionJanitor prunes expired sessions every interval until ctx is done.
func (s *Server) RunSessionJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.PruneSessions(ctx, now)
			if err != nil {
				slog.Error("prune expired sessions failed", slog.Any("err", err))
				continue
			}
			if n > 0 {
				slog.Info("pruned expired sessions", slog.Int64("count", n))
			}
		}
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go s.server.Serve(s.ln)
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}
