// ABOUTME: HTTP server wiring for the quill API
// ABOUTME: Registers routes, applies auth middleware, and manages graceful shutdown

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/quillchat/quill/internal/auth"
	"github.com/quillchat/quill/internal/conversation"
	"github.com/quillchat/quill/internal/store"
)

// ConversationService defines what the API layer needs from the conversation core
type ConversationService interface {
	SendMessage(ctx context.Context, senderID, recipientID int64, rawContent string) (*store.Message, error)
	History(ctx context.Context, userA, userB int64, limit int) ([]*store.Message, error)
	MarkRead(ctx context.Context, readerID, partnerID int64) (int64, error)
	Stats(ctx context.Context, userID int64) (*store.ConversationStats, error)
	Partners(ctx context.Context, userID int64) ([]*store.User, error)
}

// Subscriber defines what the SSE endpoint needs from the broadcaster
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan *conversation.MessageEvent, string)
}

// UserCounter is the readiness probe's view of the store.
type UserCounter interface {
	CountUsers(ctx context.Context) (int64, error)
}

// Options collects the dependencies a Server needs.
type Options struct {
	Addr        string
	Service     ConversationService
	Broadcaster Subscriber
	Users       auth.UserResolver
	Counter     UserCounter
	Verifier    auth.TokenVerifier
	Logger      *slog.Logger
}

// Server serves the quill HTTP API.
type Server struct {
	service     ConversationService
	broadcaster Subscriber
	counter     UserCounter
	logger      *slog.Logger
	httpServer  *http.Server
	mux         *http.ServeMux
}

// NewServer creates a Server with all routes registered. API endpoints
// require a valid bearer token; health endpoints do not.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		service:     opts.Service,
		broadcaster: opts.Broadcaster,
		counter:     opts.Counter,
		logger:      logger.With("component", "api"),
	}

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/ready", s.handleReady)

	// API endpoints - auth required
	authMiddleware := auth.HTTPAuthMiddleware(opts.Users, opts.Verifier)
	mux.Handle("/api/partners", authMiddleware(http.HandlerFunc(s.handlePartners)))
	mux.Handle("/api/conversations/", authMiddleware(http.HandlerFunc(s.handleConversationRoutes)))
	mux.Handle("/api/stats", authMiddleware(http.HandlerFunc(s.handleStats)))
	mux.Handle("/api/events", authMiddleware(http.HandlerFunc(s.handleEvents)))

	s.mux = mux
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
	case serverErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdownErr := s.httpServer.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.counter.CountUsers(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// StoreResolver adapts a Store to the auth middleware's UserResolver.
type StoreResolver struct {
	Store store.Store
}

// ResolveUser loads a user and projects it to an auth identity.
func (r StoreResolver) ResolveUser(ctx context.Context, id int64) (*auth.Identity, error) {
	u, err := r.Store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return &auth.Identity{UserID: u.ID, Name: u.Name, Email: u.Email}, nil
}
