// Package api serves the chat backend over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/chative-support/agent/contract"
	storex "github.com/tanpawarit/chative-support/agent/store"
)

const (
	msgGlobalLimited = "Too many requests from this IP, please try again later."
	msgChatLimited   = "Too many messages, please slow down."
)

// Service is the part of the orchestrator the HTTP layer calls.
type Service interface {
	HandleMessage(ctx context.Context, req contractx.TurnRequest) (contractx.TurnResponse, error)
	GetConversation(ctx context.Context, id string) (*storex.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]storex.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	Agents() []contractx.AgentInfo
}

type Server struct {
	cfg      Config
	service  Service
	logger   zerolog.Logger
	gatherer prometheus.Gatherer

	proxies       proxyList
	globalLimiter *ipLimiter
	chatLimiter   *ipLimiter

	startedAt time.Time
	now       func() time.Time

	httpServer *http.Server
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithGatherer exposes the given registry on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func NewServer(cfg Config, service Service, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, errors.New("api: service is required")
	}

	s := &Server{
		cfg:     cfg,
		service: service,
		logger:  log.Logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()

	proxies, err := parseProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	s.proxies = proxies
	s.globalLimiter = newIPLimiter(cfg.GlobalLimit, cfg.GlobalWindow, cfg.LimiterClients, proxies, msgGlobalLimited)
	s.chatLimiter = newIPLimiter(cfg.ChatLimit, cfg.ChatWindow, cfg.LimiterClients, proxies, msgChatLimited)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s, nil
}

// Handler returns the full middleware chain around the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	var h http.Handler = mux
	h = s.corsMiddleware(h)
	h = s.recoverer(h)
	h = s.accessLog(h)
	return h
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	api := func(h http.HandlerFunc) http.Handler {
		return s.globalLimiter.middleware(h)
	}

	mux.Handle("POST /api/chat/messages",
		s.globalLimiter.middleware(s.chatLimiter.middleware(http.HandlerFunc(s.handleSendMessage))))
	mux.Handle("GET /api/chat/conversations", api(s.handleListConversations))
	mux.Handle("GET /api/chat/conversations/{id}", api(s.handleGetConversation))
	mux.Handle("DELETE /api/chat/conversations/{id}", api(s.handleDeleteConversation))
	mux.Handle("GET /api/agents", api(s.handleListAgents))
	mux.Handle("GET /api/agents/{type}/capabilities", api(s.handleAgentCapabilities))
	mux.Handle("GET /api/health", api(s.handleHealth))

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	mux.HandleFunc("/", s.handleNotFound)
}

// Run serves until ctx is cancelled, then shuts down within ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Msg("shutting down http server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return <-errCh
}
