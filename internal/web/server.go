// Package web provides the HTTP server wiring the match engine to its
// routes. It owns no analysis logic: it resolves sessions, translates error
// kinds into status codes and renders JSON.
package web

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/brunovale/go-spotify-match/internal/auth"
	"github.com/brunovale/go-spotify-match/internal/match"
	"github.com/brunovale/go-spotify-match/internal/preview"
	"github.com/brunovale/go-spotify-match/internal/resultcache"
	"github.com/brunovale/go-spotify-match/internal/session"
	"github.com/brunovale/go-spotify-match/internal/spotify"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	StaticFS     fs.FS
	Logger       *log.Logger
}

// Server is the HTTP server for the match application.
type Server struct {
	router   chi.Router
	server   *http.Server
	sessions *session.Store
	handlers *Handlers
	logger   *log.Logger
}

// NewServer wires the engine and creates the HTTP server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client ID and secret are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	redirectURL := cfg.RedirectURL
	if redirectURL == "" {
		redirectURL = fmt.Sprintf("http://%s/match/callback", addr)
	}

	authenticator := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(redirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserTopRead,
			spotifyauth.ScopeUserReadPrivate,
			spotifyauth.ScopeUserReadEmail,
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopeUserReadCurrentlyPlaying,
		),
	)

	sessions := session.NewStore()
	tokens := auth.NewManager(sessions, cfg.ClientID, cfg.ClientSecret,
		auth.WithLogger(logger.With("component", "auth")))
	spotifyClient := spotify.NewClient(
		spotify.WithLogger(logger.With("component", "spotify")))
	enricher := preview.NewEnricher(preview.NewClient(),
		preview.WithLogger(logger.With("component", "preview")))
	results := resultcache.NewMemory[*match.Result]()

	service := match.NewService(match.Config{
		Tokens:   tokens,
		Fetcher:  spotifyClient,
		Playlist: spotifyClient,
		Sessions: sessions,
		Enricher: enricher,
		Results:  results,
		Logger:   logger.With("component", "match"),
	})

	router := chi.NewRouter()
	s := &Server{
		router:   router,
		sessions: sessions,
		handlers: NewHandlers(authenticator, sessions, service, logger),
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes(staticFS fs.FS) {
	if staticFS != nil {
		fileServer := http.FileServer(http.FS(staticFS))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
		s.router.Get("/", s.handlers.Home(staticFS))
	}

	s.router.Route("/match", func(r chi.Router) {
		r.Get("/login/{slot}", s.handlers.Login)
		r.Get("/callback", s.handlers.Callback)
		r.Get("/auth/status", s.handlers.AuthStatus)
		r.Get("/calculate", s.handlers.Calculate)
		r.Post("/create-playlist", s.handlers.CreatePlaylist)
		r.Post("/logout", s.handlers.Logout)
	})
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start))
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
