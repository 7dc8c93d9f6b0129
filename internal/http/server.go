package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/petroslamb/movierama/internal/config"
	"github.com/petroslamb/movierama/internal/listing"
	"github.com/petroslamb/movierama/internal/repository"
	"github.com/petroslamb/movierama/internal/session"
	"github.com/petroslamb/movierama/internal/store"
	"github.com/petroslamb/movierama/internal/voting"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg       config.Config
	store     *store.Store
	repo      *repository.Repository
	voting    *voting.Service
	listing   *listing.Service
	sessions  *session.Manager
	limiter   *ipRateLimiter
	validate  *validator.Validate
	templates map[string]*template.Template
	logger    *log.Logger
	router    chi.Router
	httpSrv   *http.Server
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, repo *repository.Repository, sessions *session.Manager, logger *log.Logger) (*Server, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if logger == nil {
		logger = log.Default()
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		store:     st,
		repo:      repo,
		voting:    voting.New(repo.Votes, logger),
		listing:   listing.NewFromRepository(repo, cfg.PageSize),
		sessions:  sessions,
		limiter:   newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		validate:  newValidator(),
		templates: templates,
		logger:    logger,
		router:    r,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.Use(securityHeaders)
	s.router.Use(s.rateLimit)
	s.router.Use(s.loadUser)
	s.router.NotFound(s.notFound)

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/", s.handleHome)
	s.router.Get("/about/", s.handleAbout)

	s.router.Route("/accounts", func(r chi.Router) {
		r.Get("/signup/", s.handleSignupForm)
		r.Post("/signup/", s.handleSignup)
		r.Get("/login/", s.handleLoginForm)
		r.Post("/login/", s.handleLogin)
		r.Post("/logout/", s.handleLogout)
	})

	s.router.Route("/movies", func(r chi.Router) {
		r.Get("/", s.handleListMovies)

		r.Group(func(r chi.Router) {
			r.Use(s.requireLogin)
			r.Get("/my_movies/", s.handleMyMovies)
			r.Get("/user_movies/", s.handleUserMovies)
			r.Get("/movie_users/", s.handleMovieUsers)
			r.Get("/user_votes/", s.handleUserVotes)
			r.Get("/vote_movies/", s.handleVoteMovies)

			r.Get("/new/", s.handleNewMovieForm)
			r.Post("/new/", s.handleCreateMovie)
			r.Get("/edit/{id}/", s.handleEditMovieForm)
			r.Post("/edit/{id}/", s.handleUpdateMovie)
			r.Get("/delete/{id}/", s.handleDeleteMovieConfirm)
			r.Post("/delete/{id}/", s.handleDeleteMovie)
			r.Get("/movie_vote/{id}/", s.handleVoteForm)
			r.Post("/movie_vote/{id}/", s.handleVote)
		})
	})
}

// Start boots the HTTP server asynchronously.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// ServeHTTP lets the server be mounted or driven directly in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.store == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	if err := s.store.HealthCheck(ctx); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	resp := healthResponse{Status: "ok"}
	if stat := s.store.Stats(); stat != nil {
		resp.Pool = &poolStats{
			TotalConns:    stat.TotalConns(),
			IdleConns:     stat.IdleConns(),
			AcquiredConns: stat.AcquiredConns(),
			MaxConns:      stat.MaxConns(),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Printf("encode healthz: %v", err)
	}
}

type healthResponse struct {
	Status string     `json:"status"`
	Pool   *poolStats `json:"pool,omitempty"`
}

type poolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home", "MovieRama", nil)
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about", "About", nil)
}
