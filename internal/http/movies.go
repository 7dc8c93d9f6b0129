package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/petroslamb/movierama/internal/domain"
	"github.com/petroslamb/movierama/internal/repository"
)

type movieListData struct {
	Movies []domain.MovieSummary
	Query  string
}

type movieUsersData struct {
	Page        domain.Page[domain.MovieSummary]
	Users       []domain.User
	UserParam   string
	SelectedID  int64
	FilterError string
}

type movieFormData struct {
	Movie  *domain.Movie
	Form   movieForm
	Errors formErrors
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	movies, err := s.listing.AllMovies(r.Context(), query)
	if err != nil {
		s.internalError(w, r, "list movies", err)
		return
	}
	s.render(w, r, http.StatusOK, "movie_list", "Movies", movieListData{Movies: movies, Query: query})
}

func (s *Server) handleMyMovies(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	movies, err := s.listing.OwnMovies(r.Context(), user.ID)
	if err != nil {
		s.internalError(w, r, "list own movies", err)
		return
	}
	s.render(w, r, http.StatusOK, "my_movie_list", "My movies", movieListData{Movies: movies})
}

func (s *Server) handleUserMovies(w http.ResponseWriter, r *http.Request) {
	grouped, err := s.listing.UsersWithMovies(r.Context())
	if err != nil {
		s.internalError(w, r, "list user movies", err)
		return
	}
	s.render(w, r, http.StatusOK, "user_movie_list", "Movies by user", grouped)
}

func (s *Server) handleMovieUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.repo.Users.List(r.Context())
	if err != nil {
		s.internalError(w, r, "list users", err)
		return
	}

	query := r.URL.Query()
	ownerID, raw, filterErr := parseOwnerFilter(query, users)
	page, err := s.listing.MoviesByOwner(r.Context(), ownerID, parsePage(query.Get("page")))
	if err != nil {
		s.internalError(w, r, "list movies by owner", err)
		return
	}

	data := movieUsersData{
		Page:        page,
		Users:       users,
		FilterError: filterErr,
	}
	if ownerID != nil {
		data.SelectedID = *ownerID
		data.UserParam = strconv.FormatInt(*ownerID, 10)
	} else if filterErr != "" {
		data.UserParam = raw
	}
	s.render(w, r, http.StatusOK, "movie_user_list", "Filter movies by user", data)
}

func (s *Server) handleNewMovieForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "movie_form", "Add a movie", movieFormData{})
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Unable to parse form submission.")
		return
	}
	form := parseMovieForm(r.PostForm)
	if errs := s.validateForm(form); errs != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "movie_form", "Add a movie", movieFormData{Form: form, Errors: errs})
		return
	}

	user := currentUser(r)
	movie, err := s.repo.Movies.Create(r.Context(), repository.MovieCreateParams{
		Title:       form.Title,
		Description: form.Description,
		OwnerID:     user.ID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTitle) {
			s.render(w, r, http.StatusUnprocessableEntity, "movie_form", "Add a movie", movieFormData{
				Form:   form,
				Errors: formErrors{"title": "Movie with this Title already exists."},
			})
			return
		}
		s.internalError(w, r, "create movie", err)
		return
	}

	s.logger.Printf("movie %d %q created by user %d", movie.ID, movie.Title, user.ID)
	http.Redirect(w, r, "/movies/my_movies/", http.StatusFound)
}

func (s *Server) handleEditMovieForm(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.managedMovie(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "movie_form", "Edit movie", movieFormData{
		Movie: &movie,
		Form:  movieForm{Title: movie.Title, Description: movie.Description},
	})
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.managedMovie(w, r)
	if !ok {
		return
	}
	if err := parseForm(w, r); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Unable to parse form submission.")
		return
	}
	form := parseMovieForm(r.PostForm)
	if errs := s.validateForm(form); errs != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "movie_form", "Edit movie", movieFormData{Movie: &movie, Form: form, Errors: errs})
		return
	}

	_, err := s.repo.Movies.Update(r.Context(), movie.ID, repository.MovieUpdateParams{
		Title:       form.Title,
		Description: form.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateTitle):
			s.render(w, r, http.StatusUnprocessableEntity, "movie_form", "Edit movie", movieFormData{
				Movie:  &movie,
				Form:   form,
				Errors: formErrors{"title": "Movie with this Title already exists."},
			})
		case errors.Is(err, repository.ErrNotFound):
			s.notFound(w, r)
		default:
			s.internalError(w, r, "update movie", err)
		}
		return
	}
	http.Redirect(w, r, "/movies/", http.StatusFound)
}

func (s *Server) handleDeleteMovieConfirm(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.managedMovie(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "movie_confirm_delete", "Delete movie", movie)
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.managedMovie(w, r)
	if !ok {
		return
	}
	if err := s.repo.Movies.Delete(r.Context(), movie.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.notFound(w, r)
			return
		}
		s.internalError(w, r, "delete movie", err)
		return
	}

	s.logger.Printf("movie %d deleted by user %d", movie.ID, currentUser(r).ID)
	http.Redirect(w, r, "/movies/", http.StatusFound)
}

// managedMovie loads the movie named by the route if the current user may
// change it. Movies the user may not manage are reported as missing.
func (s *Server) managedMovie(w http.ResponseWriter, r *http.Request) (domain.Movie, bool) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		s.notFound(w, r)
		return domain.Movie{}, false
	}

	movie, err := s.repo.Movies.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.notFound(w, r)
			return domain.Movie{}, false
		}
		s.internalError(w, r, "fetch movie", err)
		return domain.Movie{}, false
	}

	if !currentUser(r).CanManage(movie) {
		s.notFound(w, r)
		return domain.Movie{}, false
	}
	return movie, true
}
