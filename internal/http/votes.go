package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/petroslamb/movierama/internal/domain"
	"github.com/petroslamb/movierama/internal/repository"
	"github.com/petroslamb/movierama/internal/voting"
)

const selfVoteMessage = "You cannot vote on a movie you submitted."

type voteFormData struct {
	Movie   domain.MovieSummary
	State   domain.VoteState
	Actions []domain.Action
	Form    voteForm
	Errors  formErrors
}

func (s *Server) handleVoteMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.listing.VoteableMovies(r.Context(), currentUser(r).ID)
	if err != nil {
		s.internalError(w, r, "list voteable movies", err)
		return
	}
	s.render(w, r, http.StatusOK, "vote_movies", "Vote on movies", movies)
}

func (s *Server) handleUserVotes(w http.ResponseWriter, r *http.Request) {
	votes, err := s.listing.UserVotes(r.Context())
	if err != nil {
		s.internalError(w, r, "list user votes", err)
		return
	}
	s.render(w, r, http.StatusOK, "user_vote_list", "Votes by user", votes)
}

func (s *Server) handleVoteForm(w http.ResponseWriter, r *http.Request) {
	data, ok := s.loadVoteForm(w, r)
	if !ok {
		return
	}
	status := http.StatusOK
	if data.Movie.OwnedBy(currentUser(r).ID) {
		status = http.StatusForbidden
		data.Errors = formErrors{"": selfVoteMessage}
	}
	s.render(w, r, status, "movie_vote_form", "Vote", data)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	data, ok := s.loadVoteForm(w, r)
	if !ok {
		return
	}
	if err := parseForm(w, r); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Unable to parse form submission.")
		return
	}

	data.Form = parseVoteForm(r.PostForm)
	if errs := s.validateForm(data.Form); errs != nil {
		data.Errors = errs
		s.render(w, r, http.StatusUnprocessableEntity, "movie_vote_form", "Vote", data)
		return
	}
	action, err := domain.ParseAction(data.Form.Vote)
	if err != nil {
		data.Errors = formErrors{"vote": invalidChoiceMessage}
		s.render(w, r, http.StatusUnprocessableEntity, "movie_vote_form", "Vote", data)
		return
	}

	_, err = s.voting.Vote(r.Context(), data.Movie.ID, currentUser(r).ID, action)
	if err != nil {
		switch {
		case errors.Is(err, voting.ErrSelfVote):
			data.Errors = formErrors{"": selfVoteMessage}
			s.render(w, r, http.StatusForbidden, "movie_vote_form", "Vote", data)
		case errors.Is(err, voting.ErrInvalidAction):
			data.Errors = formErrors{"vote": invalidChoiceMessage}
			s.render(w, r, http.StatusUnprocessableEntity, "movie_vote_form", "Vote", data)
		case errors.Is(err, repository.ErrNotFound):
			s.notFound(w, r)
		default:
			s.internalError(w, r, "vote", err)
		}
		return
	}
	http.Redirect(w, r, "/movies/vote_movies/", http.StatusFound)
}

// loadVoteForm fetches the movie named by the route with its counts and the
// current user's vote on it.
func (s *Server) loadVoteForm(w http.ResponseWriter, r *http.Request) (voteFormData, bool) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		s.notFound(w, r)
		return voteFormData{}, false
	}

	movie, err := s.repo.Movies.GetSummary(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.notFound(w, r)
			return voteFormData{}, false
		}
		s.internalError(w, r, "fetch movie for vote", err)
		return voteFormData{}, false
	}

	state, err := s.repo.Votes.State(r.Context(), id, currentUser(r).ID)
	if err != nil {
		s.internalError(w, r, "fetch vote state", err)
		return voteFormData{}, false
	}

	return voteFormData{
		Movie:   movie,
		State:   state,
		Actions: domain.Actions(),
		Form:    voteForm{Vote: string(domain.Like)},
	}, true
}
