// Package listing builds the read-only movie views: the public list, a
// user's own movies, movies by owner, voteable movies and per-user votes.
package listing

import (
	"context"
	"fmt"

	"github.com/petroslamb/movierama/internal/domain"
	"github.com/petroslamb/movierama/internal/repository"
)

// DefaultPageSize is used when New receives a non-positive page size.
const DefaultPageSize = 5

// MovieReader lists movies with their vote counts.
type MovieReader interface {
	List(ctx context.Context, filters repository.MovieListFilters) ([]domain.MovieSummary, error)
	Count(ctx context.Context, filters repository.MovieListFilters) (int, error)
}

// VoteReader reads the vote ledger.
type VoteReader interface {
	StatesForVoter(ctx context.Context, voterID int64, movieIDs []int64) (map[int64]domain.VoteState, error)
	ListVotedMovies(ctx context.Context) ([]repository.VotedMovie, error)
}

// UserReader lists accounts.
type UserReader interface {
	List(ctx context.Context) ([]domain.User, error)
}

// Service answers the list views. It never writes.
type Service struct {
	movies   MovieReader
	votes    VoteReader
	users    UserReader
	pageSize int
}

// New constructs a Service.
func New(movies MovieReader, votes VoteReader, users UserReader, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{movies: movies, votes: votes, users: users, pageSize: pageSize}
}

// NewFromRepository wires a Service to the Postgres repositories.
func NewFromRepository(repo *repository.Repository, pageSize int) *Service {
	return New(repo.Movies, repo.Votes, repo.Users, pageSize)
}

// AllMovies returns every movie, newest first. A non-empty query keeps only
// movies whose title or description contains it, ignoring case.
func (s *Service) AllMovies(ctx context.Context, query string) ([]domain.MovieSummary, error) {
	filters := repository.MovieListFilters{}
	if query != "" {
		filters.Query = &query
	}
	return s.movies.List(ctx, filters)
}

// OwnMovies returns the movies submitted by userID.
func (s *Service) OwnMovies(ctx context.Context, userID int64) ([]domain.MovieSummary, error) {
	return s.movies.List(ctx, repository.MovieListFilters{OwnerID: &userID})
}

// MoviesByOwner returns one page of movies owned by ownerID. A nil owner
// pages through all movies grouped by owner. Pages outside the range are
// clamped: below 1 or past the end yields the last page.
func (s *Service) MoviesByOwner(ctx context.Context, ownerID *int64, page int) (domain.Page[domain.MovieSummary], error) {
	filters := repository.MovieListFilters{OwnerID: ownerID, GroupByOwner: ownerID == nil}

	total, err := s.movies.Count(ctx, filters)
	if err != nil {
		return domain.Page[domain.MovieSummary]{}, err
	}

	number, numPages := clampPage(total, s.pageSize, page)
	filters.Limit = s.pageSize
	filters.Offset = (number - 1) * s.pageSize

	items, err := s.movies.List(ctx, filters)
	if err != nil {
		return domain.Page[domain.MovieSummary]{}, err
	}
	return domain.Page[domain.MovieSummary]{
		Items:      items,
		Number:     number,
		NumPages:   numPages,
		TotalItems: total,
		PerPage:    s.pageSize,
	}, nil
}

// UsersWithMovies returns every user with the movies they submitted.
// Users without movies are included with an empty list.
func (s *Service) UsersWithMovies(ctx context.Context) ([]domain.UserMovies, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	movies, err := s.movies.List(ctx, repository.MovieListFilters{})
	if err != nil {
		return nil, err
	}

	byOwner := make(map[int64][]domain.Movie, len(users))
	for _, m := range movies {
		byOwner[m.OwnerID] = append(byOwner[m.OwnerID], m.Movie)
	}

	grouped := make([]domain.UserMovies, 0, len(users))
	for _, u := range users {
		grouped = append(grouped, domain.UserMovies{User: u, Movies: byOwner[u.ID]})
	}
	return grouped, nil
}

// VoteableMovies returns the movies userID does not own, each annotated
// with userID's current vote.
func (s *Service) VoteableMovies(ctx context.Context, userID int64) ([]domain.VoteableMovie, error) {
	movies, err := s.movies.List(ctx, repository.MovieListFilters{ExcludeOwnerID: &userID})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	states, err := s.votes.StatesForVoter(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("vote states: %w", err)
	}

	voteable := make([]domain.VoteableMovie, len(movies))
	for i, m := range movies {
		voteable[i] = domain.VoteableMovie{MovieSummary: m, MyVote: states[m.ID]}
	}
	return voteable, nil
}

// UserVotes returns, for every user, the movies they liked and disliked.
func (s *Service) UserVotes(ctx context.Context) ([]domain.UserVotes, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	voted, err := s.votes.ListVotedMovies(ctx)
	if err != nil {
		return nil, fmt.Errorf("voted movies: %w", err)
	}

	type lists struct{ liked, disliked []domain.Movie }
	byVoter := make(map[int64]*lists, len(users))
	for _, v := range voted {
		l, ok := byVoter[v.VoterID]
		if !ok {
			l = &lists{}
			byVoter[v.VoterID] = l
		}
		switch v.Direction {
		case domain.Up:
			l.liked = append(l.liked, v.Movie)
		case domain.Down:
			l.disliked = append(l.disliked, v.Movie)
		}
	}

	result := make([]domain.UserVotes, 0, len(users))
	for _, u := range users {
		uv := domain.UserVotes{User: u}
		if l, ok := byVoter[u.ID]; ok {
			uv.Liked, uv.Disliked = l.liked, l.disliked
		}
		result = append(result, uv)
	}
	return result, nil
}

func clampPage(total, perPage, requested int) (number, numPages int) {
	numPages = 1
	if total > 0 {
		numPages = (total + perPage - 1) / perPage
	}
	if requested < 1 || requested > numPages {
		return numPages, numPages
	}
	return requested, numPages
}
