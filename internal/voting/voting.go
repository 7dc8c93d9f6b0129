// Package voting decides who may vote and how a vote changes a user's
// position on a movie. Persistence is delegated to a Ledger.
package voting

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/petroslamb/movierama/internal/domain"
	"github.com/petroslamb/movierama/internal/repository"
)

var (
	// ErrSelfVote matches any SelfVoteError.
	ErrSelfVote = errors.New("voting: cannot vote on own movie")
	// ErrInvalidAction is returned for actions outside like/dislike/remove.
	ErrInvalidAction = errors.New("voting: invalid action")
)

// SelfVoteError reports an attempt by a movie's owner to vote on it.
type SelfVoteError struct {
	MovieID int64
	UserID  int64
}

func (e *SelfVoteError) Error() string {
	return fmt.Sprintf("voting: user %d owns movie %d and cannot vote on it", e.UserID, e.MovieID)
}

// Is lets errors.Is(err, ErrSelfVote) match.
func (e *SelfVoteError) Is(target error) bool {
	return target == ErrSelfVote
}

// Ledger persists vote records. Apply must run decide and the resulting
// write in a single transaction.
type Ledger interface {
	Apply(ctx context.Context, movieID, voterID int64, decide repository.DecideFunc) (domain.VoteCounts, error)
}

// Result is the outcome of a vote request.
type Result struct {
	Counts  domain.VoteCounts
	State   domain.VoteState
	Changed bool
}

// Service applies vote actions to the ledger.
type Service struct {
	ledger Ledger
	logger *log.Logger
}

// New constructs a Service.
func New(ledger Ledger, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{ledger: ledger, logger: logger}
}

// Vote applies action for userID on movieID and returns the movie's counts
// after the write. Owners are refused with a *SelfVoteError and nothing is
// written. A missing movie yields repository.ErrNotFound.
func (s *Service) Vote(ctx context.Context, movieID, userID int64, action domain.Action) (Result, error) {
	if _, err := Transition(domain.NotVoted, action); err != nil {
		return Result{}, err
	}

	var result Result
	counts, err := s.ledger.Apply(ctx, movieID, userID, func(ownerID int64, current domain.VoteState) (domain.VoteState, error) {
		if ownerID == userID {
			return current, &SelfVoteError{MovieID: movieID, UserID: userID}
		}
		next, err := Transition(current, action)
		if err != nil {
			return current, err
		}
		result.State = next
		result.Changed = next != current
		return next, nil
	})
	if err != nil {
		return Result{}, err
	}
	result.Counts = counts

	if result.Changed {
		s.logger.Printf("voting: user %d -> movie %d: %s (up=%d down=%d)", userID, movieID, result.State, counts.Up, counts.Down)
	}
	return result, nil
}
