package voting

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/petroslamb/movierama/internal/domain"
	"github.com/petroslamb/movierama/internal/repository"
)

// ledgerMock runs decide against a canned owner and current state, the way
// the real ledger does inside its transaction.
type ledgerMock struct {
	mock.Mock
	owner   int64
	current domain.VoteState
	decided domain.VoteState
}

func (m *ledgerMock) Apply(ctx context.Context, movieID, voterID int64, decide repository.DecideFunc) (domain.VoteCounts, error) {
	args := m.Called(ctx, movieID, voterID)
	if err := args.Error(1); err != nil {
		return domain.VoteCounts{}, err
	}
	next, err := decide(m.owner, m.current)
	if err != nil {
		return domain.VoteCounts{}, err
	}
	m.decided = next
	return args.Get(0).(domain.VoteCounts), nil
}

func newService(l Ledger) *Service {
	return New(l, log.New(io.Discard, "", 0))
}

func TestTransition(t *testing.T) {
	tests := []struct {
		current domain.VoteState
		action  domain.Action
		want    domain.VoteState
	}{
		{domain.NotVoted, domain.Like, domain.Liked},
		{domain.NotVoted, domain.Dislike, domain.Disliked},
		{domain.NotVoted, domain.RemoveVote, domain.NotVoted},
		{domain.Liked, domain.Like, domain.Liked},
		{domain.Liked, domain.Dislike, domain.Disliked},
		{domain.Liked, domain.RemoveVote, domain.NotVoted},
		{domain.Disliked, domain.Like, domain.Liked},
		{domain.Disliked, domain.Dislike, domain.Disliked},
		{domain.Disliked, domain.RemoveVote, domain.NotVoted},
	}
	for _, tt := range tests {
		t.Run(tt.current.String()+"/"+string(tt.action), func(t *testing.T) {
			got, err := Transition(tt.current, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Transition(domain.Liked, domain.Action("meh"))
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestService_VoteAppliesTransition(t *testing.T) {
	ctx := context.Background()
	ledger := &ledgerMock{owner: 1, current: domain.Liked}
	ledger.On("Apply", ctx, int64(10), int64(2)).Return(domain.VoteCounts{Down: 1}, nil).Once()

	result, err := newService(ledger).Vote(ctx, 10, 2, domain.Dislike)

	require.NoError(t, err)
	assert.Equal(t, domain.Disliked, ledger.decided)
	assert.Equal(t, Result{Counts: domain.VoteCounts{Down: 1}, State: domain.Disliked, Changed: true}, result)
	ledger.AssertExpectations(t)
}

func TestService_VoteRepeatIsNoop(t *testing.T) {
	ctx := context.Background()
	ledger := &ledgerMock{owner: 1, current: domain.Liked}
	ledger.On("Apply", ctx, int64(10), int64(2)).Return(domain.VoteCounts{Up: 1}, nil).Once()

	result, err := newService(ledger).Vote(ctx, 10, 2, domain.Like)

	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, domain.Liked, result.State)
	assert.Equal(t, domain.VoteCounts{Up: 1}, result.Counts)
}

func TestService_VoteRejectsOwner(t *testing.T) {
	ctx := context.Background()
	ledger := &ledgerMock{owner: 7, current: domain.NotVoted}
	ledger.On("Apply", ctx, int64(10), int64(7)).Return(domain.VoteCounts{}, nil).Once()

	_, err := newService(ledger).Vote(ctx, 10, 7, domain.Like)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSelfVote)
	var selfVote *SelfVoteError
	require.True(t, errors.As(err, &selfVote))
	assert.Equal(t, int64(10), selfVote.MovieID)
	assert.Equal(t, int64(7), selfVote.UserID)
	assert.Equal(t, domain.NotVoted, ledger.decided)
}

func TestService_VoteInvalidActionSkipsLedger(t *testing.T) {
	ledger := &ledgerMock{}

	_, err := newService(ledger).Vote(context.Background(), 10, 2, domain.Action("upvote"))

	assert.ErrorIs(t, err, ErrInvalidAction)
	ledger.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_VotePropagatesLedgerError(t *testing.T) {
	ctx := context.Background()
	ledger := &ledgerMock{}
	ledger.On("Apply", ctx, int64(10), int64(2)).Return(domain.VoteCounts{}, repository.ErrNotFound).Once()

	_, err := newService(ledger).Vote(ctx, 10, 2, domain.Like)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}
