package voting

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petroslamb/movierama/internal/domain"
	"github.com/petroslamb/movierama/internal/repository"
	"github.com/petroslamb/movierama/internal/testutil"
)

func TestService_LikeDislikeRemoveScenario(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewWithPool(testutil.NewPool(t))
	svc := New(repo.Votes, log.New(io.Discard, "", 0))

	userA, err := repo.Users.Create(ctx, repository.UserCreateParams{Username: "testuser", Password: "12345678"})
	require.NoError(t, err)
	userB, err := repo.Users.Create(ctx, repository.UserCreateParams{Username: "testuser2", Password: "12345678"})
	require.NoError(t, err)
	movie, err := repo.Movies.Create(ctx, repository.MovieCreateParams{
		Title:       "Test Movie",
		Description: "Test Movie Description",
		OwnerID:     userA.ID,
	})
	require.NoError(t, err)

	steps := []struct {
		action domain.Action
		want   domain.VoteCounts
	}{
		{domain.Like, domain.VoteCounts{Up: 1, Down: 0}},
		{domain.Like, domain.VoteCounts{Up: 1, Down: 0}},
		{domain.Dislike, domain.VoteCounts{Up: 0, Down: 1}},
		{domain.RemoveVote, domain.VoteCounts{Up: 0, Down: 0}},
	}
	for _, step := range steps {
		result, err := svc.Vote(ctx, movie.ID, userB.ID, step.action)
		require.NoError(t, err, "action %s", step.action)
		assert.Equal(t, step.want, result.Counts, "action %s", step.action)

		counts, err := repo.Votes.Counts(ctx, movie.ID)
		require.NoError(t, err)
		assert.Equal(t, step.want, counts, "stored counts after %s", step.action)
	}

	_, err = svc.Vote(ctx, movie.ID, userA.ID, domain.Like)
	assert.ErrorIs(t, err, ErrSelfVote)
	counts, err := repo.Votes.Counts(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteCounts{}, counts)
	state, err := repo.Votes.State(ctx, movie.ID, userA.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NotVoted, state)
}
