package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/petroslamb/movierama/internal/domain"
	"github.com/petroslamb/movierama/internal/store"
)

// VotesRepository is the persistent vote ledger: at most one row per
// (movie, voter) pair, counts derived from those rows.
type VotesRepository struct {
	pool *pgxpool.Pool
}

// DecideFunc receives the movie owner and the voter's current state and
// returns the state to store. Returning an error aborts the transaction.
type DecideFunc func(ownerID int64, current domain.VoteState) (domain.VoteState, error)

// VotedMovie is a movie seen through one voter's vote on it.
type VotedMovie struct {
	VoterID   int64
	Direction domain.Direction
	Movie     domain.Movie
}

// Apply reads the voter's record for the movie, asks decide for the target
// state and writes it, all in one transaction. The movie row is locked for
// the duration so concurrent votes on it serialize. It returns the counts
// as committed by this transaction.
func (r *VotesRepository) Apply(ctx context.Context, movieID, voterID int64, decide DecideFunc) (domain.VoteCounts, error) {
	var counts domain.VoteCounts
	err := store.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var ownerID int64
		err := tx.QueryRow(ctx, `SELECT owner_id FROM movies WHERE id = $1 FOR UPDATE`, movieID).Scan(&ownerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock movie: %w", err)
		}

		current, err := voteState(ctx, tx, movieID, voterID)
		if err != nil {
			return err
		}

		next, err := decide(ownerID, current)
		if err != nil {
			return err
		}

		if next != current {
			if err := writeVote(ctx, tx, movieID, voterID, next); err != nil {
				return err
			}
		}

		counts, err = countVotes(ctx, tx, movieID)
		return err
	})
	if err != nil {
		return domain.VoteCounts{}, err
	}
	return counts, nil
}

// State returns the voter's current state on a movie.
func (r *VotesRepository) State(ctx context.Context, movieID, voterID int64) (domain.VoteState, error) {
	return voteState(ctx, r.pool, movieID, voterID)
}

// Counts returns the live up/down counts for a movie.
func (r *VotesRepository) Counts(ctx context.Context, movieID int64) (domain.VoteCounts, error) {
	return countVotes(ctx, r.pool, movieID)
}

// StatesForVoter returns the voter's state for each of movieIDs that has a
// vote. Movies missing from the map are NotVoted.
func (r *VotesRepository) StatesForVoter(ctx context.Context, voterID int64, movieIDs []int64) (map[int64]domain.VoteState, error) {
	states := make(map[int64]domain.VoteState, len(movieIDs))
	if len(movieIDs) == 0 {
		return states, nil
	}

	const query = `
        SELECT movie_id, direction
        FROM votes
        WHERE voter_id = $1 AND movie_id = ANY($2)
    `
	rows, err := r.pool.Query(ctx, query, voterID, movieIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			movieID   int64
			direction domain.Direction
		)
		if err := rows.Scan(&movieID, &direction); err != nil {
			return nil, err
		}
		states[movieID] = domain.StateOf(direction)
	}
	return states, rows.Err()
}

// ListVotedMovies returns every vote joined with its movie, newest movie first.
func (r *VotesRepository) ListVotedMovies(ctx context.Context) ([]VotedMovie, error) {
	const query = `
        SELECT v.voter_id, v.direction, ` + movieColumns + `
        FROM votes v
        JOIN movies m ON m.id = v.movie_id
        JOIN users u ON u.id = m.owner_id
        ORDER BY m.created_at DESC, m.id DESC
    `
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	voted := make([]VotedMovie, 0)
	for rows.Next() {
		var vm VotedMovie
		err := rows.Scan(
			&vm.VoterID,
			&vm.Direction,
			&vm.Movie.ID,
			&vm.Movie.Title,
			&vm.Movie.Description,
			&vm.Movie.OwnerID,
			&vm.Movie.OwnerName,
			&vm.Movie.CreatedAt,
			&vm.Movie.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		voted = append(voted, vm)
	}
	return voted, rows.Err()
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func voteState(ctx context.Context, q querier, movieID, voterID int64) (domain.VoteState, error) {
	var direction domain.Direction
	err := q.QueryRow(ctx, `SELECT direction FROM votes WHERE movie_id = $1 AND voter_id = $2`, movieID, voterID).Scan(&direction)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotVoted, nil
		}
		return domain.NotVoted, fmt.Errorf("read vote: %w", err)
	}
	return domain.StateOf(direction), nil
}

func writeVote(ctx context.Context, tx pgx.Tx, movieID, voterID int64, next domain.VoteState) error {
	direction, ok := next.Direction()
	if !ok {
		if _, err := tx.Exec(ctx, `DELETE FROM votes WHERE movie_id = $1 AND voter_id = $2`, movieID, voterID); err != nil {
			return fmt.Errorf("delete vote: %w", err)
		}
		return nil
	}

	const upsert = `
        INSERT INTO votes (movie_id, voter_id, direction)
        VALUES ($1, $2, $3)
        ON CONFLICT (movie_id, voter_id)
        DO UPDATE SET direction = EXCLUDED.direction, updated_at = now()
    `
	if _, err := tx.Exec(ctx, upsert, movieID, voterID, int16(direction)); err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}
	return nil
}

func countVotes(ctx context.Context, q querier, movieID int64) (domain.VoteCounts, error) {
	const query = `
        SELECT COUNT(*) FILTER (WHERE direction = 1),
               COUNT(*) FILTER (WHERE direction = -1)
        FROM votes
        WHERE movie_id = $1
    `
	var counts domain.VoteCounts
	if err := q.QueryRow(ctx, query, movieID).Scan(&counts.Up, &counts.Down); err != nil {
		return domain.VoteCounts{}, fmt.Errorf("count votes: %w", err)
	}
	return counts, nil
}
