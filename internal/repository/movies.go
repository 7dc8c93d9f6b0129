package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/petroslamb/movierama/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `
    m.id,
    m.title,
    m.description,
    m.owner_id,
    u.username,
    m.created_at,
    m.updated_at
`

// Counts are derived from the live votes on every read.
const movieSummarySelect = `
    SELECT ` + movieColumns + `,
           COUNT(v.voter_id) FILTER (WHERE v.direction = 1)  AS up_count,
           COUNT(v.voter_id) FILTER (WHERE v.direction = -1) AS down_count
    FROM movies m
    JOIN users u ON u.id = m.owner_id
    LEFT JOIN votes v ON v.movie_id = m.id
`

const movieTitleConstraint = "movies_title_key"

// MovieCreateParams bundles the fields required to create a movie.
type MovieCreateParams struct {
	Title       string
	Description string
	OwnerID     int64
}

// MovieUpdateParams carries the owner-editable fields.
type MovieUpdateParams struct {
	Title       string
	Description string
}

// MovieListFilters narrows and orders a movie listing.
type MovieListFilters struct {
	OwnerID        *int64
	ExcludeOwnerID *int64
	Query          *string
	// GroupByOwner orders by owner username before recency.
	GroupByOwner bool
	Limit        int
	Offset       int
}

// Create inserts a new movie row and returns the stored entity.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	const query = `
        WITH inserted AS (
            INSERT INTO movies (title, description, owner_id)
            VALUES ($1, $2, $3)
            RETURNING *
        )
        SELECT ` + movieColumns + `
        FROM inserted m
        JOIN users u ON u.id = m.owner_id
    `

	movie, err := scanMovie(r.pool.QueryRow(ctx, query, params.Title, params.Description, params.OwnerID))
	if err != nil {
		if isUniqueViolation(err, movieTitleConstraint) {
			return domain.Movie{}, ErrDuplicateTitle
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// GetByID fetches a movie by its identifier.
func (r *MoviesRepository) GetByID(ctx context.Context, id int64) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies m JOIN users u ON u.id = m.owner_id WHERE m.id = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// GetByTitle fetches a movie by its exact title.
func (r *MoviesRepository) GetByTitle(ctx context.Context, title string) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies m JOIN users u ON u.id = m.owner_id WHERE m.title = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Movie{}, ErrNotFound
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// GetSummary fetches a movie together with its vote counts.
func (r *MoviesRepository) GetSummary(ctx context.Context, id int64) (domain.MovieSummary, error) {
	query := movieSummarySelect + ` WHERE m.id = $1 GROUP BY m.id, u.username`
	summary, err := scanMovieSummary(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MovieSummary{}, ErrNotFound
		}
		return domain.MovieSummary{}, err
	}
	return summary, nil
}

// Update changes title and description. Creation time is never touched.
func (r *MoviesRepository) Update(ctx context.Context, id int64, params MovieUpdateParams) (domain.Movie, error) {
	const query = `
        WITH updated AS (
            UPDATE movies
            SET title = $2, description = $3, updated_at = now()
            WHERE id = $1
            RETURNING *
        )
        SELECT ` + movieColumns + `
        FROM updated m
        JOIN users u ON u.id = m.owner_id
    `

	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id, params.Title, params.Description))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return domain.Movie{}, ErrNotFound
		case isUniqueViolation(err, movieTitleConstraint):
			return domain.Movie{}, ErrDuplicateTitle
		}
		return domain.Movie{}, err
	}
	return movie, nil
}

// Delete removes a movie; its votes are removed by the foreign key cascade.
func (r *MoviesRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns movies matching filters, newest first, with their vote counts.
// A non-positive Limit returns every match.
func (r *MoviesRepository) List(ctx context.Context, filters MovieListFilters) ([]domain.MovieSummary, error) {
	where, args := buildMovieWhere(filters)

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(movieSummarySelect)
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}
	queryBuilder.WriteString(" GROUP BY m.id, u.username")
	if filters.GroupByOwner {
		queryBuilder.WriteString(" ORDER BY u.username ASC, m.created_at DESC, m.id DESC")
	} else {
		queryBuilder.WriteString(" ORDER BY m.created_at DESC, m.id DESC")
	}
	if filters.Limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d", filters.Limit))
	}
	if filters.Offset > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" OFFSET %d", filters.Offset))
	}

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.MovieSummary, 0)
	for rows.Next() {
		summary, err := scanMovieSummary(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the number of movies matching filters. Limit and Offset are ignored.
func (r *MoviesRepository) Count(ctx context.Context, filters MovieListFilters) (int, error) {
	where, args := buildMovieWhere(filters)
	query := "SELECT COUNT(*) FROM movies m"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

func buildMovieWhere(filters MovieListFilters) ([]string, []interface{}) {
	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.OwnerID != nil {
		where = append(where, fmt.Sprintf("m.owner_id = %s", arg(*filters.OwnerID)))
	}
	if filters.ExcludeOwnerID != nil {
		where = append(where, fmt.Sprintf("m.owner_id <> %s", arg(*filters.ExcludeOwnerID)))
	}
	if filters.Query != nil && strings.TrimSpace(*filters.Query) != "" {
		q := "%" + escapeLike(strings.TrimSpace(*filters.Query)) + "%"
		p := arg(q)
		where = append(where, fmt.Sprintf("(m.title ILIKE %s OR m.description ILIKE %s)", p, p))
	}
	return where, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.OwnerID,
		&movie.OwnerName,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	if err != nil {
		return domain.Movie{}, err
	}
	return movie, nil
}

func scanMovieSummary(row pgx.Row) (domain.MovieSummary, error) {
	var summary domain.MovieSummary
	err := row.Scan(
		&summary.ID,
		&summary.Title,
		&summary.Description,
		&summary.OwnerID,
		&summary.OwnerName,
		&summary.CreatedAt,
		&summary.UpdatedAt,
		&summary.Counts.Up,
		&summary.Counts.Down,
	)
	if err != nil {
		return domain.MovieSummary{}, err
	}
	return summary, nil
}
