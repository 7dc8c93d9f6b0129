package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/petroslamb/movierama/internal/store"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateTitle is returned when another movie already uses the title.
	ErrDuplicateTitle = errors.New("repository: movie title already exists")
	// ErrDuplicateUsername is returned when the username is taken.
	ErrDuplicateUsername = errors.New("repository: username already exists")
	// ErrInvalidCredentials is returned when a username/password pair does not match.
	ErrInvalidCredentials = errors.New("repository: invalid credentials")
	// ErrPasswordTooLong is returned when the password exceeds what bcrypt can hash.
	ErrPasswordTooLong = errors.New("repository: password too long")
)

const uniqueViolation = "23505"

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Users    *UsersRepository
	Movies   *MoviesRepository
	Votes    *VotesRepository
	Sessions *SessionsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Users:    &UsersRepository{pool: pool, cost: bcrypt.DefaultCost},
		Movies:   &MoviesRepository{pool: pool},
		Votes:    &VotesRepository{pool: pool},
		Sessions: &SessionsRepository{pool: pool},
	}
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}
