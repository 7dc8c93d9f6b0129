package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/petroslamb/movierama/internal/domain"
)

// UsersRepository stores accounts and verifies their passwords.
type UsersRepository struct {
	pool *pgxpool.Pool
	cost int
}

const userColumns = `id, username, password_hash, is_admin, joined_at`

// UserCreateParams bundles the fields required to create an account.
type UserCreateParams struct {
	Username string
	Password string
	IsAdmin  bool
}

// Create hashes the password and inserts a new user.
func (r *UsersRepository) Create(ctx context.Context, params UserCreateParams) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), r.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return domain.User{}, ErrPasswordTooLong
		}
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	query := fmt.Sprintf(`
        INSERT INTO users (username, password_hash, is_admin)
        VALUES ($1, $2, $3)
        RETURNING %s
    `, userColumns)

	user, err := scanUser(r.pool.QueryRow(ctx, query, params.Username, string(hash), params.IsAdmin))
	if err != nil {
		if isUniqueViolation(err, "users_username_key") {
			return domain.User{}, ErrDuplicateUsername
		}
		return domain.User{}, err
	}
	return user, nil
}

// Authenticate returns the user when the password matches its stored hash.
func (r *UsersRepository) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	user, err := r.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GetByID fetches a user by identifier.
func (r *UsersRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByUsername fetches a user by username.
func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// List returns every user ordered by username.
func (r *UsersRepository) List(ctx context.Context) ([]domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY username ASC`, userColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Delete removes a user. Their movies, votes and sessions go with them.
func (r *UsersRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		user domain.User
		hash string
	)
	if err := row.Scan(&user.ID, &user.Username, &hash, &user.IsAdmin, &user.JoinedAt); err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = []byte(hash)
	return user, nil
}
