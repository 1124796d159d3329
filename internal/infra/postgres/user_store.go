package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/vinayakry63/lead-manager/internal/domain"
)

const userColumns = "id, email, first_name, last_name, password_hash, created_at"

func scanUser(row pgx.Row, u *domain.User) error {
	return row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt)
}

// CreateUser persists a new account. Returns *domain.ErrDuplicateEmail when
// the email is already registered.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	var out domain.User
	err := s.do(ctx, "create_user", func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx, `
			INSERT INTO users (id, email, first_name, last_name, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+userColumns,
			user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.CreatedAt,
		)
		if err := scanUser(row, &out); err != nil {
			if isUniqueViolation(err, "users_email_key") {
				return &domain.ErrDuplicateEmail{Email: user.Email}
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUserByEmail returns (nil, nil) when no such account exists.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

// GetUserByID returns (nil, nil) when no such account exists.
func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (s *Store) getUser(ctx context.Context, query, arg string) (*domain.User, error) {
	var out domain.User
	found := false
	err := s.do(ctx, "get_user", func(ctx context.Context) error {
		if err := scanUser(s.pool.QueryRow(ctx, query, arg), &out); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &out, nil
}
