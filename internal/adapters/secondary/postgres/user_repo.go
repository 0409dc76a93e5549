package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dataset-hub-service/internal/core/domain"
	output "dataset-hub-service/internal/core/ports/output"
)

type userRepo struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) output.UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) Upsert(ctx context.Context, u *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (uid, email, name, username, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (uid) DO UPDATE
		SET email = EXCLUDED.email, name = EXCLUDED.name
		RETURNING uid, email, name, username, avatar, created_at
	`

	saved, err := scanUser(r.pool.QueryRow(ctx, query,
		u.UID, u.Email, u.Name, u.Username, u.Avatar, u.CreatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return saved, nil
}

func (r *userRepo) GetByUID(ctx context.Context, uid string) (*domain.User, error) {
	return r.get(ctx, `SELECT uid, email, name, username, avatar, created_at FROM users WHERE uid = $1`, uid)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.get(ctx, `SELECT uid, email, name, username, avatar, created_at FROM users WHERE username = $1`, username)
}

func (r *userRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return taken, nil
}

func (r *userRepo) get(ctx context.Context, query string, arg string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	if err := row.Scan(&u.UID, &u.Email, &u.Name, &u.Username, &u.Avatar, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}
