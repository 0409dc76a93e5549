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

type promptRepo struct {
	pool *pgxpool.Pool
}

// NewPromptRepository creates a new PromptRepository
func NewPromptRepository(pool *pgxpool.Pool) output.PromptRepository {
	return &promptRepo{pool: pool}
}

func (r *promptRepo) Create(ctx context.Context, p *domain.Prompt) error {
	query := `
		INSERT INTO prompts (id, name, domain, body, username, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Domain, p.Body, p.Username, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrPromptConflict
		}
		return fmt.Errorf("create prompt: %w", err)
	}
	return nil
}

func (r *promptRepo) List(ctx context.Context) ([]*domain.Prompt, error) {
	return r.list(ctx, `
		SELECT id, name, domain, body, username, created_at, updated_at
		FROM prompts
		ORDER BY updated_at DESC
	`)
}

func (r *promptRepo) ListByUsername(ctx context.Context, username string) ([]*domain.Prompt, error) {
	return r.list(ctx, `
		SELECT id, name, domain, body, username, created_at, updated_at
		FROM prompts
		WHERE username = $1
		ORDER BY updated_at DESC
	`, username)
}

func (r *promptRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Prompt, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	prompts := []*domain.Prompt{}
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prompt row: %w", err)
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prompt rows: %w", err)
	}
	return prompts, nil
}

func scanPrompt(row pgx.Row) (*domain.Prompt, error) {
	p := &domain.Prompt{}
	err := row.Scan(&p.ID, &p.Name, &p.Domain, &p.Body, &p.Username, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
