package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dataset-hub-service/internal/core/domain"
	output "dataset-hub-service/internal/core/ports/output"
)

const datasetColumns = `
	id, uid, username, name, description, domain, file_type, license,
	upload_type, dimensions, vector_database, model_name, files, is_folder,
	clicks, created_at, updated_at`

type datasetRepo struct {
	pool *pgxpool.Pool
}

// NewDatasetRepository creates a new DatasetRepository
func NewDatasetRepository(pool *pgxpool.Pool) output.DatasetRepository {
	return &datasetRepo{pool: pool}
}

func (r *datasetRepo) Create(ctx context.Context, ds *domain.Dataset) error {
	files, err := json.Marshal(ds.Files)
	if err != nil {
		return fmt.Errorf("encode dataset files: %w", err)
	}
	dims, vdb, model := vectorColumns(ds.Vectorized)

	query := `
		INSERT INTO datasets (` + datasetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = r.pool.Exec(ctx, query,
		ds.ID, ds.UID, ds.Username, ds.Name, ds.Description, ds.Domain, ds.FileType, ds.License,
		ds.UploadType, dims, vdb, model, files, ds.IsFolder,
		ds.Clicks, ds.CreatedAt, ds.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrNameConflict
		}
		return fmt.Errorf("create dataset: %w", err)
	}
	return nil
}

func (r *datasetRepo) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE id = $1`

	ds, err := scanDataset(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("get dataset by id: %w", err)
	}
	return ds, nil
}

func (r *datasetRepo) GetByOwner(ctx context.Context, owner output.DatasetOwner) (*domain.Dataset, error) {
	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE uid = $1 AND lower(name) = lower($2)`
	key := owner.UID
	if key == "" {
		query = `SELECT ` + datasetColumns + ` FROM datasets WHERE username = $1 AND lower(name) = lower($2)`
		key = owner.Username
	}

	ds, err := scanDataset(r.pool.QueryRow(ctx, query, key, owner.Name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("get dataset by owner: %w", err)
	}
	return ds, nil
}

// ExistsByName compares names case-insensitively since blob keys are
// lower case.
func (r *datasetRepo) ExistsByName(ctx context.Context, uid, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM datasets WHERE uid = $1 AND lower(name) = lower($2))`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, uid, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check dataset name: %w", err)
	}
	return exists, nil
}

// UpdateFiles writes the stored files together with the upload type and
// vectorized settings they imply.
func (r *datasetRepo) UpdateFiles(ctx context.Context, ds *domain.Dataset) error {
	encoded, err := json.Marshal(ds.Files)
	if err != nil {
		return fmt.Errorf("encode dataset files: %w", err)
	}
	dims, vdb, model := vectorColumns(ds.Vectorized)

	query := `
		UPDATE datasets
		SET files = $1, upload_type = $2, dimensions = $3, vector_database = $4, model_name = $5, updated_at = NOW()
		WHERE id = $6
	`
	result, err := r.pool.Exec(ctx, query, encoded, ds.UploadType, dims, vdb, model, ds.ID)
	if err != nil {
		return fmt.Errorf("update dataset files: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrDatasetNotFound
	}
	return nil
}

func (r *datasetRepo) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrDatasetNotFound
	}
	return nil
}

// ListByFileType lists every dataset when fileType is empty.
func (r *datasetRepo) ListByFileType(ctx context.Context, fileType domain.FileType) ([]*domain.Dataset, error) {
	if fileType == "" {
		return r.list(ctx, `SELECT `+datasetColumns+` FROM datasets ORDER BY updated_at DESC`)
	}
	return r.list(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE file_type = $1 ORDER BY updated_at DESC`, fileType)
}

func (r *datasetRepo) ListByUID(ctx context.Context, uid string) ([]*domain.Dataset, error) {
	return r.list(ctx, `SELECT `+datasetColumns+` FROM datasets WHERE uid = $1 ORDER BY updated_at DESC`, uid)
}

func (r *datasetRepo) IncrementClicks(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `UPDATE datasets SET clicks = clicks + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment dataset clicks: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrDatasetNotFound
	}
	return nil
}

func (r *datasetRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Dataset, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	datasets := []*domain.Dataset{}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dataset row: %w", err)
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dataset rows: %w", err)
	}
	return datasets, nil
}

func vectorColumns(v *domain.VectorizedSettings) (*int, *string, *string) {
	if v == nil {
		return nil, nil, nil
	}
	return &v.Dimensions, &v.VectorDatabase, &v.ModelName
}

func scanDataset(row pgx.Row) (*domain.Dataset, error) {
	var (
		ds    domain.Dataset
		dims  *int
		vdb   *string
		model *string
		files []byte
	)
	err := row.Scan(
		&ds.ID, &ds.UID, &ds.Username, &ds.Name, &ds.Description, &ds.Domain, &ds.FileType, &ds.License,
		&ds.UploadType, &dims, &vdb, &model, &files, &ds.IsFolder,
		&ds.Clicks, &ds.CreatedAt, &ds.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(files, &ds.Files); err != nil {
		return nil, fmt.Errorf("decode dataset files: %w", err)
	}
	if ds.Files.Raw == nil {
		ds.Files.Raw = []string{}
	}
	if ds.Files.Vectorized == nil {
		ds.Files.Vectorized = []string{}
	}
	if dims != nil {
		ds.Vectorized = &domain.VectorizedSettings{Dimensions: *dims}
		if vdb != nil {
			ds.Vectorized.VectorDatabase = *vdb
		}
		if model != nil {
			ds.Vectorized.ModelName = *model
		}
	}
	return &ds, nil
}
