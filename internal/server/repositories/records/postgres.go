package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/dbx"
	"github.com/dmitrijs2005/paykeeper/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID, entity string) ([]*models.Record, error) {
	query := `
		SELECT id, data, version, created_at, updated_at FROM records
		WHERE user_id = $1 AND entity = $2 AND NOT deleted
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, entity)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []*models.Record
	for rows.Next() {
		item := models.Record{UserID: userID, Entity: entity}
		if err := rows.Scan(&item.ID, &item.Data, &item.Version, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, entity, id string) (*models.Record, error) {
	query := `
		SELECT data, version, created_at, updated_at FROM records
		WHERE user_id = $1 AND entity = $2 AND id = $3 AND NOT deleted
	`
	item := &models.Record{UserID: userID, Entity: entity, ID: id}
	err := r.db.QueryRowContext(ctx, query, userID, entity, id).
		Scan(&item.Data, &item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.Record) (*models.Record, error) {
	query := `
		INSERT INTO records (user_id, entity, id, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, entity, id)
		DO UPDATE SET
			data = EXCLUDED.data,
			version = records.version + 1,
			deleted = FALSE,
			updated_at = now()
			WHERE records.deleted
		RETURNING version, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, rec.UserID, rec.Entity, rec.ID, rec.Data).
		Scan(&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", common.ErrorAlreadyExists, rec.Entity, rec.ID)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rec.Deleted = false
	return rec, nil
}

func (r *PostgresRepository) Update(ctx context.Context, rec *models.Record, baseVersion int64) (*models.Record, error) {
	query := `
		UPDATE records SET data = $4, version = version + 1, updated_at = now()
		WHERE user_id = $1 AND entity = $2 AND id = $3 AND NOT deleted
			AND ($5::bigint = 0 OR version = $5::bigint)
		RETURNING version, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, rec.UserID, rec.Entity, rec.ID, rec.Data, baseVersion).
		Scan(&rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.missed(ctx, rec.UserID, rec.Entity, rec.ID, baseVersion)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, entity, id string, baseVersion int64) error {
	query := `
		UPDATE records SET deleted = TRUE, version = version + 1, updated_at = now()
		WHERE user_id = $1 AND entity = $2 AND id = $3 AND NOT deleted
			AND ($4::bigint = 0 OR version = $4::bigint)
	`
	res, err := r.db.ExecContext(ctx, query, userID, entity, id, baseVersion)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return r.missed(ctx, userID, entity, id, baseVersion)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// missed explains why a conditional write touched no row.
func (r *PostgresRepository) missed(ctx context.Context, userID, entity, id string, baseVersion int64) error {
	query := `
		SELECT version, deleted FROM records
		WHERE user_id = $1 AND entity = $2 AND id = $3
	`
	var (
		version int64
		deleted bool
	)
	err := r.db.QueryRowContext(ctx, query, userID, entity, id).Scan(&version, &deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s/%s", common.ErrorNotFound, entity, id)
		}
		return fmt.Errorf("db error: %w", err)
	}
	if deleted {
		return fmt.Errorf("%w: %s/%s is deleted", common.ErrVersionConflict, entity, id)
	}
	return fmt.Errorf("%w: base version %d, current %d", common.ErrVersionConflict, baseVersion, version)
}
