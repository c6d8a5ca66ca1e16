package idmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/client/models"
	"github.com/dmitrijs2005/paykeeper/internal/dbx"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Put(ctx context.Context, m models.IDMapping) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO id_map (collection, local_id, remote_id, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, local_id) DO UPDATE SET remote_id = excluded.remote_id
	`, string(m.Entity), m.LocalID, m.RemoteID, m.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to map %s[%s]: %w", m.Entity, m.LocalID, err)
	}
	return nil
}

func (r *SQLiteRepository) Resolve(ctx context.Context, entity records.Entity, localID string) (string, bool, error) {
	var remoteID string
	err := r.db.QueryRowContext(ctx, `SELECT remote_id FROM id_map WHERE collection = ? AND local_id = ?`, string(entity), localID).Scan(&remoteID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve %s[%s]: %w", entity, localID, err)
	}
	return remoteID, true, nil
}

func (r *SQLiteRepository) List(ctx context.Context, entity records.Entity) ([]models.IDMapping, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT local_id, remote_id, created_at FROM id_map WHERE collection = ? ORDER BY created_at`, string(entity))
	if err != nil {
		return nil, fmt.Errorf("failed to list id map: %w", err)
	}
	defer rows.Close()

	var result []models.IDMapping
	for rows.Next() {
		m := models.IDMapping{Entity: entity}
		var ts string
		if err := rows.Scan(&m.LocalID, &m.RemoteID, &ts); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		result = append(result, m)
	}
	return result, rows.Err()
}
