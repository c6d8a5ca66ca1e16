package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/dbx"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

var now = time.Now

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetAll(ctx context.Context, collection records.Entity) ([]records.Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM records WHERE collection = ? ORDER BY rowid`, string(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", collection, err)
	}
	defer rows.Close()

	result := []records.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", collection, err)
		}
		rec, err := records.Decode([]byte(data))
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", collection, err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, collection records.Entity, id string) (records.Record, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM records WHERE collection = ? AND id = ?`, string(collection), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", collection, id, err)
	}
	return records.Decode([]byte(data))
}

func (r *SQLiteRepository) Save(ctx context.Context, collection records.Entity, rec records.Record) (records.Record, error) {
	out, err := records.Normalize(rec)
	if err != nil {
		return nil, err
	}
	if out.ID() == "" {
		out.SetID(records.NewTemporaryID())
	}
	ts := now().UTC().Format(time.RFC3339Nano)
	out[records.FieldUpdatedAt] = ts

	data, err := records.Encode(out)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO records (collection, id, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, string(collection), out.ID(), string(data), ts)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s[%s]: %w", collection, out.ID(), err)
	}
	return out, nil
}

func (r *SQLiteRepository) SaveAll(ctx context.Context, collection records.Entity, recs []records.Record) error {
	for _, rec := range recs {
		if _, err := r.Save(ctx, collection, rec); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, collection records.Entity, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND id = ?`, string(collection), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s[%s]: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context, collection records.Entity) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, string(collection)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", collection, err)
	}
	return nil
}

func (r *SQLiteRepository) IDs(ctx context.Context, collection records.Entity) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM records WHERE collection = ? ORDER BY rowid`, string(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", collection, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
