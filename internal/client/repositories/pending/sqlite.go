package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/client/models"
	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/dbx"
	"github.com/dmitrijs2005/paykeeper/internal/records"
)

const selectColumns = `seq, pending_id, entity, action, target_id, data, base_version, timestamp, attempts, status, error`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, p *models.PendingChange) error {
	if !p.Action.Valid() {
		return fmt.Errorf("invalid action %q", p.Action)
	}
	data, err := records.Encode(p.Data)
	if err != nil {
		return err
	}
	status := p.Status
	if status == "" {
		status = models.StatusPending
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_changes (pending_id, entity, action, target_id, data, base_version, timestamp, attempts, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.PendingID, string(p.Entity), string(p.Action), p.TargetID, string(data), p.BaseVersion,
		p.Timestamp.UTC().Format(time.RFC3339Nano), p.Attempts, string(status), p.Error)
	if err != nil {
		return fmt.Errorf("failed to insert pending change: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read pending change seq: %w", err)
	}
	p.Seq = seq
	p.Status = status
	return nil
}

func (r *SQLiteRepository) ListActive(ctx context.Context) ([]*models.PendingChange, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM pending_changes WHERE status = 'pending' ORDER BY seq`)
}

func (r *SQLiteRepository) ListQuarantined(ctx context.Context) ([]*models.PendingChange, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM pending_changes WHERE status <> 'pending' ORDER BY seq`)
}

func (r *SQLiteRepository) Get(ctx context.Context, pendingID string) (*models.PendingChange, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM pending_changes WHERE pending_id = ?`, pendingID)
	p, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending change %s: %w", pendingID, err)
	}
	return p, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, p *models.PendingChange) error {
	data, err := records.Encode(p.Data)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_changes
		   SET attempts = ?, status = ?, error = ?, base_version = ?, data = ?
		 WHERE pending_id = ?
	`, p.Attempts, string(p.Status), p.Error, p.BaseVersion, string(data), p.PendingID)
	if err != nil {
		return fmt.Errorf("failed to update pending change %s: %w", p.PendingID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, pendingID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_changes WHERE pending_id = ?`, pendingID); err != nil {
		return fmt.Errorf("failed to delete pending change %s: %w", pendingID, err)
	}
	return nil
}

func (r *SQLiteRepository) RebaseVersion(ctx context.Context, entity records.Entity, targetID string, afterSeq, version int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pending_changes SET base_version = ?
		 WHERE entity = ? AND target_id = ? AND seq > ? AND status = 'pending'
	`, version, string(entity), targetID, afterSeq)
	if err != nil {
		return fmt.Errorf("failed to rebase pending changes for %s[%s]: %w", entity, targetID, err)
	}
	return nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string) ([]*models.PendingChange, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending changes: %w", err)
	}
	defer rows.Close()

	result := []*models.PendingChange{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending change: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending changes: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.PendingChange, error) {
	var (
		p      models.PendingChange
		data   string
		ts     string
		entity string
		action string
		status string
	)
	if err := s.Scan(&p.Seq, &p.PendingID, &entity, &action, &p.TargetID, &data,
		&p.BaseVersion, &ts, &p.Attempts, &status, &p.Error); err != nil {
		return nil, err
	}

	rec, err := records.Decode([]byte(data))
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("bad pending timestamp %q: %w", ts, err)
	}

	p.Entity = records.Entity(entity)
	p.Action = models.Action(action)
	p.Status = models.PendingStatus(status)
	p.Data = rec
	p.Timestamp = t
	return &p, nil
}
