// Package users stores accounts: the username, the client-generated salt and
// the verifier of the master key. The server never sees the key itself.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/dbx"
	"github.com/dmitrijs2005/paykeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE unique_violation
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create yields common.ErrorAlreadyExists when the username is taken.
func (r *PostgresRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	const q = `
		INSERT INTO users (username, salt, master_key_verifier)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, q, u.UserName, u.Salt, u.Verifier).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: user %q", common.ErrorAlreadyExists, u.UserName)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) FindByName(ctx context.Context, userName string) (*models.User, error) {
	const q = `
		SELECT id, username, salt, master_key_verifier, created_at
		FROM users
		WHERE username = $1`

	u := &models.User{}
	err := r.db.QueryRowContext(ctx, q, userName).Scan(&u.ID, &u.UserName, &u.Salt, &u.Verifier, &u.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, common.ErrorNotFound
	case err != nil:
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}
