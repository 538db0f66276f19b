// Package logins persists login audit records in PostgreSQL.
package logins

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gamestarter/internal/common"
	"github.com/dmitrijs2005/gamestarter/internal/dbx"
	"github.com/dmitrijs2005/gamestarter/internal/server/models"
)

const recordColumns = `id, source_address, user_agent, logged_in_at, user_id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func recordFields(r *models.LoginRecord) dbx.Fields {
	return dbx.Fields{
		"id":             &r.ID,
		"source_address": &r.SourceAddress,
		"user_agent":     &r.UserAgent,
		"logged_in_at":   &r.LoggedInAt,
		"user_id":        &r.UserID,
	}
}

// Create inserts a record and returns it as stored, including the id and the
// timestamp assigned by the database.
func (r *PostgresRepository) Create(ctx context.Context, userID int64, sourceAddress, userAgent string) (*models.LoginRecord, error) {
	query :=
		`INSERT INTO login_records (source_address, user_agent, user_id)
		 VALUES ($1, $2, $3)
		 RETURNING ` + recordColumns

	rows, err := r.db.QueryContext(ctx, query, sourceAddress, userAgent, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	rec, err := dbx.FirstNamed(rows, recordFields)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.LoginRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM login_records WHERE id = $1`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	rec, err := dbx.FirstNamed(rows, recordFields)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]models.LoginRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM login_records
		 WHERE user_id = $1
		 ORDER BY logged_in_at DESC, id DESC`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]models.LoginRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM login_records
		 ORDER BY logged_in_at DESC, id DESC`
	return r.list(ctx, query)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.LoginRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	list, err := dbx.CollectNamed(rows, recordFields)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}
