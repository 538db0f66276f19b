package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gamestarter/internal/common"
	"github.com/dmitrijs2005/gamestarter/internal/dbx"
	"github.com/dmitrijs2005/gamestarter/internal/server/models"
)

const selectUser = `SELECT id, name, email, nickname, password_hash, profile_id, created_at, last_login
		 FROM users`

// emailKey is the unique constraint on users.email.
const emailKey = "users_email_key"

// writeError maps a violation of emailKey to ErrorDuplicateEmail and wraps
// everything else, other unique constraints included.
func writeError(err error) error {
	if dbx.IsUniqueViolation(err) && dbx.ConstraintName(err) == emailKey {
		return common.ErrorDuplicateEmail
	}
	return fmt.Errorf("db error: %w", err)
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func userFields(u *models.User) dbx.Fields {
	return dbx.Fields{
		"id":            &u.ID,
		"name":          &u.Name,
		"email":         &u.Email,
		"nickname":      &u.Nickname,
		"password_hash": &u.PasswordHash,
		"profile_id":    &u.ProfileID,
		"created_at":    &u.CreatedAt,
		"last_login":    &u.LastLogin,
	}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (name, email, nickname, password_hash, profile_id, created_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Nickname, user.PasswordHash, user.ProfileID,
		user.CreatedAt, user.LastLogin).Scan(&user.ID)

	if err != nil {
		return nil, writeError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, selectUser+`
		 WHERE id = $1`, id)
}

// GetByEmail matches email exactly; callers canonicalise it first.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+`
		 WHERE email = $1`, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	user, err := dbx.FirstNamed(rows, userFields)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+`
		 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	list, err := dbx.CollectNamed(rows, userFields)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

// Update writes only the supplied fields. Nothing is sent to the database
// when changes is empty.
func (r *PostgresRepository) Update(ctx context.Context, id int64, changes models.UserChanges) error {
	var (
		sets []string
		args []any
	)

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if changes.Name != nil {
		add("name", *changes.Name)
	}
	if changes.Email != nil {
		add("email", *changes.Email)
	}
	if changes.PasswordHash != nil {
		add("password_hash", *changes.PasswordHash)
	}
	if changes.Nickname != nil {
		add("nickname", *changes.Nickname)
	}
	if changes.ProfileID != nil {
		add("profile_id", *changes.ProfileID)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return writeError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) (bool, error) {
	return r.exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, ts, id)
}

// exec reports whether any row was affected.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return n > 0, nil
}
