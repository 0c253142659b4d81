// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/curator-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
	IncrementTokenVersion(ctx context.Context, id string, at time.Time) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	Purge(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	CountByRole(ctx context.Context) (map[string]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Name         string `db:"name"`
	Role         string `db:"role"`
	TokenVersion int    `db:"token_version"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
	DeletedAt    *int64 `db:"deleted_at"`
}

func (r userRow) toEntity() User {
	return User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Name:         r.Name,
		Role:         r.Role,
		TokenVersion: r.TokenVersion,
		CreatedAt:    core.FromMillis(r.CreatedAt),
		UpdatedAt:    core.FromMillis(r.UpdatedAt),
		DeletedAt:    core.FromMillisPtr(r.DeletedAt),
	}
}

const userColumns = `id, email, password_hash, name, role, token_version,
	created_at, updated_at, deleted_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := r.db.Rebind(`
		INSERT INTO users (id, email, password_hash, name, role, token_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.TokenVersion,
		core.ToMillis(user.CreatedAt),
		core.ToMillis(user.UpdatedAt),
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + `
		FROM users
		WHERE id = ? AND deleted_at IS NULL`)

	return r.getOne(ctx, "get user", query, id)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + `
		FROM users
		WHERE email = ? AND deleted_at IS NULL`)

	return r.getOne(ctx, "get user by email", query, email)
}

func (r *repository) getOne(ctx context.Context, op, query string, arg any) (*User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := row.toEntity()
	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User, at time.Time) error {
	query := r.db.Rebind(`
		UPDATE users
		SET name = ?, role = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`)

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Role,
		core.ToMillis(at),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if err := core.RowsAffected(result, "update user"); err != nil {
		return err
	}

	user.UpdatedAt = at
	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE users
		SET password_hash = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`)

	result, err := r.db.ExecContext(ctx, query, passwordHash, core.ToMillis(at), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return core.RowsAffected(result, "update password")
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	query := r.db.Rebind(`
		UPDATE users
		SET token_version = token_version + 1, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`)

	result, err := r.db.ExecContext(ctx, query, core.ToMillis(at), id)
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return core.RowsAffected(result, "increment token version")
}

func (r *repository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	query := r.db.Rebind(`
		UPDATE users
		SET deleted_at = ?, updated_at = ?, token_version = token_version + 1
		WHERE id = ? AND deleted_at IS NULL`)

	ms := core.ToMillis(at)
	result, err := r.db.ExecContext(ctx, query, ms, ms, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return core.RowsAffected(result, "delete user")
}

// Purge removes the row outright. Only accounts that never completed
// registration are purged; refresh tokens cascade.
func (r *repository) Purge(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM users WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("purge user: %w", err)
	}

	return core.RowsAffected(result, "purge user")
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"deleted_at IS NULL"}
	var args []any

	if params.Search != "" {
		conditions = append(conditions,
			`(LOWER(email) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(strings.ToLower(params.Search)) + "%"
		args = append(args, pattern, pattern)
	}

	if params.Role != "" {
		conditions = append(conditions, "role = ?")
		args = append(args, params.Role)
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := r.db.Rebind("SELECT COUNT(*) FROM users WHERE " + whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := r.db.Rebind(`SELECT ` + userColumns + `
		FROM users
		WHERE ` + whereClause + `
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`)

	args = append(args, params.PageSize, params.Offset())

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	users := make([]User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toEntity())
	}

	return users, total, nil
}

func (r *repository) CountByRole(ctx context.Context) (map[string]int, error) {
	query := `SELECT role, COUNT(*) AS n FROM users WHERE deleted_at IS NULL GROUP BY role`

	var rows []struct {
		Role string `db:"role"`
		N    int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.N
	}

	return counts, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
