// AngelaMos | 2026
// repository.go

package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/curator-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, r *Review) error
	Get(ctx context.Context, id string) (*Review, error)
	GetPending(ctx context.Context, profileID string) (*Review, error)
	Close(ctx context.Context, c Closure) error
	List(ctx context.Context, params ListParams) ([]Review, int, error)
	ListByProfile(ctx context.Context, profileID string) ([]Review, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

// Closure terminates a pending review.
type Closure struct {
	ID         string
	Status     Status
	Note       *string
	ReviewerID *string
	At         time.Time
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type reviewRow struct {
	ID          string  `db:"id"`
	ProfileID   string  `db:"profile_id"`
	Status      string  `db:"status"`
	Note        *string `db:"note"`
	ReviewerID  *string `db:"reviewer_id"`
	SubmittedAt int64   `db:"submitted_at"`
	ReviewedAt  *int64  `db:"reviewed_at"`
}

func (r reviewRow) toEntity() Review {
	return Review{
		ID:          r.ID,
		ProfileID:   r.ProfileID,
		Status:      Status(r.Status),
		Note:        r.Note,
		ReviewerID:  r.ReviewerID,
		SubmittedAt: core.FromMillis(r.SubmittedAt),
		ReviewedAt:  core.FromMillisPtr(r.ReviewedAt),
	}
}

const reviewColumns = `id, profile_id, status, note, reviewer_id, submitted_at, reviewed_at`

// Create inserts a pending review. The partial unique index on
// (profile_id) WHERE status = 'pending' turns a second live review into
// ErrAlreadyPending.
func (r *repository) Create(ctx context.Context, rv *Review) error {
	query := r.db.Rebind(`
		INSERT INTO submission_reviews (` + reviewColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		rv.ID,
		rv.ProfileID,
		string(rv.Status),
		rv.Note,
		rv.ReviewerID,
		core.ToMillis(rv.SubmittedAt),
		core.ToMillisPtr(rv.ReviewedAt),
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create review: %w", ErrAlreadyPending)
		}
		return fmt.Errorf("create review: %w", err)
	}

	return nil
}

func (r *repository) Get(ctx context.Context, id string) (*Review, error) {
	query := r.db.Rebind(`SELECT ` + reviewColumns + `
		FROM submission_reviews
		WHERE id = ?`)

	return r.getOne(ctx, "get review", query, id)
}

func (r *repository) GetPending(ctx context.Context, profileID string) (*Review, error) {
	query := r.db.Rebind(`SELECT ` + reviewColumns + `
		FROM submission_reviews
		WHERE profile_id = ? AND status = ?`)

	return r.getOne(ctx, "get pending review", query, profileID, string(StatusPending))
}

func (r *repository) getOne(ctx context.Context, op, query string, args ...any) (*Review, error) {
	var row reviewRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rv := row.toEntity()
	return &rv, nil
}

func (r *repository) Close(ctx context.Context, c Closure) error {
	query := r.db.Rebind(`
		UPDATE submission_reviews
		SET status = ?, note = ?, reviewer_id = ?, reviewed_at = ?
		WHERE id = ? AND status = ?`)

	result, err := r.db.ExecContext(ctx, query,
		string(c.Status),
		c.Note,
		c.ReviewerID,
		core.ToMillis(c.At),
		c.ID,
		string(StatusPending),
	)
	if err != nil {
		return fmt.Errorf("close review: %w", err)
	}

	return core.SwapApplied(result, "close review")
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Review, int, error) {
	params.Normalize()

	where := "1 = 1"
	var args []any
	if params.Status != "" {
		where = "status = ?"
		args = append(args, string(params.Status))
	}

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM submission_reviews WHERE ` + where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	query := r.db.Rebind(`SELECT ` + reviewColumns + `
		FROM submission_reviews
		WHERE ` + where + `
		ORDER BY submitted_at ASC, id ASC
		LIMIT ? OFFSET ?`)
	args = append(args, params.PageSize, params.Offset())

	var rows []reviewRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return toEntities(rows), total, nil
}

func (r *repository) ListByProfile(ctx context.Context, profileID string) ([]Review, error) {
	query := r.db.Rebind(`SELECT ` + reviewColumns + `
		FROM submission_reviews
		WHERE profile_id = ?
		ORDER BY submitted_at DESC, id DESC`)

	var rows []reviewRow
	if err := r.db.SelectContext(ctx, &rows, query, profileID); err != nil {
		return nil, fmt.Errorf("list profile reviews: %w", err)
	}

	return toEntities(rows), nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	query := `SELECT status, COUNT(*) AS n FROM submission_reviews GROUP BY status`

	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	counts := make(map[Status]int, len(rows))
	for _, row := range rows {
		counts[Status(row.Status)] = row.N
	}

	return counts, nil
}

func toEntities(rows []reviewRow) []Review {
	out := make([]Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out
}
