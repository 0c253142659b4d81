// AngelaMos | 2026
// repository.go

package pick

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/curator-backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Pick) error
	Get(ctx context.Context, profileID, id string) (*Pick, error)
	ListByProfile(ctx context.Context, profileID string) ([]Pick, error)
	ListByProfileAndStatus(ctx context.Context, profileID string, status Status) ([]Pick, error)
	Update(ctx context.Context, p *Pick) error
	Delete(ctx context.Context, profileID, id string) error
	Transition(ctx context.Context, profileID string, from []Status, to Status) (int64, error)
	Flag(ctx context.Context, profileID string, ids []string, note string) (int64, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type pickRow struct {
	ID          string  `db:"id"`
	ProfileID   string  `db:"profile_id"`
	Category    string  `db:"category"`
	Rank        *int    `db:"rank"`
	Title       string  `db:"title"`
	Description string  `db:"description"`
	LinkURL     string  `db:"link_url"`
	ImageURL    string  `db:"image_url"`
	Status      string  `db:"status"`
	ReviewNote  *string `db:"review_note"`
	CreatedAt   int64   `db:"created_at"`
	UpdatedAt   int64   `db:"updated_at"`
}

func (r pickRow) toEntity() Pick {
	return Pick{
		ID:          r.ID,
		ProfileID:   r.ProfileID,
		Category:    Category(r.Category),
		Rank:        r.Rank,
		Title:       r.Title,
		Description: r.Description,
		LinkURL:     r.LinkURL,
		ImageURL:    r.ImageURL,
		Status:      Status(r.Status),
		ReviewNote:  r.ReviewNote,
		CreatedAt:   core.FromMillis(r.CreatedAt),
		UpdatedAt:   core.FromMillis(r.UpdatedAt),
	}
}

const pickColumns = `id, profile_id, category, rank, title, description,
	link_url, image_url, status, review_note, created_at, updated_at`

const pickOrder = `ORDER BY category, CASE WHEN rank IS NULL THEN 1 ELSE 0 END, rank, created_at`

func (r *repository) Create(ctx context.Context, p *Pick) error {
	query := r.db.Rebind(`
		INSERT INTO picks (` + pickColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.ProfileID,
		string(p.Category),
		p.Rank,
		p.Title,
		p.Description,
		p.LinkURL,
		p.ImageURL,
		string(p.Status),
		p.ReviewNote,
		core.ToMillis(p.CreatedAt),
		core.ToMillis(p.UpdatedAt),
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create pick: %w", ErrRankTaken)
		}
		return fmt.Errorf("create pick: %w", err)
	}

	return nil
}

func (r *repository) Get(ctx context.Context, profileID, id string) (*Pick, error) {
	query := r.db.Rebind(`SELECT ` + pickColumns + `
		FROM picks
		WHERE id = ? AND profile_id = ?`)

	var row pickRow
	err := r.db.GetContext(ctx, &row, query, id, profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get pick: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get pick: %w", err)
	}

	p := row.toEntity()
	return &p, nil
}

func (r *repository) ListByProfile(ctx context.Context, profileID string) ([]Pick, error) {
	query := r.db.Rebind(`SELECT ` + pickColumns + `
		FROM picks
		WHERE profile_id = ? ` + pickOrder)

	return r.list(ctx, "list picks", query, profileID)
}

func (r *repository) ListByProfileAndStatus(
	ctx context.Context,
	profileID string,
	status Status,
) ([]Pick, error) {
	query := r.db.Rebind(`SELECT ` + pickColumns + `
		FROM picks
		WHERE profile_id = ? AND status = ? ` + pickOrder)

	return r.list(ctx, "list picks by status", query, profileID, string(status))
}

func (r *repository) list(ctx context.Context, op, query string, args ...any) ([]Pick, error) {
	var rows []pickRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	picks := make([]Pick, 0, len(rows))
	for _, row := range rows {
		picks = append(picks, row.toEntity())
	}

	return picks, nil
}

func (r *repository) Update(ctx context.Context, p *Pick) error {
	query := r.db.Rebind(`
		UPDATE picks
		SET category = ?, rank = ?, title = ?, description = ?, link_url = ?,
		    image_url = ?, status = ?, review_note = ?, updated_at = ?
		WHERE id = ? AND profile_id = ?`)

	result, err := r.db.ExecContext(ctx, query,
		string(p.Category),
		p.Rank,
		p.Title,
		p.Description,
		p.LinkURL,
		p.ImageURL,
		string(p.Status),
		p.ReviewNote,
		core.ToMillis(p.UpdatedAt),
		p.ID,
		p.ProfileID,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update pick: %w", ErrRankTaken)
		}
		return fmt.Errorf("update pick: %w", err)
	}

	return core.RowsAffected(result, "update pick")
}

func (r *repository) Delete(ctx context.Context, profileID, id string) error {
	query := r.db.Rebind(`DELETE FROM picks WHERE id = ? AND profile_id = ?`)

	result, err := r.db.ExecContext(ctx, query, id, profileID)
	if err != nil {
		return fmt.Errorf("delete pick: %w", err)
	}

	return core.RowsAffected(result, "delete pick")
}

// Transition moves every pick of the profile currently in one of from to
// status to. It deliberately leaves updated_at untouched.
func (r *repository) Transition(
	ctx context.Context,
	profileID string,
	from []Status,
	to Status,
) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`
		UPDATE picks
		SET status = ?
		WHERE profile_id = ? AND status IN (?)`,
		string(to), profileID, statusStrings(from))
	if err != nil {
		return 0, fmt.Errorf("transition picks: %w", err)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("transition picks: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("transition picks: %w", err)
	}

	return n, nil
}

// Flag marks individual picks under review as rejected with a note.
func (r *repository) Flag(
	ctx context.Context,
	profileID string,
	ids []string,
	note string,
) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(`
		UPDATE picks
		SET status = ?, review_note = ?
		WHERE profile_id = ? AND status = ? AND id IN (?)`,
		string(StatusRejected), note, profileID, string(StatusPendingReview), ids)
	if err != nil {
		return 0, fmt.Errorf("flag picks: %w", err)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("flag picks: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("flag picks: %w", err)
	}

	return n, nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	query := `SELECT status, COUNT(*) AS n FROM picks GROUP BY status`

	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count picks: %w", err)
	}

	counts := make(map[Status]int, len(rows))
	for _, row := range rows {
		counts[Status(row.Status)] = row.N
	}

	return counts, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
