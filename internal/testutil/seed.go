// AngelaMos | 2026
// seed.go

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var Categories = []string{"books", "products", "places"}

// SeedUser inserts an account and returns its id. The password hash is a
// placeholder; seeded accounts cannot log in.
func SeedUser(t *testing.T, db *sqlx.DB, email, role string) string {
	t.Helper()

	id := uuid.NewString()
	ms := Epoch.UnixMilli()

	_, err := db.ExecContext(context.Background(), db.Rebind(`
		INSERT INTO users (id, email, password_hash, name, role, token_version, created_at, updated_at)
		VALUES (?, ?, 'x', ?, ?, 0, ?, ?)`),
		id, email, "Seeded "+role, role, ms, ms,
	)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return id
}

// ProfileSeed describes a curator profile row. Zero values give a complete
// draft profile.
type ProfileSeed struct {
	Status           string
	DisplayName      string
	Title            string
	Bio              string
	AvatarURL        string
	LastSubmittedAt  *time.Time
	DetailsUpdatedAt time.Time
}

func SeedProfile(t *testing.T, db *sqlx.DB, userID string, s ProfileSeed) {
	t.Helper()

	if s.Status == "" {
		s.Status = "draft"
	}
	if s.DisplayName == "" {
		s.DisplayName = "Ada Reader"
	}
	if s.Title == "" {
		s.Title = "Librarian"
	}
	if s.Bio == "" {
		s.Bio = "Reads everything twice."
	}
	if s.AvatarURL == "" {
		s.AvatarURL = "https://img.example.com/ada.png"
	}
	if s.DetailsUpdatedAt.IsZero() {
		s.DetailsUpdatedAt = Epoch
	}

	var submitted *int64
	if s.LastSubmittedAt != nil {
		ms := s.LastSubmittedAt.UnixMilli()
		submitted = &ms
	}

	ms := Epoch.UnixMilli()
	_, err := db.ExecContext(context.Background(), db.Rebind(`
		INSERT INTO curator_profiles
			(user_id, display_name, title, bio, avatar_url, status,
			 last_submitted_at, details_updated_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		userID, s.DisplayName, s.Title, s.Bio, s.AvatarURL, s.Status,
		submitted, s.DetailsUpdatedAt.UnixMilli(), ms, ms,
	)
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

type PickSeed struct {
	Category  string
	Rank      *int
	Title     string
	Status    string
	UpdatedAt time.Time
}

func SeedPick(t *testing.T, db *sqlx.DB, profileID string, s PickSeed) string {
	t.Helper()

	if s.Status == "" {
		s.Status = "draft"
	}
	if s.Title == "" {
		s.Title = "Untitled"
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = Epoch
	}

	id := uuid.NewString()
	_, err := db.ExecContext(context.Background(), db.Rebind(`
		INSERT INTO picks (id, profile_id, category, rank, title, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		id, profileID, s.Category, s.Rank, s.Title, s.Status,
		Epoch.UnixMilli(), s.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		t.Fatalf("seed pick: %v", err)
	}

	return id
}

// SeedFullSet fills ranks 1..3 of every category with picks in status and
// returns their ids.
func SeedFullSet(t *testing.T, db *sqlx.DB, profileID, status string) []string {
	t.Helper()

	ids := make([]string, 0, len(Categories)*3)
	for _, category := range Categories {
		for rank := 1; rank <= 3; rank++ {
			ids = append(ids, SeedPick(t, db, profileID, PickSeed{
				Category: category,
				Rank:     Ptr(rank),
				Title:    category + " pick",
				Status:   status,
			}))
		}
	}

	return ids
}

// SeedInvite inserts a pending code.
func SeedInvite(t *testing.T, db *sqlx.DB, code, issuerID string, expiresAt time.Time, boundEmail *string) {
	t.Helper()

	_, err := db.ExecContext(context.Background(), db.Rebind(`
		INSERT INTO invite_codes (code, issuer_id, status, bound_email, expires_at, created_at)
		VALUES (?, ?, 'pending', ?, ?, ?)`),
		code, issuerID, boundEmail, expiresAt.UnixMilli(), Epoch.UnixMilli(),
	)
	if err != nil {
		t.Fatalf("seed invite: %v", err)
	}
}

// Count runs a COUNT(*) query written with ? placeholders.
func Count(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := db.GetContext(context.Background(), &n, db.Rebind(query), args...); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func Ptr[T any](v T) *T {
	return &v
}
