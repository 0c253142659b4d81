// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/curation"
)

type CurationStats interface {
	Stats(ctx context.Context) (*curation.Stats, error)
}

type UserCounter interface {
	CountByRole(ctx context.Context) (map[string]int, error)
}

type SessionSweeper interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type InviteSweeper interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// HandlerConfig leaves the Redis fields nil when Redis is not configured.
type HandlerConfig struct {
	DB         *sql.DB
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	Curation   CurationStats
	Users      UserCounter
	Sessions   SessionSweeper
	Invites    InviteSweeper
}

type Handler struct {
	cfg HandlerConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

// RegisterRoutes expects authentication and the admin role.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/stats", h.Overview)
	r.Get("/admin/stats/curation", h.CurationStats)
	r.Post("/admin/maintenance", h.RunMaintenance)
}

// Overview is the moderation dashboard: where profiles and picks sit in
// the lifecycle, how many accounts exist, and whether the backing
// stores are up.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.cfg.Curation.Stats(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	accounts, err := h.cfg.Users.CountByRole(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, OverviewResponse{
		Curation: curation.ToStatsResponse(stats),
		Accounts: accounts,
		Backends: BackendsStatus{
			Database: h.databaseStatus(ctx),
			Redis:    h.redisStatus(ctx),
		},
		Runtime: readRuntime(),
	})
}

func (h *Handler) CurationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cfg.Curation.Stats(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, curation.ToStatsResponse(stats))
}

// RunMaintenance purges refresh tokens dead for over a day and marks
// lapsed invite codes expired. Both are idempotent.
func (h *Handler) RunMaintenance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessions, err := h.cfg.Sessions.PurgeExpiredSessions(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	invites, err := h.cfg.Invites.ExpireStale(ctx)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, MaintenanceResponse{SessionsPurged: sessions, InvitesExpired: invites})
}

func (h *Handler) databaseStatus(ctx context.Context) DatabaseStatus {
	if h.cfg.DB == nil {
		return DatabaseStatus{}
	}

	s := h.cfg.DB.Stats()
	return DatabaseStatus{
		Healthy:         h.cfg.DB.PingContext(ctx) == nil,
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
		WaitDuration:    s.WaitDuration.String(),
	}
}

func (h *Handler) redisStatus(ctx context.Context) RedisStatus {
	if h.cfg.RedisPing == nil {
		return RedisStatus{}
	}

	status := RedisStatus{
		Enabled: true,
		Healthy: h.cfg.RedisPing(ctx) == nil,
	}
	if h.cfg.RedisStats != nil {
		if s := h.cfg.RedisStats(); s != nil {
			status.Hits = s.Hits
			status.Misses = s.Misses
			status.TotalConns = s.TotalConns
			status.IdleConns = s.IdleConns
		}
	}
	return status
}

func readRuntime() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		HeapAlloc:    mem.HeapAlloc,
		NumGC:        mem.NumGC,
	}
}
