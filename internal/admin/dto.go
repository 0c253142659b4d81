// AngelaMos | 2026
// dto.go

package admin

import (
	"github.com/carterperez-dev/curator-backend/internal/curation"
)

type OverviewResponse struct {
	Curation curation.StatsResponse `json:"curation"`
	Accounts map[string]int         `json:"accounts"`
	Backends BackendsStatus         `json:"backends"`
	Runtime  RuntimeStats           `json:"runtime"`
}

type BackendsStatus struct {
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
}

type DatabaseStatus struct {
	Healthy         bool   `json:"healthy"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	WaitCount       int64  `json:"wait_count"`
	WaitDuration    string `json:"wait_duration,omitempty"`
}

type RedisStatus struct {
	Enabled    bool   `json:"enabled"`
	Healthy    bool   `json:"healthy"`
	Hits       uint32 `json:"hits,omitempty"`
	Misses     uint32 `json:"misses,omitempty"`
	TotalConns uint32 `json:"total_conns,omitempty"`
	IdleConns  uint32 `json:"idle_conns,omitempty"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	HeapAlloc    uint64 `json:"heap_alloc_bytes"`
	NumGC        uint32 `json:"num_gc"`
}

type MaintenanceResponse struct {
	SessionsPurged int64 `json:"sessions_purged"`
	InvitesExpired int64 `json:"invites_expired"`
}
