// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelamos/entitled/internal/core"
)

// HandlerConfig wires the stat and ping functions instead of the owning
// structs, so the handler stays decoupled from the pool types.
type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	DBPing     func(ctx context.Context) error
	RedisPing  func(ctx context.Context) error
}

type Handler struct {
	cfg       HandlerConfig
	startedAt time.Time
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg, startedAt: time.Now()}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	requireAdmin func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(requireAdmin)

		r.Get("/stats", h.Stats)
	})
}

type statsResponse struct {
	Uptime     string         `json:"uptime"`
	Goroutines int            `json:"goroutines"`
	Database   databaseStats  `json:"database"`
	Redis      redisStats     `json:"redis"`
	Memory     memoryStats    `json:"memory"`
	Health     map[string]any `json:"health"`
}

type databaseStats struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

type redisStats struct {
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
}

type memoryStats struct {
	AllocMB      uint64 `json:"alloc_mb"`
	TotalAllocMB uint64 `json:"total_alloc_mb"`
	SysMB        uint64 `json:"sys_mb"`
	NumGC        uint32 `json:"num_gc"`
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dbStats := h.cfg.DBStats()
	poolStats := h.cfg.RedisStats()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	health := map[string]any{
		"database": h.cfg.DBPing(ctx) == nil,
		"redis":    h.cfg.RedisPing(ctx) == nil,
	}

	core.OK(w, statsResponse{
		Uptime:     time.Since(h.startedAt).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Database: databaseStats{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		},
		Redis: redisStats{
			TotalConns: poolStats.TotalConns,
			IdleConns:  poolStats.IdleConns,
			Hits:       poolStats.Hits,
			Misses:     poolStats.Misses,
		},
		Memory: memoryStats{
			AllocMB:      m.Alloc / 1024 / 1024,
			TotalAllocMB: m.TotalAlloc / 1024 / 1024,
			SysMB:        m.Sys / 1024 / 1024,
			NumGC:        m.NumGC,
		},
		Health: health,
	})
}
