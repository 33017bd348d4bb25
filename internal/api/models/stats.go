package models

import "time"

// CPUStats contains system CPU statistics.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// MemoryStats contains system memory statistics.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// ServerStatsResponse contains server runtime statistics.
type ServerStatsResponse struct {
	Uptime         string                  `json:"uptime"`
	UptimeSeconds  int64                   `json:"uptime_seconds"`
	StartTime      time.Time               `json:"start_time"`
	State          string                  `json:"state"`
	CPU            CPUStats                `json:"cpu"`
	Memory         MemoryStats             `json:"memory"`
	CacheStats     CacheStatsResponse      `json:"cache"`
	FilteringStats *FilteringStatsResponse `json:"filtering,omitempty"`
}

// CacheStatsResponse reports answer cache occupancy.
type CacheStatsResponse struct {
	Size     int `json:"size"`
	Capacity int `json:"capacity"`
}

// FilteringStatsResponse reports domain-filtering counters.
type FilteringStatsResponse struct {
	Enabled        bool   `json:"enabled"`
	QueriesTotal   uint64 `json:"queries_total"`
	QueriesBlocked uint64 `json:"queries_blocked"`
	QueriesAllowed uint64 `json:"queries_allowed"`
	WhitelistSize  int    `json:"whitelist_size"`
	BlacklistSize  int    `json:"blacklist_size"`
}
