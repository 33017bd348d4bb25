package models

import "time"

// LogEntryResponse is the JSON form of a store.LogEntry.
type LogEntryResponse struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Kind         string    `json:"kind"`
	Level        string    `json:"level,omitempty"`
	ClientAddr   string    `json:"client_addr,omitempty"`
	Transport    string    `json:"transport,omitempty"`
	Domain       string    `json:"domain,omitempty"`
	QType        string    `json:"qtype,omitempty"`
	Provider     string    `json:"provider,omitempty"`
	Cached       bool      `json:"cached"`
	Blocked      bool      `json:"blocked"`
	Whitelisted  bool      `json:"whitelisted"`
	Success      bool      `json:"success"`
	RCode        string    `json:"rcode,omitempty"`
	Resolved     []string  `json:"resolved,omitempty"`
	ResponseSize int       `json:"response_size,omitempty"`
	Attempt      int       `json:"attempt,omitempty"`
	LatencyMs    int64     `json:"latency_ms"`
	Message      string    `json:"message,omitempty"`
}

// LogQueryResponse is the result of a filtered log query.
type LogQueryResponse struct {
	Entries []LogEntryResponse `json:"entries"`
}

// LogStatsResponse summarizes the query log store.
type LogStatsResponse struct {
	TotalEntries int64     `json:"total_entries"`
	OldestEntry  time.Time `json:"oldest_entry,omitempty"`
	NewestEntry  time.Time `json:"newest_entry,omitempty"`
}
