package store

import (
	"database/sql"
	"strings"
	"time"
)

type sqlLog struct {
	db *sql.DB
}

// NewSQLLog returns a LogStore backed by the dns_logs table.
func NewSQLLog(db *sql.DB) LogStore {
	return &sqlLog{db: db}
}

func (s *sqlLog) Append(e LogEntry) error {
	cached, blocked, whitelisted, success := boolToInt(e.Cached), boolToInt(e.Blocked), boolToInt(e.Whitelisted), boolToInt(e.Success)
	_, err := s.db.Exec(`INSERT INTO dns_logs
		(id, ts, kind, level, client_addr, transport, domain, qtype, provider, cached, blocked,
		 whitelisted, success, rcode, resolved, response_size, attempt, latency_ms, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp, e.Kind, e.Level, e.ClientAddr, e.Transport, e.Domain, e.QType, e.Provider,
		cached, blocked, whitelisted, success, e.RCode, strings.Join(e.Resolved, ","), e.ResponseSize,
		e.Attempt, e.LatencyMs, e.Message)
	return err
}

func (s *sqlLog) Query(filter LogFilter) ([]LogEntry, error) {
	var where []string
	var args []any

	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Level != "" {
		where = append(where, "level = ?")
		args = append(args, filter.Level)
	}
	if filter.Domain != "" {
		where = append(where, "domain = ?")
		args = append(args, filter.Domain)
	}
	if filter.Provider != "" {
		where = append(where, "provider = ?")
		args = append(args, filter.Provider)
	}
	if filter.Success != nil {
		where = append(where, "success = ?")
		args = append(args, boolToInt(*filter.Success))
	}
	if filter.RequestID != "" {
		where = append(where, "id = ?")
		args = append(args, filter.RequestID)
	}
	if !filter.Since.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		where = append(where, "ts <= ?")
		args = append(args, filter.Until)
	}

	query := `SELECT id, ts, kind, level, client_addr, transport, domain, qtype, provider, cached,
		blocked, whitelisted, success, rcode, resolved, response_size, attempt, latency_ms, message FROM dns_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var cached, blocked, whitelisted, success int
		var resolved string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Kind, &e.Level, &e.ClientAddr, &e.Transport, &e.Domain,
			&e.QType, &e.Provider, &cached, &blocked, &whitelisted, &success, &e.RCode, &resolved,
			&e.ResponseSize, &e.Attempt, &e.LatencyMs, &e.Message); err != nil {
			return nil, err
		}
		e.Cached = cached != 0
		e.Blocked = blocked != 0
		e.Whitelisted = whitelisted != 0
		e.Success = success != 0
		if resolved != "" {
			e.Resolved = strings.Split(resolved, ",")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqlLog) Clear() error {
	_, err := s.db.Exec(`DELETE FROM dns_logs`)
	return err
}

func (s *sqlLog) Cleanup(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.Exec(`DELETE FROM dns_logs WHERE ts < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *sqlLog) Stats() (LogStats, error) {
	var stats LogStats
	var oldest, newest sql.NullTime
	err := s.db.QueryRow(`SELECT COUNT(*), MIN(ts), MAX(ts) FROM dns_logs`).Scan(
		&stats.TotalEntries, &oldest, &newest)
	if err != nil {
		return LogStats{}, err
	}
	stats.OldestEntry = oldest.Time
	stats.NewestEntry = newest.Time
	return stats, nil
}

func (s *sqlLog) Close() error { return nil }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
