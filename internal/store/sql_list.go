package store

import (
	"database/sql"
	"time"
)

type sqlList struct {
	db *sql.DB
}

// NewSQLList returns a DomainList backed by the dns_list_entries table.
func NewSQLList(db *sql.DB) DomainList {
	return &sqlList{db: db}
}

func (s *sqlList) Contains(list, domain string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM dns_list_entries WHERE list = ? AND domain = ?`, list, domain).Scan(&n)
	return n > 0, err
}

func (s *sqlList) Add(entry ListEntry) error {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now()
	}
	wildcard := 0
	if entry.Wildcard {
		wildcard = 1
	}
	_, err := s.db.Exec(`INSERT INTO dns_list_entries (list, domain, source, reason, wildcard, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(list, domain) DO UPDATE SET source = excluded.source, reason = excluded.reason,
			wildcard = excluded.wildcard, added_at = excluded.added_at`,
		entry.List, entry.Domain, entry.Source, entry.Reason, wildcard, entry.AddedAt)
	return err
}

func (s *sqlList) Remove(list, domain string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM dns_list_entries WHERE list = ? AND domain = ?`, list, domain)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *sqlList) List(list string) ([]ListEntry, error) {
	var rows *sql.Rows
	var err error
	if list == "" {
		rows, err = s.db.Query(`SELECT list, domain, source, reason, wildcard, added_at FROM dns_list_entries ORDER BY domain`)
	} else {
		rows, err = s.db.Query(`SELECT list, domain, source, reason, wildcard, added_at FROM dns_list_entries WHERE list = ? ORDER BY domain`, list)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListEntries(rows)
}

func scanListEntries(rows *sql.Rows) ([]ListEntry, error) {
	var out []ListEntry
	for rows.Next() {
		var e ListEntry
		var wildcard int
		if err := rows.Scan(&e.List, &e.Domain, &e.Source, &e.Reason, &wildcard, &e.AddedAt); err != nil {
			return nil, err
		}
		e.Wildcard = wildcard != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqlList) Import(entries []ListEntry) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n := 0
	for _, e := range entries {
		if e.AddedAt.IsZero() {
			e.AddedAt = time.Now()
		}
		wildcard := 0
		if e.Wildcard {
			wildcard = 1
		}
		if _, err := tx.Exec(`INSERT INTO dns_list_entries (list, domain, source, reason, wildcard, added_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(list, domain) DO UPDATE SET source = excluded.source, reason = excluded.reason,
				wildcard = excluded.wildcard, added_at = excluded.added_at`,
			e.List, e.Domain, e.Source, e.Reason, wildcard, e.AddedAt); err != nil {
			return n, err
		}
		n++
	}
	return n, tx.Commit()
}

func (s *sqlList) Export() ([]ListEntry, error) {
	return s.List("")
}

func (s *sqlList) Clear(list string) error {
	var err error
	if list == "" {
		_, err = s.db.Exec(`DELETE FROM dns_list_entries`)
	} else {
		_, err = s.db.Exec(`DELETE FROM dns_list_entries WHERE list = ?`, list)
	}
	return err
}

func (s *sqlList) Close() error { return nil }
