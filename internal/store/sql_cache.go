package store

import (
	"database/sql"
	"time"
)

type sqlCache struct {
	db *sql.DB
}

// NewSQLCache returns a CacheStore backed by the dns_cache table.
func NewSQLCache(db *sql.DB) CacheStore {
	return &sqlCache{db: db}
}

func (s *sqlCache) Get(fp string) (CachedAnswer, bool, error) {
	row := s.db.QueryRow(`SELECT fingerprint, packet, entry_type, provider, inserted_at, expires_at, last_accessed_at, access_count
		FROM dns_cache WHERE fingerprint = ?`, fp)
	var a CachedAnswer
	err := row.Scan(&a.Fingerprint, &a.Packet, &a.EntryType, &a.Provider, &a.InsertedAt, &a.ExpiresAt, &a.LastAccessedAt, &a.AccessCount)
	if err == sql.ErrNoRows {
		return CachedAnswer{}, false, nil
	}
	if err != nil {
		return CachedAnswer{}, false, err
	}
	_, err = s.db.Exec(`UPDATE dns_cache SET last_accessed_at = ?, access_count = access_count + 1 WHERE fingerprint = ?`,
		time.Now(), fp)
	return a, true, err
}

func (s *sqlCache) Set(answer CachedAnswer) error {
	_, err := s.db.Exec(`INSERT INTO dns_cache
		(fingerprint, packet, entry_type, provider, inserted_at, expires_at, last_accessed_at, access_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			packet = excluded.packet, entry_type = excluded.entry_type, provider = excluded.provider,
			inserted_at = excluded.inserted_at, expires_at = excluded.expires_at,
			last_accessed_at = excluded.last_accessed_at, access_count = excluded.access_count`,
		answer.Fingerprint, answer.Packet, answer.EntryType, answer.Provider,
		answer.InsertedAt, answer.ExpiresAt, answer.LastAccessedAt, answer.AccessCount)
	return err
}

func (s *sqlCache) Delete(fp string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM dns_cache WHERE fingerprint = ?`, fp)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *sqlCache) Clear() error {
	_, err := s.db.Exec(`DELETE FROM dns_cache`)
	return err
}

func (s *sqlCache) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT fingerprint FROM dns_cache`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *sqlCache) Size() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM dns_cache`).Scan(&n)
	return n, err
}

func (s *sqlCache) EvictExpired(now time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM dns_cache WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *sqlCache) Close() error { return nil }
