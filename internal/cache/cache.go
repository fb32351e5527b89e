// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists completed research results in a SQLite database
// with TTL expiry, a hard entry cap, and word-overlap search over cached
// queries.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/knowledge-engine/pkg/types"
)

const (
	dbFile           = "research-cache.db"
	defaultTTL       = 24 * time.Hour
	defaultMaxSize   = 1000
	maxSearchResults = 10
)

// ResearchCache is the SQLite-backed result cache.
type ResearchCache struct {
	db  *sql.DB
	ttl time.Duration
	max int
	log *zap.Logger

	// now is swappable so tests can move time.
	now func() time.Time
}

// Stats reports cache usage counters. Hits and misses survive restarts.
type Stats struct {
	Entries     int       `json:"entries"`
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	LastCleanup time.Time `json:"last_cleanup"`
}

// HitRate returns hits / (hits + misses), 0 when the cache is untouched.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Open opens or creates the cache database at cfg.Directory/research-cache.db
// and creates the schema if needed.
func Open(cfg types.CacheConfig, log *zap.Logger) (*ResearchCache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dir := cfg.Directory
	if dir == "" {
		dir = ".knowledge-cache"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	max := cfg.MaxEntries
	if max <= 0 {
		max = defaultMaxSize
	}

	c := &ResearchCache{db: db, ttl: ttl, max: max, log: log, now: time.Now}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *ResearchCache) Close() error {
	return c.db.Close()
}

func (c *ResearchCache) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			key TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			research_type TEXT NOT NULL,
			result TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_updated_at ON entries(updated_at)`,
		`CREATE TABLE IF NOT EXISTS stats (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			hits INTEGER NOT NULL DEFAULT 0,
			misses INTEGER NOT NULL DEFAULT 0,
			last_cleanup TEXT
		)`,
		`INSERT OR IGNORE INTO stats (id, hits, misses) VALUES (1, 0, 0)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Key derives the cache key for a query. The query is lowercased and
// whitespace-normalized, and the current UTC day is folded in so cached
// research never outlives the day it was produced on.
func (c *ResearchCache) Key(query string, rt types.ResearchType) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	day := c.now().UTC().Format("2006-01-02")
	sum := sha256.Sum256([]byte(normalized + "|" + string(rt) + "|" + day))
	return fmt.Sprintf("%x", sum[:16])
}

// Get returns the cached result for key, or (nil, false) on a miss.
// Expired and unreadable entries are deleted and counted as misses.
func (c *ResearchCache) Get(ctx context.Context, key string) (*types.ResearchResult, bool, error) {
	var payload, updatedAt string
	err := c.db.QueryRowContext(ctx,
		`SELECT result, updated_at FROM entries WHERE key = ?`, key,
	).Scan(&payload, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, false, c.bump(ctx, "misses")
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	written, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil || c.now().Sub(written) > c.ttl {
		if delErr := c.delete(ctx, key); delErr != nil {
			return nil, false, delErr
		}
		return nil, false, c.bump(ctx, "misses")
	}

	var result types.ResearchResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		c.log.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		if delErr := c.delete(ctx, key); delErr != nil {
			return nil, false, delErr
		}
		return nil, false, c.bump(ctx, "misses")
	}

	return &result, true, c.bump(ctx, "hits")
}

// Put stores a result under key, replacing any previous entry.
func (c *ResearchCache) Put(ctx context.Context, key string, result *types.ResearchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	ts := c.now().UTC().Format(time.RFC3339Nano)
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO entries (key, query, research_type, result, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			query = excluded.query,
			research_type = excluded.research_type,
			result = excluded.result,
			updated_at = excluded.updated_at`,
		key, result.Query, string(result.ResearchType), string(payload), ts, ts)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// SearchHit is one cached result matched by Search.
type SearchHit struct {
	Key    string
	Query  string
	Score  float64
	Result *types.ResearchResult
}

// Search scans live cache entries for queries sharing words with the
// given query. Score is the fraction of query words found in the cached
// query, summary, insights, or recommendations; hits are ordered by
// score then recency, capped at 10.
func (c *ResearchCache) Search(ctx context.Context, query string) ([]SearchHit, error) {
	queryWords := strings.Fields(strings.ToLower(query))
	if len(queryWords) == 0 {
		return nil, nil
	}

	cutoff := c.now().Add(-c.ttl).UTC().Format(time.RFC3339Nano)
	rows, err := c.db.QueryContext(ctx,
		`SELECT key, query, result, updated_at FROM entries WHERE updated_at > ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("scanning cache: %w", err)
	}
	defer rows.Close()

	type scored struct {
		hit       SearchHit
		updatedAt string
	}
	var matches []scored
	for rows.Next() {
		var key, cachedQuery, payload, updatedAt string
		if err := rows.Scan(&key, &cachedQuery, &payload, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning cache row: %w", err)
		}

		var result types.ResearchResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			continue
		}

		parts := append([]string{cachedQuery, result.SynthesizedSummary}, result.KeyInsights...)
		parts = append(parts, result.Recommendations...)
		text := strings.ToLower(strings.Join(parts, " "))
		hits := 0
		for _, w := range queryWords {
			if strings.Contains(text, w) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		matches = append(matches, scored{
			hit: SearchHit{
				Key:    key,
				Query:  cachedQuery,
				Score:  float64(hits) / float64(len(queryWords)),
				Result: &result,
			},
			updatedAt: updatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cache rows: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].hit.Score != matches[j].hit.Score {
			return matches[i].hit.Score > matches[j].hit.Score
		}
		return matches[i].updatedAt > matches[j].updatedAt
	})
	if len(matches) > maxSearchResults {
		matches = matches[:maxSearchResults]
	}

	out := make([]SearchHit, len(matches))
	for i, m := range matches {
		out[i] = m.hit
	}
	return out, nil
}

// Recent returns the most recently written live entries, newest first.
func (c *ResearchCache) Recent(ctx context.Context, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = maxSearchResults
	}
	cutoff := c.now().Add(-c.ttl).UTC().Format(time.RFC3339Nano)
	rows, err := c.db.QueryContext(ctx,
		`SELECT key, query, result FROM entries WHERE updated_at > ?
		 ORDER BY updated_at DESC LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("listing cache entries: %w", err)
	}
	defer rows.Close()

	var out []SearchHit
	for rows.Next() {
		var key, query, payload string
		if err := rows.Scan(&key, &query, &payload); err != nil {
			return nil, fmt.Errorf("scanning cache row: %w", err)
		}
		var result types.ResearchResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			continue
		}
		out = append(out, SearchHit{Key: key, Query: query, Result: &result})
	}
	return out, rows.Err()
}

// Cleanup removes expired entries, then evicts the oldest-written entries
// until at most MaxEntries remain. It returns the number of entries
// removed and records the cleanup time.
func (c *ResearchCache) Cleanup(ctx context.Context) (int, error) {
	cutoff := c.now().Add(-c.ttl).UTC().Format(time.RFC3339Nano)
	res, err := c.db.ExecContext(ctx, `DELETE FROM entries WHERE updated_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting expired entries: %w", err)
	}
	expired, _ := res.RowsAffected()

	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM entries`).Scan(&count); err != nil {
		return int(expired), fmt.Errorf("counting entries: %w", err)
	}

	var evicted int64
	if count > c.max {
		res, err := c.db.ExecContext(ctx,
			`DELETE FROM entries WHERE key IN (
				SELECT key FROM entries ORDER BY updated_at ASC LIMIT ?
			)`, count-c.max)
		if err != nil {
			return int(expired), fmt.Errorf("evicting oldest entries: %w", err)
		}
		evicted, _ = res.RowsAffected()
	}

	ts := c.now().UTC().Format(time.RFC3339Nano)
	if _, err := c.db.ExecContext(ctx, `UPDATE stats SET last_cleanup = ? WHERE id = 1`, ts); err != nil {
		return int(expired + evicted), fmt.Errorf("recording cleanup time: %w", err)
	}

	removed := int(expired + evicted)
	if removed > 0 {
		c.log.Info("cache cleanup",
			zap.Int64("expired", expired),
			zap.Int64("evicted", evicted))
	}
	return removed, nil
}

// Invalidate removes a single entry. Removing a missing key is not an
// error.
func (c *ResearchCache) Invalidate(ctx context.Context, key string) error {
	return c.delete(ctx, key)
}

// Clear removes every entry and resets the usage counters.
func (c *ResearchCache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, `UPDATE stats SET hits = 0, misses = 0 WHERE id = 1`); err != nil {
		return fmt.Errorf("resetting cache stats: %w", err)
	}
	return nil
}

// Stats returns current usage counters.
func (c *ResearchCache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var lastCleanup sql.NullString
	err := c.db.QueryRowContext(ctx,
		`SELECT hits, misses, last_cleanup FROM stats WHERE id = 1`,
	).Scan(&s.Hits, &s.Misses, &lastCleanup)
	if err != nil {
		return Stats{}, fmt.Errorf("reading cache stats: %w", err)
	}
	if lastCleanup.Valid {
		if t, err := time.Parse(time.RFC3339Nano, lastCleanup.String); err == nil {
			s.LastCleanup = t
		}
	}
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM entries`).Scan(&s.Entries); err != nil {
		return Stats{}, fmt.Errorf("counting cache entries: %w", err)
	}
	return s, nil
}

func (c *ResearchCache) delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

func (c *ResearchCache) bump(ctx context.Context, column string) error {
	// column is always one of the fixed counter names.
	stmt := fmt.Sprintf(`UPDATE stats SET %s = %s + 1 WHERE id = 1`, column, column)
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("updating cache stats: %w", err)
	}
	return nil
}
