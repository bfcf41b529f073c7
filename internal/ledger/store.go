// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a local SQLite record of every call sent to the
// ingest backend, keyed by source URL, so repeated scrape runs skip
// listings that were already delivered.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/funding-tagger/pkg/types"
)

// DefaultPath is used when the config leaves the database path empty.
const DefaultPath = "data/ledger.db"

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is the latest delivery state of one call.
type Entry struct {
	types.Call `yaml:",inline"`

	// Status is the outcome of the most recent attempt.
	Status     types.DeliveryStatus `json:"status" yaml:"status"`
	HTTPStatus int                  `json:"http_status,omitempty" yaml:"http_status,omitempty"`
	Error      string               `json:"error,omitempty" yaml:"error,omitempty"`

	// Attempts counts every Record call for this URL, the current one included.
	Attempts     int       `json:"attempts" yaml:"attempts"`
	FirstAttempt time.Time `json:"first_attempt" yaml:"first_attempt"`
	LastAttempt  time.Time `json:"last_attempt" yaml:"last_attempt"`

	// DeliveredAt is when the backend first accepted the call. It survives
	// later failed resends.
	DeliveredAt *time.Time `json:"delivered_at,omitempty" yaml:"delivered_at,omitempty"`
}

// Store manages the ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database and its schema.
func Open(cfg types.LedgerConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS deliveries (
			source_url TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			source_name TEXT,
			host_country TEXT,
			degree_level TEXT,
			field TEXT,
			theme TEXT,
			sdg_tags TEXT,
			funding_type TEXT,
			deadline TEXT,
			confidence REAL,
			status TEXT NOT NULL,
			http_status INTEGER,
			error TEXT,
			attempts INTEGER NOT NULL DEFAULT 1,
			first_attempt TEXT NOT NULL,
			last_attempt TEXT NOT NULL,
			delivered_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_status ON deliveries(status)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_source ON deliveries(source_name)`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_url TEXT NOT NULL REFERENCES deliveries(source_url),
			status TEXT NOT NULL,
			http_status INTEGER,
			error TEXT,
			at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_url ON attempts(source_url)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores the outcome of one delivery attempt. e.LastAttempt is the
// attempt time; zero means now. Attempts, FirstAttempt and DeliveredAt are
// maintained by the store and ignored on input.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.SourceURL == "" {
		return errors.New("recording delivery: empty source URL")
	}
	if e.Status != types.DeliveryDelivered && e.Status != types.DeliveryFailed {
		return fmt.Errorf("recording delivery: unknown status %q", e.Status)
	}

	at := e.LastAttempt
	if at.IsZero() {
		at = time.Now()
	}
	atStr := at.UTC().Format(timeLayout)

	var deliveredAt any
	if e.Status == types.DeliveryDelivered {
		deliveredAt = atStr
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO deliveries (source_url, title, source_name, host_country, degree_level,
			field, theme, sdg_tags, funding_type, deadline, confidence,
			status, http_status, error, attempts, first_attempt, last_attempt, delivered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)
		 ON CONFLICT(source_url) DO UPDATE SET
			title=excluded.title, source_name=excluded.source_name,
			host_country=excluded.host_country, degree_level=excluded.degree_level,
			field=excluded.field, theme=excluded.theme, sdg_tags=excluded.sdg_tags,
			funding_type=excluded.funding_type, deadline=excluded.deadline,
			confidence=excluded.confidence, status=excluded.status,
			http_status=excluded.http_status, error=excluded.error,
			attempts=deliveries.attempts+1, last_attempt=excluded.last_attempt,
			delivered_at=COALESCE(deliveries.delivered_at, excluded.delivered_at)`,
		e.SourceURL, e.Title, e.SourceName, e.HostCountry, e.DegreeLevel,
		e.Field, e.Theme, e.SDGTags, e.FundingType, e.Deadline, e.ConfidenceScore,
		string(e.Status), e.HTTPStatus, e.Error, atStr, atStr, deliveredAt,
	)
	if err != nil {
		return fmt.Errorf("upserting delivery %s: %w", e.SourceURL, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO attempts (source_url, status, http_status, error, at) VALUES (?, ?, ?, ?, ?)`,
		e.SourceURL, string(e.Status), e.HTTPStatus, e.Error, atStr,
	)
	if err != nil {
		return fmt.Errorf("inserting attempt for %s: %w", e.SourceURL, err)
	}

	return tx.Commit()
}

// Delivered reports whether the backend has ever accepted sourceURL.
func (s *Store) Delivered(ctx context.Context, sourceURL string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM deliveries WHERE source_url = ? AND delivered_at IS NOT NULL`, sourceURL,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking delivery of %s: %w", sourceURL, err)
	}
	return n > 0, nil
}

// Get returns the entry for sourceURL. ok is false when it was never recorded.
func (s *Store) Get(ctx context.Context, sourceURL string) (Entry, bool, error) {
	entries, err := s.query(ctx, `WHERE source_url = ?`, []any{sourceURL})
	if err != nil {
		return Entry{}, false, err
	}
	if len(entries) == 0 {
		return Entry{}, false, nil
	}
	return entries[0], true, nil
}

// Filter narrows List and the exports.
type Filter struct {
	Status types.DeliveryStatus
	Source string
	// Limit caps the number of entries; 0 means no limit.
	Limit int
}

// List returns entries matching f, most recently attempted first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Source != "" {
		conds = append(conds, "source_name = ?")
		args = append(args, f.Source)
	}

	clause := ""
	if len(conds) > 0 {
		clause = "WHERE " + strings.Join(conds, " AND ")
	}
	clause += " ORDER BY last_attempt DESC, source_url"
	if f.Limit > 0 {
		clause += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return s.query(ctx, clause, args)
}

func (s *Store) query(ctx context.Context, clause string, args []any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_url, title, source_name, host_country, degree_level, field, theme,
			sdg_tags, funding_type, deadline, confidence, status, http_status, error,
			attempts, first_attempt, last_attempt, delivered_at
		 FROM deliveries `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("querying deliveries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                      Entry
			sourceName, host       sql.NullString
			degree, field, theme   sql.NullString
			sdgs, funding, dl, msg sql.NullString
			confidence             sql.NullFloat64
			httpStatus             sql.NullInt64
			status, first, last    string
			delivered              sql.NullString
		)
		if err := rows.Scan(&e.SourceURL, &e.Title, &sourceName, &host, &degree, &field, &theme,
			&sdgs, &funding, &dl, &confidence, &status, &httpStatus, &msg,
			&e.Attempts, &first, &last, &delivered); err != nil {
			return nil, fmt.Errorf("scanning delivery: %w", err)
		}

		e.SourceName = sourceName.String
		e.HostCountry = host.String
		e.DegreeLevel = degree.String
		e.Field = field.String
		e.Theme = theme.String
		e.SDGTags = sdgs.String
		e.FundingType = funding.String
		e.Deadline = dl.String
		e.ConfidenceScore = confidence.Float64
		e.Status = types.DeliveryStatus(status)
		e.HTTPStatus = int(httpStatus.Int64)
		e.Error = msg.String
		e.FirstAttempt, _ = time.Parse(timeLayout, first)
		e.LastAttempt, _ = time.Parse(timeLayout, last)
		if delivered.Valid {
			if t, err := time.Parse(timeLayout, delivered.String); err == nil {
				e.DeliveredAt = &t
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats summarizes the ledger.
type Stats struct {
	Total     int            `json:"total" yaml:"total"`
	Delivered int            `json:"delivered" yaml:"delivered"`
	Failed    int            `json:"failed" yaml:"failed"`
	Attempts  int            `json:"attempts" yaml:"attempts"`
	BySource  map[string]int `json:"by_source" yaml:"by_source"`
}

// Stats counts entries per latest status and per source.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{BySource: map[string]int{}}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COALESCE(source_name, ''), count(*), SUM(attempts)
		 FROM deliveries GROUP BY status, source_name`)
	if err != nil {
		return Stats{}, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, source string
		var n, attempts int
		if err := rows.Scan(&status, &source, &n, &attempts); err != nil {
			return Stats{}, fmt.Errorf("scanning stats: %w", err)
		}
		st.Total += n
		st.Attempts += attempts
		st.BySource[source] += n
		switch types.DeliveryStatus(status) {
		case types.DeliveryDelivered:
			st.Delivered += n
		case types.DeliveryFailed:
			st.Failed += n
		}
	}
	return st, rows.Err()
}
