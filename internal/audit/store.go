// Package audit keeps a write-only SQLite journal of route table changes.
// Routes are never restored from it.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"grimm.is/dvr/internal/events"
	"grimm.is/dvr/internal/routing"
)

// DefaultRetain is the number of rows kept when NewStore is given zero.
const DefaultRetain = 10000

// Record is one journaled route change.
type Record struct {
	ID        int64         `json:"id"`
	Seq       uint64        `json:"seq"`
	Timestamp time.Time     `json:"timestamp"`
	Plane     string        `json:"plane"`
	Action    string        `json:"action"`
	Route     routing.Route `json:"route"`
	Replaced  bool          `json:"replaced,omitempty"`
}

// RecordFromEvent converts a route change event. ok is false for events
// that do not carry a events.RouteChangeData payload.
func RecordFromEvent(e events.Event) (rec Record, ok bool) {
	data, ok := e.Data.(events.RouteChangeData)
	if !ok {
		return Record{}, false
	}
	return Record{
		Seq:       data.Seq,
		Timestamp: e.Timestamp,
		Plane:     e.Source,
		Action:    string(e.Type),
		Route:     data.Route,
		Replaced:  data.Replaced,
	}, true
}

// Store provides persistent storage for route change records.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	retain int
}

// NewStore opens (creating if needed) the journal at dbPath.
func NewStore(dbPath string, retain int) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	// Writes are serialized by mu; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS route_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seq INTEGER NOT NULL,
			timestamp INTEGER NOT NULL,
			plane TEXT NOT NULL,
			action TEXT NOT NULL,
			destination TEXT NOT NULL,
			next_hop TEXT NOT NULL DEFAULT '',
			metric INTEGER NOT NULL DEFAULT 0,
			replaced INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_route_events_destination ON route_events(destination);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create route_events table: %w", err)
	}

	if retain <= 0 {
		retain = DefaultRetain
	}

	return &Store{db: db, retain: retain}, nil
}

// Write appends a record.
func (s *Store) Write(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO route_events (seq, timestamp, plane, action, destination, next_hop, metric, replaced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, int64(rec.Seq), rec.Timestamp.UnixNano(), rec.Plane, rec.Action,
		rec.Route.Destination, rec.Route.NextHop, rec.Route.Metric, rec.Replaced)
	if err != nil {
		return fmt.Errorf("insert route event: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (s *Store) Recent(limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, seq, timestamp, plane, action, destination, next_hop, metric, replaced
		FROM route_events ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query route events: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var seq, ts int64
		err := rows.Scan(&rec.ID, &seq, &ts, &rec.Plane, &rec.Action,
			&rec.Route.Destination, &rec.Route.NextHop, &rec.Route.Metric, &rec.Replaced)
		if err != nil {
			return nil, fmt.Errorf("scan route event: %w", err)
		}
		rec.Seq = uint64(seq)
		rec.Timestamp = time.Unix(0, ts).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM route_events").Scan(&n); err != nil {
		return 0, fmt.Errorf("count route events: %w", err)
	}
	return n, nil
}

// Prune deletes all but the newest retain records.
func (s *Store) Prune() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		DELETE FROM route_events WHERE id NOT IN (
			SELECT id FROM route_events ORDER BY id DESC LIMIT ?
		)`, s.retain)
	if err != nil {
		return 0, fmt.Errorf("prune route events: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
