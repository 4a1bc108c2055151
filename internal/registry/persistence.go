package registry

import (
	"database/sql"
	"fmt"
)

// PersistedEntry is one row of a registry snapshot.
type PersistedEntry struct {
	ID       string
	Position int
	Payload  []byte
}

// Persistence stores full registry snapshots keyed by registry domain.
type Persistence interface {
	Save(registry string, entries []PersistedEntry) error
	Load(registry string) ([]PersistedEntry, error)
}

// SQLitePersistence implements Persistence against the registry_entries
// table. Each Save replaces the registry's full snapshot in one
// transaction.
type SQLitePersistence struct {
	db *sql.DB
}

// NewSQLitePersistence creates a persistence layer on the given database.
func NewSQLitePersistence(db *sql.DB) *SQLitePersistence {
	return &SQLitePersistence{db: db}
}

// Save replaces the stored snapshot for a registry.
func (p *SQLitePersistence) Save(registry string, entries []PersistedEntry) error {
	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	if _, err := tx.Exec("DELETE FROM registry_entries WHERE registry = ?", registry); err != nil {
		return fmt.Errorf("clearing %s snapshot: %w", registry, err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO registry_entries (registry, id, position, payload) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(registry, e.ID, e.Position, string(e.Payload)); err != nil {
			return fmt.Errorf("writing %s entry %s: %w", registry, e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s snapshot: %w", registry, err)
	}
	return nil
}

// Load returns the stored snapshot for a registry in position order.
func (p *SQLitePersistence) Load(registry string) ([]PersistedEntry, error) {
	rows, err := p.db.Query(
		"SELECT id, position, payload FROM registry_entries WHERE registry = ? ORDER BY position ASC",
		registry)
	if err != nil {
		return nil, fmt.Errorf("querying %s snapshot: %w", registry, err)
	}
	defer rows.Close()

	var entries []PersistedEntry
	for rows.Next() {
		var e PersistedEntry
		var payload string
		if err := rows.Scan(&e.ID, &e.Position, &payload); err != nil {
			return nil, fmt.Errorf("scanning %s entry: %w", registry, err)
		}
		e.Payload = []byte(payload)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s snapshot: %w", registry, err)
	}
	return entries, nil
}
