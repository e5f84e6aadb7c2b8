package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dailycast/internal/session"
)

var _ session.Slot = (*SessionRepository)(nil)

// SessionRepository implements [session.Slot] on the session_slots table, keyed by a single slot name.
type SessionRepository struct {
	db   *sql.DB
	slot string
}

// NewSessionRepository creates a repository for the given slot. An empty slot name means [session.TokenSlot].
func NewSessionRepository(db *sql.DB, slot string) *SessionRepository {
	if slot == "" {
		slot = session.TokenSlot
	}
	return &SessionRepository{db: db, slot: slot}
}

// Load returns the stored value, with ok false when the slot is empty.
func (r *SessionRepository) Load() (string, bool, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM session_slots WHERE slot = ?", r.slot).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load session slot %s: %w", r.slot, err)
	}
	return value, true, nil
}

// Save upserts the slot's value.
func (r *SessionRepository) Save(value string) error {
	query := `
		INSERT INTO session_slots (slot, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, r.slot, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save session slot %s: %w", r.slot, err)
	}
	return nil
}

// Delete empties the slot. Deleting an empty slot is not an error.
func (r *SessionRepository) Delete() error {
	if _, err := r.db.Exec("DELETE FROM session_slots WHERE slot = ?", r.slot); err != nil {
		return fmt.Errorf("failed to delete session slot %s: %w", r.slot, err)
	}
	return nil
}
