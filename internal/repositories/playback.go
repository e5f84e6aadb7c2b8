package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/shared"
)

// PlaybackRepository stores every [models.PlaybackSelection] the user played.
type PlaybackRepository struct {
	db *sql.DB
}

// NewPlaybackRepository creates a new [PlaybackRepository] with the given database connection
func NewPlaybackRepository(db *sql.DB) *PlaybackRepository {
	return &PlaybackRepository{db: db}
}

// Record inserts a selection with a generated ID and the next history sequence.
func (r *PlaybackRepository) Record(sel models.PlaybackSelection) (*models.PlaybackRecord, error) {
	if sel.AudioURL == "" {
		return nil, fmt.Errorf("%w: playback selection has no audio URL", shared.ErrInvalidInput)
	}

	sequence, err := NextSequence(r.db, "playback_history")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	if sel.SelectedAt.IsZero() {
		sel.SelectedAt = time.Now()
	}

	record := &models.PlaybackRecord{
		ID:                shared.GenerateID(),
		Sequence:          sequence,
		PlaybackSelection: sel,
	}

	query := `
		INSERT INTO playback_history
			(id, sequence, title, duration_label, audio_url, country, topic, podcast_date, selected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		record.ID, record.Sequence, sel.Title, sel.DurationLabel, sel.AudioURL,
		string(sel.Country), string(sel.Topic), sel.Date, sel.SelectedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert playback record: %w", err)
	}

	return record, nil
}

// Get retrieves a history entry by ID.
func (r *PlaybackRepository) Get(id string) (*models.PlaybackRecord, error) {
	row := r.db.QueryRow(selectPlayback+" WHERE id = ?", id)

	record, err := scanPlayback(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("playback record not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playback record: %w", err)
	}
	return record, nil
}

// Recent returns up to limit entries, newest first. A non-positive limit returns everything.
func (r *PlaybackRepository) Recent(limit int) ([]*models.PlaybackRecord, error) {
	query := selectPlayback + " ORDER BY sequence DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playback history: %w", err)
	}
	defer rows.Close()

	var records []*models.PlaybackRecord
	for rows.Next() {
		record, err := scanPlayback(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playback record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Clear deletes all history. The sequence keeps counting.
func (r *PlaybackRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM playback_history"); err != nil {
		return fmt.Errorf("failed to clear playback history: %w", err)
	}
	return nil
}

const selectPlayback = `
	SELECT id, sequence, title, duration_label, audio_url, country, topic, podcast_date, selected_at
	FROM playback_history
`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayback(s scanner) (*models.PlaybackRecord, error) {
	var (
		record         models.PlaybackRecord
		country, topic string
		selectedAt     time.Time
	)

	err := s.Scan(
		&record.ID, &record.Sequence, &record.Title, &record.DurationLabel, &record.AudioURL,
		&country, &topic, &record.Date, &selectedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Country = models.Country(country)
	record.Topic = models.Topic(topic)
	record.SelectedAt = selectedAt
	return &record, nil
}
