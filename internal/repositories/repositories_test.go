package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/session"
	"github.com/desertthunder/dailycast/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func testSelection(url string) models.PlaybackSelection {
	prefs := models.Preferences{Country: "uk", Topic: "science"}
	podcast := models.PodcastResult{Date: "2024-05-01", URL: url}
	return models.NewPlaybackSelection(podcast, prefs, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "playback_history")
		if err != nil {
			t.Fatalf("NextSequence() error = %v", err)
		}
		if got != want {
			t.Errorf("NextSequence() = %d, want %d", got, want)
		}
	}

	t.Run("unknown table", func(t *testing.T) {
		if _, err := NextSequence(db, "nope"); err == nil {
			t.Error("expected error for table without a sequence")
		}
	})
}

func TestSessionRepository(t *testing.T) {
	t.Run("Load empty", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t), "")

		value, ok, err := repo.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if ok || value != "" {
			t.Errorf("Load() = %q, %v; want empty", value, ok)
		}
	})

	t.Run("Save then Load", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t), "")

		if err := repo.Save("first"); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := repo.Save("second"); err != nil {
			t.Fatalf("Save() overwrite error = %v", err)
		}

		value, ok, err := repo.Load()
		if err != nil || !ok || value != "second" {
			t.Errorf("Load() = %q, %v, %v; want second", value, ok, err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t), "")
		repo.Save("abc")

		if err := repo.Delete(); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := repo.Delete(); err != nil {
			t.Errorf("Delete() on empty slot error = %v", err)
		}
		if _, ok, _ := repo.Load(); ok {
			t.Error("expected slot to be empty after Delete")
		}
	})

	t.Run("slots are independent", func(t *testing.T) {
		db := setupTestDB(t)
		token := NewSessionRepository(db, session.TokenSlot)
		other := NewSessionRepository(db, "other")

		token.Save("abc")
		if _, ok, _ := other.Load(); ok {
			t.Error("other slot should be empty")
		}
	})

	t.Run("backs a TokenStore", func(t *testing.T) {
		db := setupTestDB(t)

		store := session.NewTokenStore(NewSessionRepository(db, ""), nil)
		store.Set("persisted")

		reopened := session.NewTokenStore(NewSessionRepository(db, ""), nil)
		if token, ok := reopened.Get(); !ok || token != "persisted" {
			t.Errorf("Get() = %q, %v; want persisted", token, ok)
		}
		if reopened.Degraded() {
			t.Error("store should not be degraded")
		}
	})

	t.Run("closed database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSessionRepository(db, "")
		db.Close()

		if _, _, err := repo.Load(); err == nil {
			t.Error("expected Load error on closed database")
		}
		if err := repo.Save("x"); err == nil {
			t.Error("expected Save error on closed database")
		}
	})
}

func TestPlaybackRepository(t *testing.T) {
	t.Run("Record", func(t *testing.T) {
		repo := NewPlaybackRepository(setupTestDB(t))

		record, err := repo.Record(testSelection("https://cdn.example/uk-science.mp3"))
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if record.ID == "" {
			t.Error("record ID should be set")
		}
		if record.Sequence != 1 {
			t.Errorf("Sequence = %d, want 1", record.Sequence)
		}
		if record.Title != "AI Podcast for Science in United Kingdom" {
			t.Errorf("Title = %q", record.Title)
		}
	})

	t.Run("Record rejects missing URL", func(t *testing.T) {
		repo := NewPlaybackRepository(setupTestDB(t))
		if _, err := repo.Record(models.PlaybackSelection{Title: "x"}); err == nil {
			t.Error("expected error for selection without audio URL")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewPlaybackRepository(setupTestDB(t))
		record, _ := repo.Record(testSelection("https://cdn.example/a.mp3"))

		got, err := repo.Get(record.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.AudioURL != "https://cdn.example/a.mp3" {
			t.Errorf("AudioURL = %q", got.AudioURL)
		}
		if got.Country != "uk" || got.Topic != "science" {
			t.Errorf("prefs = %s/%s, want uk/science", got.Country, got.Topic)
		}
		if got.Date != "2024-05-01" {
			t.Errorf("Date = %q", got.Date)
		}
		if !got.SelectedAt.Equal(record.SelectedAt) {
			t.Errorf("SelectedAt = %v, want %v", got.SelectedAt, record.SelectedAt)
		}
	})

	t.Run("Get not found", func(t *testing.T) {
		repo := NewPlaybackRepository(setupTestDB(t))
		if _, err := repo.Get("missing"); err == nil {
			t.Error("expected error for missing record")
		}
	})

	t.Run("Recent is newest first", func(t *testing.T) {
		repo := NewPlaybackRepository(setupTestDB(t))
		for _, url := range []string{"https://a/1.mp3", "https://a/2.mp3", "https://a/3.mp3"} {
			if _, err := repo.Record(testSelection(url)); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
		}

		records, err := repo.Recent(2)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("len = %d, want 2", len(records))
		}
		if records[0].Sequence != 3 || records[1].Sequence != 2 {
			t.Errorf("sequences = %d, %d; want 3, 2", records[0].Sequence, records[1].Sequence)
		}

		all, _ := repo.Recent(0)
		if len(all) != 3 {
			t.Errorf("Recent(0) len = %d, want 3", len(all))
		}
	})

	t.Run("Clear keeps counting", func(t *testing.T) {
		repo := NewPlaybackRepository(setupTestDB(t))
		repo.Record(testSelection("https://a/1.mp3"))

		if err := repo.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		records, _ := repo.Recent(0)
		if len(records) != 0 {
			t.Errorf("expected empty history, got %d", len(records))
		}

		record, _ := repo.Record(testSelection("https://a/2.mp3"))
		if record.Sequence != 2 {
			t.Errorf("Sequence = %d, want 2", record.Sequence)
		}
	})
}
