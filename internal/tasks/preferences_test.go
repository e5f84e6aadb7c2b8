package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/shared"
)

func seededController(api *fakeAPI, prefs models.Preferences) *PreferenceController {
	c := NewPreferenceController(api, nil)
	c.Seed(prefs)
	return c
}

func TestPreferenceController(t *testing.T) {
	t.Run("starts idle and empty", func(t *testing.T) {
		c := NewPreferenceController(&fakeAPI{}, nil)
		snap := c.Snapshot()
		if snap.Status != PreferencesIdle || snap.Acknowledged != (models.Preferences{}) {
			t.Errorf("Snapshot() = %+v", snap)
		}
	})

	t.Run("edits only touch the draft", func(t *testing.T) {
		c := seededController(&fakeAPI{}, usSports)

		c.SetCountry("uk")
		c.SetTopic("science")

		snap := c.Snapshot()
		if snap.Draft != ukScience {
			t.Errorf("Draft = %v, want %v", snap.Draft, ukScience)
		}
		if snap.Acknowledged != usSports {
			t.Errorf("Acknowledged = %v, want %v", snap.Acknowledged, usSports)
		}
		if snap.Status != PreferencesIdle {
			t.Errorf("Status = %v, want idle", snap.Status)
		}
		if !snap.Dirty() {
			t.Error("snapshot should be dirty")
		}
	})

	t.Run("invalid draft is rejected locally", func(t *testing.T) {
		tests := []struct {
			name  string
			draft models.Preferences
		}{
			{"unknown topic", models.Preferences{Country: "uk", Topic: "unknown"}},
			{"unknown country", models.Preferences{Country: "zz", Topic: "science"}},
			{"empty", models.Preferences{}},
			{"signup default topic", models.Preferences{Country: "us", Topic: "general"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				api := &fakeAPI{}
				c := seededController(api, usSports)
				c.SetCountry(tt.draft.Country)
				c.SetTopic(tt.draft.Topic)

				_, err := c.Apply(context.Background())
				if !errors.Is(err, shared.ErrInvalidPreferences) {
					t.Errorf("expected ErrInvalidPreferences, got %v", err)
				}
				if api.updates() != 0 {
					t.Error("no request should be sent")
				}
				if snap := c.Snapshot(); snap.Status != PreferencesIdle || snap.Acknowledged != usSports {
					t.Errorf("state changed: %+v", snap)
				}
			})
		}
	})

	t.Run("acknowledged apply", func(t *testing.T) {
		api := &fakeAPI{}
		c := seededController(api, usSports)

		var triggered []models.Preferences
		c.OnApplied(func(_ context.Context, p models.Preferences) { triggered = append(triggered, p) })

		c.SetCountry("uk")
		c.SetTopic("science")
		acked, err := c.Apply(context.Background())
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if acked != ukScience {
			t.Errorf("Apply() = %v", acked)
		}

		snap := c.Snapshot()
		if snap.Status != PreferencesApplied || snap.Acknowledged != ukScience || snap.Draft != ukScience {
			t.Errorf("Snapshot() = %+v", snap)
		}
		if len(triggered) != 1 || triggered[0] != ukScience {
			t.Errorf("trigger ran with %v, want exactly [%v]", triggered, ukScience)
		}
	})

	t.Run("acknowledged value comes from the server", func(t *testing.T) {
		api := &fakeAPI{updateFn: func(context.Context, models.Preferences) (models.Preferences, error) {
			return deBusiness, nil
		}}
		c := seededController(api, usSports)
		c.SetCountry("uk")

		c.Apply(context.Background())
		if got := c.Acknowledged(); got != deBusiness {
			t.Errorf("Acknowledged() = %v, want server value %v", got, deBusiness)
		}
	})

	t.Run("server rejection", func(t *testing.T) {
		api := &fakeAPI{updateFn: func(context.Context, models.Preferences) (models.Preferences, error) {
			return models.Preferences{}, errBoom
		}}
		c := seededController(api, ukScience)
		triggered := 0
		c.OnApplied(func(context.Context, models.Preferences) { triggered++ })

		c.SetTopic("health")
		if _, err := c.Apply(context.Background()); !errors.Is(err, errBoom) {
			t.Fatalf("expected errBoom, got %v", err)
		}

		snap := c.Snapshot()
		if snap.Status != PreferencesRejected {
			t.Errorf("Status = %v, want rejected", snap.Status)
		}
		if snap.Acknowledged != ukScience {
			t.Errorf("Acknowledged = %v, want %v", snap.Acknowledged, ukScience)
		}
		if !errors.Is(snap.LastError, errBoom) {
			t.Errorf("LastError = %v", snap.LastError)
		}
		if triggered != 0 {
			t.Error("trigger must not run on rejection")
		}

		t.Run("apply again from rejected", func(t *testing.T) {
			api.mu.Lock()
			api.updateFn = nil
			api.mu.Unlock()

			if _, err := c.Apply(context.Background()); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if snap := c.Snapshot(); snap.Status != PreferencesApplied || snap.LastError != nil {
				t.Errorf("Snapshot() = %+v", snap)
			}
			if triggered != 1 {
				t.Errorf("trigger ran %d times, want 1", triggered)
			}
		})
	})

	t.Run("edit after rejection returns to idle", func(t *testing.T) {
		api := &fakeAPI{updateFn: func(context.Context, models.Preferences) (models.Preferences, error) {
			return models.Preferences{}, errBoom
		}}
		c := seededController(api, ukScience)
		c.Apply(context.Background())

		c.SetCountry("fr")
		if c.Snapshot().Status != PreferencesIdle {
			t.Errorf("Status = %v, want idle", c.Snapshot().Status)
		}
	})

	t.Run("one apply in flight", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		api := &fakeAPI{updateFn: func(_ context.Context, p models.Preferences) (models.Preferences, error) {
			close(started)
			<-release
			return p, nil
		}}
		c := seededController(api, usSports)
		c.SetCountry("uk")
		c.SetTopic("science")

		var transitions []PreferenceStatus
		c.OnTransition(func(s PreferenceStatus) { transitions = append(transitions, s) })

		done := make(chan error, 1)
		go func() {
			_, err := c.Apply(context.Background())
			done <- err
		}()
		<-started

		if c.Snapshot().Status != PreferencesApplying {
			t.Errorf("Status = %v, want applying", c.Snapshot().Status)
		}

		if _, err := c.Apply(context.Background()); !errors.Is(err, shared.ErrApplyInFlight) {
			t.Errorf("expected ErrApplyInFlight, got %v", err)
		}

		c.SetTopic("health")
		if c.Snapshot().Status != PreferencesApplying {
			t.Error("editing must not leave the applying state")
		}

		close(release)
		if err := <-done; err != nil {
			t.Fatalf("first Apply() error = %v", err)
		}
		if api.updates() != 1 {
			t.Errorf("sent %d updates, want 1", api.updates())
		}
		if len(transitions) != 2 || transitions[0] != PreferencesApplying || transitions[1] != PreferencesApplied {
			t.Errorf("transitions = %v", transitions)
		}
	})

	t.Run("profile reload during an apply", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		api := &fakeAPI{updateFn: func(_ context.Context, p models.Preferences) (models.Preferences, error) {
			close(started)
			<-release
			return p, nil
		}}
		c := seededController(api, usSports)
		c.SetCountry("uk")
		c.SetTopic("science")

		done := make(chan error, 1)
		go func() {
			_, err := c.Apply(context.Background())
			done <- err
		}()
		<-started

		c.Seed(deBusiness)
		snap := c.Snapshot()
		if snap.Status != PreferencesApplying {
			t.Errorf("Status = %v, want applying", snap.Status)
		}
		if snap.Acknowledged != deBusiness || snap.Draft != ukScience {
			t.Errorf("Snapshot() = %+v", snap)
		}

		if _, err := c.Apply(context.Background()); !errors.Is(err, shared.ErrApplyInFlight) {
			t.Errorf("expected ErrApplyInFlight, got %v", err)
		}

		close(release)
		if err := <-done; err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if api.updates() != 1 {
			t.Errorf("sent %d updates, want 1", api.updates())
		}
		if snap := c.Snapshot(); snap.Acknowledged != ukScience || snap.Status != PreferencesApplied {
			t.Errorf("Snapshot() = %+v", snap)
		}
	})

	t.Run("Reset discards an in-flight apply", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		api := &fakeAPI{updateFn: func(_ context.Context, p models.Preferences) (models.Preferences, error) {
			close(started)
			<-release
			return p, nil
		}}
		c := seededController(api, usSports)
		triggered := 0
		c.OnApplied(func(context.Context, models.Preferences) { triggered++ })
		c.SetCountry("uk")
		c.SetTopic("science")

		done := make(chan error, 1)
		go func() {
			_, err := c.Apply(context.Background())
			done <- err
		}()
		<-started
		c.Reset()
		close(release)

		if err := <-done; !errors.Is(err, ErrSuperseded) {
			t.Errorf("expected ErrSuperseded, got %v", err)
		}
		if snap := c.Snapshot(); snap.Acknowledged != (models.Preferences{}) || snap.Status != PreferencesIdle {
			t.Errorf("Snapshot() = %+v", snap)
		}
		if triggered != 0 {
			t.Error("trigger must not run for a discarded apply")
		}
	})

	t.Run("status names", func(t *testing.T) {
		for s, want := range map[PreferenceStatus]string{
			PreferencesIdle:     "idle",
			PreferencesApplying: "applying",
			PreferencesApplied:  "applied",
			PreferencesRejected: "rejected",
		} {
			if s.String() != want {
				t.Errorf("String() = %q, want %q", s.String(), want)
			}
		}
	})
}
