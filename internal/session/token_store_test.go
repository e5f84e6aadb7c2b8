package session

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/dailycast/internal/shared"
)

type failingSlot struct {
	loadErr, saveErr, deleteErr error
	saves, deletes              int
}

func (f *failingSlot) Load() (string, bool, error) { return "", false, f.loadErr }
func (f *failingSlot) Save(string) error {
	f.saves++
	return f.saveErr
}
func (f *failingSlot) Delete() error {
	f.deletes++
	return f.deleteErr
}

func TestTokenStore(t *testing.T) {
	t.Run("loads persisted token", func(t *testing.T) {
		slot := &MemorySlot{}
		slot.Save("persisted")

		store := NewTokenStore(slot, nil)
		token, ok := store.Get()
		if !ok || token != "persisted" {
			t.Errorf("Get() = %q, %v; want persisted, true", token, ok)
		}
	})

	t.Run("starts empty", func(t *testing.T) {
		store := NewTokenStore(&MemorySlot{}, nil)
		if _, ok := store.Get(); ok {
			t.Error("expected no token")
		}
	})

	t.Run("Set is visible immediately and persisted", func(t *testing.T) {
		slot := &MemorySlot{}
		store := NewTokenStore(slot, nil)

		store.Set("abc")
		if token, ok := store.Get(); !ok || token != "abc" {
			t.Errorf("Get() = %q, %v", token, ok)
		}

		reloaded := NewTokenStore(slot, nil)
		if token, ok := reloaded.Get(); !ok || token != "abc" {
			t.Errorf("token should survive a reload, got %q, %v", token, ok)
		}
	})

	t.Run("Clear removes durable copy", func(t *testing.T) {
		slot := &MemorySlot{}
		store := NewTokenStore(slot, nil)
		store.Set("abc")
		store.Clear()

		if _, ok := store.Get(); ok {
			t.Error("expected token to be cleared")
		}
		if _, ok, _ := slot.Load(); ok {
			t.Error("expected durable slot to be cleared")
		}
	})

	t.Run("Set empty acts like Clear", func(t *testing.T) {
		slot := &MemorySlot{}
		store := NewTokenStore(slot, nil)
		store.Set("abc")
		store.Set("")

		if _, ok, _ := slot.Load(); ok {
			t.Error("expected durable slot to be cleared")
		}
	})

	t.Run("degrades when load fails", func(t *testing.T) {
		var buf bytes.Buffer
		slot := &failingSlot{loadErr: errors.New("disk gone")}
		store := NewTokenStore(slot, shared.NewLogger(&buf))

		if !store.Degraded() {
			t.Fatal("expected degraded store")
		}

		store.Set("memory-only")
		if token, ok := store.Get(); !ok || token != "memory-only" {
			t.Errorf("degraded store should still serve tokens, got %q, %v", token, ok)
		}
		if slot.saves != 0 {
			t.Errorf("degraded store should stop writing, got %d saves", slot.saves)
		}
		if !strings.Contains(buf.String(), "memory only") {
			t.Errorf("expected a warning to be logged, got %q", buf.String())
		}
	})

	t.Run("degrades when save fails", func(t *testing.T) {
		slot := &failingSlot{saveErr: errors.New("read-only")}
		store := NewTokenStore(slot, shared.NewLogger(&bytes.Buffer{}))

		store.Set("first")
		store.Set("second")

		if !store.Degraded() {
			t.Error("expected degraded store after failed save")
		}
		if slot.saves != 1 {
			t.Errorf("expected a single save attempt, got %d", slot.saves)
		}
		if token, _ := store.Get(); token != "second" {
			t.Errorf("Get() = %q, want second", token)
		}

		store.Clear()
		if _, ok := store.Get(); ok {
			t.Error("Clear should still work when degraded")
		}
		if slot.deletes != 0 {
			t.Errorf("degraded store should not touch the slot, got %d deletes", slot.deletes)
		}
	})

	t.Run("nil slot is memory only", func(t *testing.T) {
		store := NewTokenStore(nil, nil)
		store.Set("abc")
		if token, ok := store.Get(); !ok || token != "abc" {
			t.Errorf("Get() = %q, %v", token, ok)
		}
		store.Clear()
		if !store.Degraded() {
			t.Error("nil slot should report degraded")
		}
	})
}
