// package session owns the authentication token for the lifetime of the process
package session

import (
	"sync"

	"github.com/charmbracelet/log"
)

// TokenSlot is the well-known slot name the token is stored under.
const TokenSlot = "token"

// Slot is durable storage for a single opaque value.
//
// Load returns ok=false when nothing is stored.
type Slot interface {
	Load() (value string, ok bool, err error)
	Save(value string) error
	Delete() error
}

// TokenReader is the read-only view of the session handed to components that may not end a session.
type TokenReader interface {
	Get() (string, bool)
}

// TokenStore holds the current token in memory and mirrors every change to a durable [Slot].
//
// When the slot fails the store keeps working from memory for the rest of the process and reports [TokenStore.Degraded].
// None of its methods return errors.
type TokenStore struct {
	mu       sync.RWMutex
	slot     Slot
	token    string
	present  bool
	degraded bool
	logger   *log.Logger
}

// NewTokenStore creates a store backed by slot and loads any persisted token.
// A nil slot gives a memory-only store.
func NewTokenStore(slot Slot, logger *log.Logger) *TokenStore {
	if logger == nil {
		logger = log.Default()
	}
	s := &TokenStore{slot: slot, logger: logger}

	if slot == nil {
		s.degraded = true
		return s
	}

	token, ok, err := slot.Load()
	if err != nil {
		s.degrade("load", err)
		return s
	}
	s.token, s.present = token, ok && token != ""
	return s
}

// Get returns the current token, if any.
func (s *TokenStore) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.present
}

// Set replaces the token. The new value is visible to Get before the durable write happens.
func (s *TokenStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token, s.present = token, token != ""
	if s.degraded {
		return
	}
	if !s.present {
		s.deleteLocked()
		return
	}
	if err := s.slot.Save(token); err != nil {
		s.degrade("save", err)
	}
}

// Clear removes the token from memory and durable storage.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token, s.present = "", false
	if !s.degraded {
		s.deleteLocked()
	}
}

// Degraded reports whether the store has fallen back to memory only.
func (s *TokenStore) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

func (s *TokenStore) deleteLocked() {
	if err := s.slot.Delete(); err != nil {
		s.degrade("delete", err)
	}
}

func (s *TokenStore) degrade(op string, err error) {
	s.degraded = true
	s.logger.Warn("session storage unavailable, keeping token in memory only", "op", op, "err", err)
}

// MemorySlot is a [Slot] that lives only as long as the process.
type MemorySlot struct {
	mu    sync.Mutex
	value string
	ok    bool
}

func (m *MemorySlot) Load() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.ok, nil
}

func (m *MemorySlot) Save(value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.ok = value, true
	return nil
}

func (m *MemorySlot) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value, m.ok = "", false
	return nil
}
