// Package eventconfig holds the process-wide event metadata shown on display
// surfaces: event name, datetime, and join URL. It is owned explicitly and
// injected where needed rather than living in a package-level global.
package eventconfig

import (
	"sync"

	"github.com/stagetalk/backend/internal/models"
)

// Outbound event names for metadata changes.
const (
	EventNameUpdated     = "event_name_updated"
	EventURLUpdated      = "event_url_updated"
	EventDatetimeUpdated = "event_datetime_updated"
)

// Store is a mutex-guarded event metadata record. In memory only; the record
// resets to its configured default on restart.
type Store struct {
	mu  sync.RWMutex
	cfg models.EventConfig
}

// NewStore creates the metadata store with its initial value.
func NewStore(initial models.EventConfig) *Store {
	return &Store{cfg: initial}
}

// Get returns the current metadata.
func (s *Store) Get() models.EventConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update overwrites the record wholesale and returns the new value for
// broadcast.
func (s *Store) Update(cfg models.EventConfig) models.EventConfig {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return cfg
}
