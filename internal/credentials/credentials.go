// Package credentials manages the process-wide credential slots the search
// agent falls back to, and the per-call overrides staged on top of them.
package credentials

import (
	"os"
	"sync"
)

// Slot names a process-wide credential. Slots are environment variables.
type Slot string

const (
	SerperAPIKey       Slot = "SERPER_API_KEY"
	SearXNGInstanceURL Slot = "SEARXNG_INSTANCE_URL"
	SearXNGAPIKey      Slot = "SEARXNG_API_KEY"
	JinaAPIKey         Slot = "JINA_API_KEY"
)

// Slots lists every slot in staging order.
var Slots = []Slot{SerperAPIKey, SearXNGInstanceURL, SearXNGAPIKey, JinaAPIKey}

// Store reads and writes slot values.
type Store interface {
	Lookup(slot Slot) (string, bool)
	Set(slot Slot, value string) error
	Unset(slot Slot) error
}

// EnvStore is the Store backed by the process environment.
type EnvStore struct{}

func (EnvStore) Lookup(slot Slot) (string, bool) { return os.LookupEnv(string(slot)) }
func (EnvStore) Set(slot Slot, value string) error { return os.Setenv(string(slot), value) }
func (EnvStore) Unset(slot Slot) error { return os.Unsetenv(string(slot)) }

// Get returns the slot value, or "" when unset.
func Get(store Store, slot Slot) string {
	v, _ := store.Lookup(slot)
	return v
}

// Overrides maps slots to per-call values. Empty values are not staged.
type Overrides map[Slot]string

type saved struct {
	slot    Slot
	value   string
	present bool
}

// Stager applies overrides to a Store for the span of one call. Only one
// staging is active at a time: Stage blocks until the previous call's restore
// function has run.
type Stager struct {
	mu    sync.Mutex
	store Store
}

// NewStager creates a stager over store.
func NewStager(store Store) *Stager {
	return &Stager{store: store}
}

// Store returns the underlying slot store.
func (s *Stager) Store() Store {
	return s.store
}

// Stage records the prior state of every overridden slot, applies the
// overrides and returns a function that puts every slot back exactly as it
// was (absent slots are unset again). The returned function must be called
// exactly once, on every path; it releases the staging lock.
//
// On a Set failure the slots staged so far are restored, the lock is
// released and the error is returned.
func (s *Stager) Stage(overrides Overrides) (restore func() error, err error) {
	s.mu.Lock()

	var staged []saved
	undo := func() error {
		defer s.mu.Unlock()
		var firstErr error
		for i := len(staged) - 1; i >= 0; i-- {
			e := staged[i]
			var err error
			if e.present {
				err = s.store.Set(e.slot, e.value)
			} else {
				err = s.store.Unset(e.slot)
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for _, slot := range Slots {
		value, ok := overrides[slot]
		if !ok || value == "" {
			continue
		}
		prior, present := s.store.Lookup(slot)
		staged = append(staged, saved{slot: slot, value: prior, present: present})
		if err := s.store.Set(slot, value); err != nil {
			_ = undo()
			return nil, err
		}
	}

	var once sync.Once
	var restoreErr error
	return func() error {
		once.Do(func() { restoreErr = undo() })
		return restoreErr
	}, nil
}
