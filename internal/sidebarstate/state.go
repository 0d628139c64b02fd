// Package sidebarstate remembers which sidebar disclosure widgets are open
// across page reloads within a single browsing session.
//
// The state lives in session-scoped key-value storage under a single key
// as a JSON object mapping widget keys to their open flag. Persistence is
// best-effort: every storage or parse failure degrades to "no prior state"
// on load and to a skipped write on save.
package sidebarstate

import (
	"encoding/json"
)

// StorageKey is the session storage entry holding the serialized state.
const StorageKey = "sidebar.details"

// Storage is session-scoped string key-value storage, e.g. the browser's
// sessionStorage. GetItem reports ok=false when the key is absent.
type Storage interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
}

// State maps widget keys to their persisted open flag. Keys present are
// authoritative for the widget's restored state; absent keys leave the
// markup default untouched.
type State map[string]bool

// LoadState reads the persisted state from storage. An absent entry, a
// payload that is not a JSON object of booleans, or a storage failure all
// yield an empty State.
func LoadState(s Storage) State {
	raw, ok, err := s.GetItem(StorageKey)
	if err != nil || !ok || raw == "" {
		return State{}
	}

	// Pointers tell a null value apart from false.
	var decoded map[string]*bool
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil || decoded == nil {
		return State{}
	}
	st := make(State, len(decoded))
	for k, v := range decoded {
		if v == nil {
			return State{}
		}
		st[k] = *v
	}
	return st
}

// SaveState serializes st and writes it back under StorageKey. Write
// failures such as an exceeded quota are ignored.
func SaveState(s Storage, st State) {
	if st == nil {
		st = State{}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	_ = s.SetItem(StorageKey, string(data))
}
