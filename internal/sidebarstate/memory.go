package sidebarstate

import (
	"errors"
	"sync"
)

// ErrQuotaExceeded is returned by MemoryStorage writes that would exceed
// its quota.
var ErrQuotaExceeded = errors.New("sidebarstate: storage quota exceeded")

// MemoryStorage is an in-process Storage. A zero Quota means unlimited;
// otherwise SetItem fails when the total size of all values would exceed
// Quota bytes.
type MemoryStorage struct {
	Quota int

	mu    sync.Mutex
	items map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.items == nil {
		m.items = make(map[string]string)
	}
	if m.Quota > 0 {
		size := len(value)
		for k, v := range m.items {
			if k != key {
				size += len(v)
			}
		}
		if size > m.Quota {
			return ErrQuotaExceeded
		}
	}
	m.items[key] = value
	return nil
}

// Clear drops every entry, as when the browsing session ends.
func (m *MemoryStorage) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]string)
}

// Details is an in-memory Widget modelled on an HTML <details> element:
// changing its open flag fires the registered toggle handlers, setting it
// to its current value does not.
type Details struct {
	key      string
	open     bool
	handlers []func()
}

// NewDetails returns a Details with the given key and markup default.
func NewDetails(key string, open bool) *Details {
	return &Details{key: key, open: open}
}

func (d *Details) Key() string { return d.key }

func (d *Details) Open() bool { return d.open }

func (d *Details) SetOpen(open bool) {
	if d.open == open {
		return
	}
	d.open = open
	for _, h := range d.handlers {
		h()
	}
}

func (d *Details) OnToggle(handler func()) {
	d.handlers = append(d.handlers, handler)
}

// Toggle flips the open flag, as a click on the summary would.
func (d *Details) Toggle() {
	d.SetOpen(!d.open)
}
