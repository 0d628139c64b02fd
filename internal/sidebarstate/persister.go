package sidebarstate

// Widget is a disclosure widget in the sidebar: a collapsible element with
// an open flag and a stable key assigned by the page markup.
//
// OnToggle registers a handler that runs after the widget's open flag has
// changed. Handlers run one at a time on the caller's event loop.
type Widget interface {
	Key() string
	Open() bool
	SetOpen(open bool)
	OnToggle(handler func())
}

// Persister restores widget state on page load and records every toggle.
type Persister struct {
	storage Storage
}

// New returns a Persister backed by storage.
func New(storage Storage) *Persister {
	return &Persister{storage: storage}
}

// Attach restores the persisted open flag of each widget and registers a
// toggle handler that writes the widget's new state back. An empty key is
// a key like any other. It returns the number of widgets attached.
func (p *Persister) Attach(widgets []Widget) int {
	state := LoadState(p.storage)

	for _, w := range widgets {
		key := w.Key()
		if open, ok := state[key]; ok {
			w.SetOpen(open)
		}
		w.OnToggle(p.recorder(w, key))
	}
	return len(widgets)
}

// Record stores the current open flag of the widget identified by key.
// The persisted map is re-read first so toggles recorded by sibling
// widgets since page load are kept.
func (p *Persister) Record(key string, open bool) {
	state := LoadState(p.storage)
	state[key] = open
	SaveState(p.storage, state)
}

func (p *Persister) recorder(w Widget, key string) func() {
	return func() {
		p.Record(key, w.Open())
	}
}
