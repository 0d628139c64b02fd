package copycode

import (
	"context"
	"sync"
)

// Pre is an in-memory Block. A Pre built with hasCode=false has no code
// element.
type Pre struct {
	text    string
	hasCode bool
	button  *MemButton
}

// NewPre returns a Pre holding text.
func NewPre(text string, hasCode bool) *Pre {
	return &Pre{text: text, hasCode: hasCode}
}

func (p *Pre) Code() (string, bool) {
	return p.text, p.hasCode
}

func (p *Pre) AttachButton(label string) Button {
	p.button = &MemButton{label: label}
	return p.button
}

// Button returns the button attached to p, or nil.
func (p *Pre) Button() *MemButton { return p.button }

// MemButton is an in-memory Button. Labels may be changed from timer
// goroutines, so access is synchronized.
type MemButton struct {
	mu       sync.Mutex
	label    string
	handlers []func()
}

func (b *MemButton) SetLabel(label string) {
	b.mu.Lock()
	b.label = label
	b.mu.Unlock()
}

// Label returns the current label.
func (b *MemButton) Label() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.label
}

func (b *MemButton) OnClick(handler func()) {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
}

// Click runs the registered click handlers.
func (b *MemButton) Click() {
	b.mu.Lock()
	handlers := append([]func(){}, b.handlers...)
	b.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

// MemClipboard records written text. When Err is set every write fails.
type MemClipboard struct {
	Err error

	mu   sync.Mutex
	text string
}

func (c *MemClipboard) WriteText(_ context.Context, text string) error {
	if c.Err != nil {
		return c.Err
	}
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
	return nil
}

// Text returns the last text written.
func (c *MemClipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}
