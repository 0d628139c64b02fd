// Package copycode adds a "Copy" button to every rendered code block.
package copycode

import (
	"context"
	"log"
	"time"
)

// Button labels.
const (
	LabelCopy   = "Copy"
	LabelCopied = "Copied!"
	LabelError  = "Error"
)

// DefaultResetAfter is how long the "Copied!" label stays before the
// button reads "Copy" again.
const DefaultResetAfter = 2 * time.Second

// Block is a preformatted block on the page. Code reports false when the
// block has no code element to copy.
type Block interface {
	Code() (string, bool)
	AttachButton(label string) Button
}

// Button is the copy button injected next to a block.
type Button interface {
	SetLabel(label string)
	OnClick(handler func())
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Injector attaches copy buttons to code blocks.
type Injector struct {
	Clipboard  Clipboard
	ResetAfter time.Duration
	Logger     *log.Logger

	after func(d time.Duration, f func())
}

// NewInjector returns an Injector writing to clip.
func NewInjector(clip Clipboard) *Injector {
	return &Injector{Clipboard: clip, ResetAfter: DefaultResetAfter}
}

// Inject attaches a button to each block and returns the buttons in block
// order. Click handlers use ctx for clipboard writes.
func (in *Injector) Inject(ctx context.Context, blocks []Block) []Button {
	buttons := make([]Button, 0, len(blocks))
	for _, b := range blocks {
		btn := b.AttachButton(LabelCopy)
		btn.OnClick(in.copier(ctx, b, btn))
		buttons = append(buttons, btn)
	}
	return buttons
}

func (in *Injector) copier(ctx context.Context, b Block, btn Button) func() {
	return func() {
		text, ok := b.Code()
		if !ok {
			return
		}

		if err := in.Clipboard.WriteText(ctx, text); err != nil {
			in.logger().Printf("Failed to copy: %v", err)
			btn.SetLabel(LabelError)
			return
		}

		btn.SetLabel(LabelCopied)
		in.schedule(func() { btn.SetLabel(LabelCopy) })
	}
}

func (in *Injector) schedule(f func()) {
	d := in.ResetAfter
	if d <= 0 {
		d = DefaultResetAfter
	}
	if in.after != nil {
		in.after(d, f)
		return
	}
	time.AfterFunc(d, f)
}

func (in *Injector) logger() *log.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return log.Default()
}
