// Package callout folds and unfolds collapsible callout boxes when their
// title is clicked.
package callout

// Fold states carried by the data-callout-fold attribute.
const (
	Collapsed = "collapsed"
	Expanded  = "expanded"
)

// Callout is a rendered callout box. Fold returns "" for callouts that are
// not foldable.
type Callout interface {
	Fold() string
	SetFold(state string)
	HasTitle() bool
	OnTitleClick(handler func())
}

// Attach registers a title click handler on every foldable callout that
// has a title and returns how many were attached.
func Attach(callouts []Callout) int {
	n := 0
	for _, c := range callouts {
		if c.Fold() == "" || !c.HasTitle() {
			continue
		}
		c.OnTitleClick(toggler(c))
		n++
	}
	return n
}

// Next returns the fold state that follows current.
func Next(current string) string {
	if current == Collapsed {
		return Expanded
	}
	return Collapsed
}

func toggler(c Callout) func() {
	return func() {
		c.SetFold(Next(c.Fold()))
	}
}

// Box is an in-memory Callout.
type Box struct {
	fold     string
	title    bool
	handlers []func()
}

// NewBox returns a Box with the given fold state and title presence.
func NewBox(fold string, hasTitle bool) *Box {
	return &Box{fold: fold, title: hasTitle}
}

func (b *Box) Fold() string { return b.fold }

func (b *Box) SetFold(state string) { b.fold = state }

func (b *Box) HasTitle() bool { return b.title }

func (b *Box) OnTitleClick(handler func()) {
	b.handlers = append(b.handlers, handler)
}

// ClickTitle runs the registered title click handlers.
func (b *Box) ClickTitle() {
	for _, h := range b.handlers {
		h()
	}
}
