//go:build js && wasm

package dom

import (
	"context"
	"fmt"
	"syscall/js"

	"github.com/ziadkadry99/blaze/internal/callout"
	"github.com/ziadkadry99/blaze/internal/copycode"
	"github.com/ziadkadry99/blaze/internal/sidebarstate"
)

// SessionStorage is window.sessionStorage. Accessing it can throw (e.g.
// when storage is disabled), which surfaces here as a recovered panic.
type SessionStorage struct{}

func (SessionStorage) GetItem(key string) (value string, ok bool, err error) {
	defer recoverInto(&err)

	v := js.Global().Get("sessionStorage").Call("getItem", key)
	if v.IsNull() || v.IsUndefined() {
		return "", false, nil
	}
	return v.String(), true, nil
}

func (SessionStorage) SetItem(key, value string) (err error) {
	defer recoverInto(&err)

	js.Global().Get("sessionStorage").Call("setItem", key, value)
	return nil
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("dom: %v", r)
	}
}

// Details wraps a <details data-key> element.
type Details struct {
	el js.Value
}

func (d Details) Key() string {
	v := d.el.Call("getAttribute", "data-key")
	if v.IsNull() {
		return ""
	}
	return v.String()
}

func (d Details) Open() bool { return d.el.Get("open").Bool() }

func (d Details) SetOpen(open bool) { d.el.Set("open", open) }

func (d Details) OnToggle(handler func()) {
	d.el.Call("addEventListener", "toggle", js.FuncOf(func(js.Value, []js.Value) any {
		handler()
		return nil
	}))
}

// SidebarWidgets returns every keyed <details> element in the document.
func SidebarWidgets() []sidebarstate.Widget {
	var out []sidebarstate.Widget
	each("details[data-key]", func(el js.Value) {
		out = append(out, Details{el: el})
	})
	return out
}

// CalloutElement wraps a foldable .callout element.
type CalloutElement struct {
	el js.Value
}

func (c CalloutElement) Fold() string {
	v := c.el.Call("getAttribute", "data-callout-fold")
	if v.IsNull() {
		return ""
	}
	return v.String()
}

func (c CalloutElement) SetFold(state string) {
	c.el.Call("setAttribute", "data-callout-fold", state)
}

func (c CalloutElement) HasTitle() bool {
	return !c.title().IsNull()
}

func (c CalloutElement) OnTitleClick(handler func()) {
	c.title().Call("addEventListener", "click", js.FuncOf(func(js.Value, []js.Value) any {
		handler()
		return nil
	}))
}

func (c CalloutElement) title() js.Value {
	return c.el.Call("querySelector", ".callout-title")
}

// Callouts returns every foldable callout in the document.
func Callouts() []callout.Callout {
	var out []callout.Callout
	each(".callout[data-callout-fold]", func(el js.Value) {
		out = append(out, CalloutElement{el: el})
	})
	return out
}

// PreBlock wraps a <pre> element.
type PreBlock struct {
	el js.Value
}

func (p PreBlock) Code() (string, bool) {
	code := p.el.Call("querySelector", "code")
	if code.IsNull() {
		return "", false
	}
	return code.Get("innerText").String(), true
}

// AttachButton wraps the block in a .copy-code-container and appends a
// .copy-code-btn button after it.
func (p PreBlock) AttachButton(label string) copycode.Button {
	doc := js.Global().Get("document")

	container := doc.Call("createElement", "div")
	container.Set("className", "copy-code-container")

	btn := doc.Call("createElement", "button")
	btn.Set("className", "copy-code-btn")
	btn.Set("textContent", label)

	p.el.Get("parentNode").Call("insertBefore", container, p.el)
	container.Call("appendChild", p.el)
	container.Call("appendChild", btn)

	return buttonElement{el: btn}
}

type buttonElement struct {
	el js.Value
}

func (b buttonElement) SetLabel(label string) { b.el.Set("textContent", label) }

func (b buttonElement) OnClick(handler func()) {
	b.el.Call("addEventListener", "click", js.FuncOf(func(js.Value, []js.Value) any {
		// Clipboard writes await a promise; keep the event loop free.
		go handler()
		return nil
	}))
}

// CodeBlocks returns every <pre> element in the document.
func CodeBlocks() []copycode.Block {
	var out []copycode.Block
	each("pre", func(el js.Value) {
		out = append(out, PreBlock{el: el})
	})
	return out
}

// NavigatorClipboard is navigator.clipboard.
type NavigatorClipboard struct{}

func (NavigatorClipboard) WriteText(ctx context.Context, text string) error {
	clip := js.Global().Get("navigator").Get("clipboard")
	if clip.IsUndefined() {
		return fmt.Errorf("clipboard unavailable")
	}

	done := make(chan error, 1)
	onOK := js.FuncOf(func(js.Value, []js.Value) any {
		done <- nil
		return nil
	})
	onErr := js.FuncOf(func(_ js.Value, args []js.Value) any {
		msg := "unknown error"
		if len(args) > 0 {
			msg = args[0].Call("toString").String()
		}
		done <- fmt.Errorf("%s", msg)
		return nil
	})
	defer onOK.Release()
	defer onErr.Release()

	clip.Call("writeText", text).Call("then", onOK).Call("catch", onErr)

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnReady runs f once the document has been parsed.
func OnReady(f func()) {
	doc := js.Global().Get("document")
	if doc.Get("readyState").String() != "loading" {
		f()
		return
	}
	doc.Call("addEventListener", "DOMContentLoaded", js.FuncOf(func(js.Value, []js.Value) any {
		f()
		return nil
	}))
}

func each(selector string, f func(js.Value)) {
	nodes := js.Global().Get("document").Call("querySelectorAll", selector)
	for i := 0; i < nodes.Length(); i++ {
		f(nodes.Index(i))
	}
}
