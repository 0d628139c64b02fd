//go:build js && wasm

// Command blaze-wasm is the WebAssembly build of the site's browser
// behaviours. Load it with wasm_exec.js in place of the blaze-scripts.
package main

import (
	"context"

	"github.com/ziadkadry99/blaze/internal/callout"
	"github.com/ziadkadry99/blaze/internal/copycode"
	"github.com/ziadkadry99/blaze/internal/dom"
	"github.com/ziadkadry99/blaze/internal/sidebarstate"
)

func main() {
	dom.OnReady(func() {
		callout.Attach(dom.Callouts())
		copycode.NewInjector(dom.NavigatorClipboard{}).Inject(context.Background(), dom.CodeBlocks())
		sidebarstate.New(dom.SessionStorage{}).Attach(dom.SidebarWidgets())
	})

	select {}
}
