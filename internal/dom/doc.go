// Package dom binds the sidebar, callout, and copy-code behaviours to the
// browser DOM through syscall/js. It is only populated in js/wasm builds.
package dom
