// Package render serializes live trees to HTML.
//
// Output is deterministic: attributes are sorted, the style map is written
// as a sorted style attribute, and properties such as value and checked are
// reflected as attributes. Listeners are never written.
//
//	renderer := render.NewRenderer(render.RendererConfig{Pretty: true})
//	html, err := renderer.RenderToString(root)
//
// Minify runs the output through github.com/tdewolff/minify. RenderPage
// wraps a tree in a full document for the session server, and
// StreamingRenderer flushes the head before the body.
package render
