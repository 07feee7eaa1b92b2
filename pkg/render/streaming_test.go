package render

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vango-dev/vtree/pkg/vdom"
)

func TestRenderPage(t *testing.T) {
	var buf bytes.Buffer
	page := PageData{
		Body:        build(vdom.Div("Content")),
		Title:       "A <Title>",
		StyleSheets: []string{"/app.css"},
		Styles:      []string{"body{margin:0}"},
		SocketURL:   "/ws",
		Cycle:       3,
	}

	if err := NewRenderer(RendererConfig{}).RenderPage(&buf, page); err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<html lang="en">`,
		"<title>A &lt;Title&gt;</title>",
		`<link rel="stylesheet" href="/app.css">`,
		"<style>body{margin:0}</style>",
		`<div id="vtree-root" data-cycle="3"><div>Content</div></div>`,
		`window.__VTREE_SOCKET__="/ws"`,
		"</html>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q:\n%s", want, html)
		}
	}
}

func TestRenderPageLang(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(RendererConfig{}).RenderPage(&buf, PageData{Lang: "de"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `<html lang="de">`) {
		t.Errorf("lang not applied:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "__VTREE_SOCKET__") {
		t.Error("socket script written without a SocketURL")
	}
}

func TestStreamingRendererRenderPage(t *testing.T) {
	w := httptest.NewRecorder()
	sr := NewStreamingRenderer(w, RendererConfig{})

	err := sr.RenderPage(PageData{Body: build(vdom.Div("Streamed Content")), Title: "Streaming Test"})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}

	html := w.Body.String()
	if !strings.HasPrefix(html, "<!DOCTYPE html>") {
		t.Errorf("should start with DOCTYPE")
	}
	if !strings.Contains(html, "<div>Streamed Content</div>") {
		t.Errorf("should contain body content")
	}
	if !w.Flushed {
		t.Error("recorder was never flushed")
	}
}

func TestStreamingRendererFlushes(t *testing.T) {
	var buf bytes.Buffer
	fw := &FlushableWriter{Writer: &buf}
	sr := NewStreamingRenderer(fw, RendererConfig{})

	if err := sr.RenderPage(PageData{Body: build(vdom.P("x"))}); err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	if fw.FlushCount != 3 {
		t.Errorf("FlushCount = %d, want 3", fw.FlushCount)
	}
}
