package render

import (
	"fmt"
	"io"

	"golang.org/x/net/html"

	"github.com/vango-dev/vtree/pkg/dom"
)

// RootID is the id of the element wrapping the page body.
const RootID = "vtree-root"

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Body is the live tree rendered inside the root element.
	Body *dom.Node

	// Title is the page title.
	Title string

	// Lang is the language attribute for the html element.
	// Defaults to "en" if not specified.
	Lang string

	// StyleSheets contains paths to external stylesheets.
	StyleSheets []string

	// Styles contains inline CSS.
	Styles []string

	// SocketURL is the websocket endpoint streaming frames for this page.
	SocketURL string

	// Cycle is the render cycle the body belongs to.
	Cycle uint64
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	if err := r.renderPreamble(w, page); err != nil {
		return err
	}
	if err := r.renderBody(w, page); err != nil {
		return err
	}
	return r.renderClosing(w, page)
}

func (r *Renderer) renderPreamble(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}
	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n", html.EscapeString(lang)); err != nil {
		return err
	}
	return r.renderHead(w, page)
}

func (r *Renderer) renderHead(w io.Writer, page PageData) error {
	if _, err := io.WriteString(w, "<head>\n  <meta charset=\"utf-8\">\n"); err != nil {
		return err
	}
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", html.EscapeString(page.Title)); err != nil {
			return err
		}
	}
	for _, href := range page.StyleSheets {
		if _, err := fmt.Fprintf(w, "  <link rel=\"stylesheet\" href=\"%s\">\n", html.EscapeString(href)); err != nil {
			return err
		}
	}
	for _, style := range page.Styles {
		if _, err := fmt.Fprintf(w, "  <style>%s</style>\n", style); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</head>\n")
	return err
}

func (r *Renderer) renderBody(w io.Writer, page PageData) error {
	if _, err := fmt.Fprintf(w, "<body>\n<div id=\"%s\" data-cycle=\"%d\">", RootID, page.Cycle); err != nil {
		return err
	}
	if err := r.RenderToWriter(w, page.Body); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</div>\n")
	return err
}

func (r *Renderer) renderClosing(w io.Writer, page PageData) error {
	if page.SocketURL != "" {
		if _, err := fmt.Fprintf(w, "<script>window.__VTREE_SOCKET__=\"%s\";</script>\n",
			html.EscapeString(page.SocketURL)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}
