package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Style selects how errors are written by Fprint.
type Style int

const (
	// StylePretty is the multi-line terminal report with a source excerpt.
	StylePretty Style = iota
	// StyleCompact is one line: location, code, message and cause.
	StyleCompact
	// StyleJSON is one JSON object per error.
	StyleJSON
)

var styleNames = map[string]Style{
	"pretty":  StylePretty,
	"compact": StyleCompact,
	"json":    StyleJSON,
}

// ParseStyle maps a flag value to a Style.
func ParseStyle(name string) (Style, error) {
	if s, ok := styleNames[name]; ok {
		return s, nil
	}
	return StylePretty, New("E503").WithDetail(fmt.Sprintf("unknown error format %q", name)).
		WithSuggestion("Use pretty, compact or json")
}

// ANSI sequences used by the pretty style.
const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[1;31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

// colorEnabled is off when NO_COLOR is set.
var colorEnabled = os.Getenv("NO_COLOR") == ""

// DisableColors turns off ANSI sequences in the pretty style.
func DisableColors() { colorEnabled = false }

// EnableColors turns on ANSI sequences in the pretty style.
func EnableColors() { colorEnabled = true }

func paint(seq, text string) string {
	if !colorEnabled || text == "" {
		return text
	}
	return seq + text + ansiReset
}

// Format renders the error as a terminal report:
//
//	error[E302] document: Invalid node
//	  --> tree.yaml:3:5
//	   |
//	 3 |   - text: a
//	   |     ^
//	   = A node must have exactly one of text, tag or map.
//	   = hint: Use either text or tag
func (e *VtreeError) Format() string {
	var b strings.Builder

	head := "error"
	if e.Code != "" {
		head += "[" + e.Code + "]"
	}
	b.WriteString(paint(ansiRed, head))
	if e.Category != "" {
		b.WriteString(" " + string(e.Category) + ":")
	}
	b.WriteString(" " + paint(ansiBold, e.Message) + "\n")

	gutter := 1
	if e.Location != nil && len(e.Context) > 0 {
		gutter = len(fmt.Sprint(e.ContextStart + len(e.Context) - 1))
	}
	pad := strings.Repeat(" ", gutter)
	bar := paint(ansiGray, "|")

	if e.Location != nil {
		fmt.Fprintf(&b, "%s%s %s\n", pad, paint(ansiCyan, "-->"), e.Location)
		if len(e.Context) > 0 {
			fmt.Fprintf(&b, "%s %s\n", pad, bar)
			for i, line := range e.Context {
				n := e.ContextStart + i
				fmt.Fprintf(&b, "%*d %s %s\n", gutter, n, bar, line)
				if n == e.Location.Line && e.Location.Column > 0 {
					fmt.Fprintf(&b, "%s %s %s%s\n", pad, bar,
						strings.Repeat(" ", e.Location.Column-1), paint(ansiRed, "^"))
				}
			}
		}
	}

	note := func(label, text string) {
		if text == "" {
			return
		}
		lines := strings.Split(text, "\n")
		fmt.Fprintf(&b, "%s %s %s%s\n", pad, paint(ansiCyan, "="), label, lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintf(&b, "%s   %s%s\n", pad, strings.Repeat(" ", len(label)), l)
		}
	}
	note("", e.Detail)
	if e.Wrapped != nil {
		note("cause: ", e.Wrapped.Error())
	}
	note("hint: ", e.Suggestion)
	note("example: ", e.Example)
	note("see ", e.DocURL)
	return b.String()
}

// FormatCompact renders the error on one line, for logs:
// "tree.yaml:3:5: E302 Invalid node: cause".
func (e *VtreeError) FormatCompact() string {
	var parts []string
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + " " + msg
	}
	parts = append(parts, msg)
	if e.Detail != "" && e.Detail != registry[e.Code].Detail {
		parts = append(parts, e.Detail)
	}
	if e.Wrapped != nil {
		parts = append(parts, e.Wrapped.Error())
	}
	return strings.Join(parts, ": ")
}

type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

type jsonError struct {
	Code       string        `json:"code,omitempty"`
	Category   Category      `json:"category,omitempty"`
	Message    string        `json:"message"`
	Detail     string        `json:"detail,omitempty"`
	Location   *jsonLocation `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	Cause      string        `json:"cause,omitempty"`
	DocURL     string        `json:"docUrl,omitempty"`
}

// FormatJSON renders the error as a single JSON object.
func (e *VtreeError) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Location != nil {
		out.Location = &jsonLocation{File: e.Location.File, Line: e.Location.Line, Column: e.Location.Column}
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// Fprint writes err to w in the given style. Errors without a code are
// written as uncoded errors of the same shape.
func Fprint(w io.Writer, err error, style Style) {
	var ve *VtreeError
	if !stderrors.As(err, &ve) {
		ve = &VtreeError{Message: err.Error()}
	}
	switch style {
	case StyleCompact:
		fmt.Fprintln(w, ve.FormatCompact())
	case StyleJSON:
		fmt.Fprintln(w, ve.FormatJSON())
	default:
		fmt.Fprint(w, ve.Format())
	}
}

// Compact returns err in the one-line form. Uncoded errors are returned as
// err.Error().
func Compact(err error) string {
	var ve *VtreeError
	if stderrors.As(err, &ve) {
		return ve.FormatCompact()
	}
	return err.Error()
}

// Attr returns err as the "error" attribute of a log record.
func Attr(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", Compact(err))
}
