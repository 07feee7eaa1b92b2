package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	tests := []struct {
		code     string
		message  string
		category Category
	}{
		{"E101", "Unknown patch kind", CategoryEngine},
		{"E202", "Node cannot be encoded", CategoryProtocol},
		{"E302", "Invalid node", CategoryDocument},
		{"E402", "Invalid configuration value", CategoryConfig},
		{"E511", "Snapshot not found", CategoryStorage},
		{"E999", "Unknown error", ""},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code)
			if err.Code != tt.code || err.Message != tt.message || err.Category != tt.category {
				t.Errorf("New(%s) = %+v", tt.code, err)
			}
			if want := tt.code + ": " + tt.message; err.Error() != want {
				t.Errorf("Error() = %q, want %q", err.Error(), want)
			}
		})
	}
}

func TestCodes(t *testing.T) {
	codes := Codes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	for _, code := range codes {
		tmpl, ok := Lookup(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s: incomplete template %+v", code, tmpl)
		}
		if !strings.HasSuffix(tmpl.DocURL, strings.ToLower(code)) {
			t.Errorf("%s: doc URL %q", code, tmpl.DocURL)
		}
	}
	if _, ok := Lookup("E999"); ok {
		t.Error("Lookup(E999) should fail")
	}
}

func TestWithLocationContext(t *testing.T) {
	path := writeTree(t, "tag: ul\nchildren:\n  - tag: li\n    text: a\n  - text: tail\n")

	tests := []struct {
		line      int
		wantStart int
		wantLines int
	}{
		{line: 1, wantStart: 1, wantLines: 3},
		{line: 3, wantStart: 1, wantLines: 5},
		{line: 5, wantStart: 3, wantLines: 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.line), func(t *testing.T) {
			err := New("E302").WithLocation(path, tt.line, 5)
			if err.ContextStart != tt.wantStart || len(err.Context) != tt.wantLines {
				t.Errorf("context starts at %d with %d lines, want %d and %d",
					err.ContextStart, len(err.Context), tt.wantStart, tt.wantLines)
			}
		})
	}

	if err := New("E302").WithLocation(filepath.Join(t.TempDir(), "gone.yaml"), 3, 1); err.Context != nil {
		t.Errorf("missing file gave context %q", err.Context)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	path := writeTree(t, "tag: div\nchildren:\n  - text: a\n    tag: p\n")
	err := New("E302").
		WithLocation(path, 3, 5).
		WithDetail("a node must have exactly one of text, tag or map").
		WithSuggestion("Drop text or tag").
		WithExample("tag: p\nchildren:\n  - text: a")

	got := err.Format()
	for _, want := range []string{
		"error[E302] document: Invalid node\n",
		"--> " + path + ":3:5\n",
		"3 |   - text: a\n",
		"  |     ^\n",
		"= a node must have exactly one of text, tag or map\n",
		"= hint: Drop text or tag\n",
		"= example: tag: p\n",
		"           children:\n",
		"= see https://",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Format() is missing %q:\n%s", want, got)
		}
	}
}

func TestFormatColors(t *testing.T) {
	EnableColors()
	if got := New("E101").Format(); !strings.Contains(got, ansiRed+"error[E101]"+ansiReset) {
		t.Errorf("colored header missing:\n%q", got)
	}
	DisableColors()
	defer EnableColors()
	if got := New("E101").Format(); strings.Contains(got, "\033[") {
		t.Errorf("ANSI sequences with colors disabled:\n%q", got)
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		name string
		err  *VtreeError
		want string
	}{
		{"code only", New("E101"), "E101 Unknown patch kind"},
		{"located", New("E302").WithLocation("tree.yaml", 10, 5), "tree.yaml:10:5: E302 Invalid node"},
		{"detail", New("E402").WithDetail("port 70000 out of range"), "E402 Invalid configuration value: port 70000 out of range"},
		{"cause", New("E501").Wrap(fs.ErrNotExist), "E501 Cannot read input: file does not exist"},
		{"uncoded", Newf(CategoryCLI, "no config path set"), "no config path set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.FormatCompact(); got != tt.want {
				t.Errorf("FormatCompact() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("E302").WithLocation("tree.yaml", 4, 2).WithDetail(`map "row" has no child`).Wrap(fs.ErrInvalid)

	var got map[string]any
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("FormatJSON() is not JSON: %v", jerr)
	}
	want := map[string]any{
		"code":     "E302",
		"category": "document",
		"message":  "Invalid node",
		"detail":   `map "row" has no child`,
		"cause":    "invalid argument",
		"location": map[string]any{"file": "tree.yaml", "line": float64(4), "column": float64(2)},
	}
	for k, v := range want {
		if fmt.Sprint(got[k]) != fmt.Sprint(v) {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestParseStyle(t *testing.T) {
	for name, want := range map[string]Style{"pretty": StylePretty, "compact": StyleCompact, "json": StyleJSON} {
		if got, err := ParseStyle(name); err != nil || got != want {
			t.Errorf("ParseStyle(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseStyle("xml"); !Is(err, "E503") {
		t.Errorf("ParseStyle(xml) err = %v, want E503", err)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	wrapped := fmt.Errorf("load: %w", New("E501").WithDetail("cannot open a.yaml"))
	tests := []struct {
		name  string
		err   error
		style Style
		want  string
	}{
		{"compact", wrapped, StyleCompact, "E501 Cannot read input: cannot open a.yaml\n"},
		{"json", wrapped, StyleJSON, `"code":"E501"`},
		{"pretty", wrapped, StylePretty, "error[E501] cli: Cannot read input\n"},
		{"plain error", stderrors.New("boom"), StyleCompact, "boom\n"},
		{"plain error pretty", stderrors.New("boom"), StylePretty, "error boom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b bytes.Buffer
			Fprint(&b, tt.err, tt.style)
			if !strings.Contains(b.String(), tt.want) {
				t.Errorf("Fprint() = %q, want it to contain %q", b.String(), tt.want)
			}
		})
	}
}

func TestAttr(t *testing.T) {
	var b bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&b, nil))
	logger.Warn("snapshot failed", Attr(fmt.Errorf("save: %w", New("E510").Wrap(fs.ErrPermission))))
	logger.Warn("read error", Attr(stderrors.New("closed")))

	out := b.String()
	for _, want := range []string{
		`error="E510 Snapshot write failed: permission denied"`,
		`error=closed`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log is missing %s:\n%s", want, out)
		}
	}
}

func TestFromErrorAndIs(t *testing.T) {
	if FromError(nil, "E101") != nil {
		t.Error("FromError(nil) should be nil")
	}

	coded := New("E201")
	if FromError(fmt.Errorf("read: %w", coded), "E501") != coded {
		t.Error("FromError should return the coded error in the chain")
	}

	plain := FromError(fs.ErrClosed, "E501")
	if plain.Code != "E501" || !stderrors.Is(plain, fs.ErrClosed) {
		t.Errorf("FromError(plain) = %+v", plain)
	}

	chain := fmt.Errorf("decode: %w", New("E102").Wrap(coded))
	for code, want := range map[string]bool{"E102": true, "E201": true, "E301": false} {
		if Is(chain, code) != want {
			t.Errorf("Is(chain, %s) = %v, want %v", code, !want, want)
		}
	}
	if Is(nil, "E101") {
		t.Error("Is(nil) should be false")
	}
}
