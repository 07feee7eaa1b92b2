package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryEngine   Category = "engine"
	CategoryProtocol Category = "protocol"
	CategoryDocument Category = "document"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
	CategoryStorage  Category = "storage"
)

// Location represents a position in a tree document or config file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// VtreeError is a structured error with a code, an optional document
// location and a suggestion.
type VtreeError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the subsystem that raised the error.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the document position where the error occurred.
	Location *Location

	// Context contains surrounding document lines, starting at line
	// ContextStart.
	Context      []string
	ContextStart int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows the correct form.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *VtreeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *VtreeError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds source location to the error.
func (e *VtreeError) WithLocation(file string, line, column int) *VtreeError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context, e.ContextStart = readContextLines(file, line, 2)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *VtreeError) WithSuggestion(s string) *VtreeError {
	e.Suggestion = s
	return e
}

// WithExample adds a code example to the error.
func (e *VtreeError) WithExample(ex string) *VtreeError {
	e.Example = ex
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *VtreeError) WithDetail(d string) *VtreeError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *VtreeError) Wrap(err error) *VtreeError {
	e.Wrapped = err
	return e
}

// readContextLines returns up to radius lines on each side of line, and the
// number of the first one.
func readContextLines(filename string, line, radius int) ([]string, int) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, 0
	}
	defer f.Close()

	first := max(line-radius, 1)
	var lines []string
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan() && n <= line+radius; n++ {
		if n >= first {
			lines = append(lines, scanner.Text())
		}
	}
	return lines, first
}

// New creates a VtreeError from a registered error code.
func New(code string) *VtreeError {
	template, ok := registry[code]
	if !ok {
		return &VtreeError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &VtreeError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new VtreeError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *VtreeError {
	return &VtreeError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a VtreeError. Errors that already
// carry a code anywhere in their chain are returned as they are.
func FromError(err error, code string) *VtreeError {
	if err == nil {
		return nil
	}
	var ve *VtreeError
	if stderrors.As(err, &ve) {
		return ve
	}
	return New(code).Wrap(err)
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code string) bool {
	var ve *VtreeError
	for err != nil {
		if !stderrors.As(err, &ve) {
			return false
		}
		if ve.Code == code {
			return true
		}
		err = ve.Wrapped
	}
	return false
}
