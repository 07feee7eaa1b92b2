package vdom

import (
	"regexp"
	"strings"
	"unicode"
)

// Markup filters for trees built from untrusted input. The plain
// constructors pass keys and values through unchanged; Safe* variants
// apply these filters first.

var (
	reOnOrFormAction      = regexp.MustCompile(`(?i)^(on|formAction$)`)
	reJavaScriptURI       = regexp.MustCompile(`(?i)^javascript:`)
	reJavaScriptOrHTMLURI = regexp.MustCompile(`(?i)^\s*(javascript:|data:text/html)`)
)

// NoScript renames script elements to p.
func NoScript(tag string) string {
	if tag == "script" {
		return "p"
	}
	return tag
}

// NoOnOrFormAction prefixes inline handler attributes (on*) and formAction
// with data-.
func NoOnOrFormAction(key string) string {
	if reOnOrFormAction.MatchString(key) {
		return "data-" + key
	}
	return key
}

// NoInnerHTMLOrFormAction prefixes the innerHTML and formAction
// properties with data-.
func NoInnerHTMLOrFormAction(key string) string {
	if key == "innerHTML" || key == "formAction" {
		return "data-" + key
	}
	return key
}

// NoJavaScriptURI blanks javascript: URIs, ignoring embedded whitespace.
func NoJavaScriptURI(value string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
	if reJavaScriptURI.MatchString(compact) {
		return ""
	}
	return value
}

// NoJavaScriptOrHTMLURI blanks javascript: and data:text/html URIs.
func NoJavaScriptOrHTMLURI(value string) string {
	if reJavaScriptOrHTMLURI.MatchString(value) {
		return ""
	}
	return value
}

// SafeNode creates an element with script tags neutralized.
func SafeNode(tag string, facts []Fact, children []*VNode) *VNode {
	return Node(NoScript(tag), facts, children)
}

// SafeAttribute creates an attribute fact with handler attributes and
// javascript: URIs neutralized.
func SafeAttribute(key, value string) Fact {
	return Attribute(NoOnOrFormAction(key), NoJavaScriptURI(value))
}

// SafeProperty creates a string property fact with dangerous keys renamed
// and script URIs blanked.
func SafeProperty(key, value string) Fact {
	return Property(NoInnerHTMLOrFormAction(key), NoJavaScriptOrHTMLURI(value))
}
