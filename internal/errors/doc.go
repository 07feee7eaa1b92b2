// Package errors provides structured errors for vtree.
//
// Every error has a code that maps to a registered template with a short
// message, a longer explanation and a documentation link. Errors raised
// while loading tree documents carry the file position.
//
// # Error Codes
//
//   - E1xx: engine invariants (unknown patch kind, unresolved targets)
//   - E2xx: wire protocol
//   - E3xx: tree documents
//   - E4xx: configuration
//   - E5xx: CLI and snapshot storage
//
// # Usage
//
//	err := errors.New("E302").
//	    WithLocation("trees/list.yaml", 12, 5).
//	    WithSuggestion("Use either text: or tag:, not both")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E302: Invalid node
//	//
//	//   trees/list.yaml:12:5
//	//   ...
package errors
