package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://github.com/vango-dev/vtree/blob/main/docs/errors.md#"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Engine Errors (E101-E199)
	// ============================================

	"E101": {
		Category: CategoryEngine,
		Message:  "Unknown patch kind",
		Detail:   "The patcher received a patch whose kind it does not recognize. Patch lists must come from vdom.Diff.",
		DocURL:   docBase + "e101",
	},
	"E102": {
		Category: CategoryEngine,
		Message:  "Patch target not resolved",
		Detail:   "A patch index did not match any node of the old tree. The live tree and the old node tree are out of step.",
		DocURL:   docBase + "e102",
	},
	"E103": {
		Category: CategoryEngine,
		Message:  "Live tree mismatch",
		Detail:   "The live tree does not have the shape of the old node tree it was rendered from.",
		DocURL:   docBase + "e103",
	},

	// ============================================
	// Protocol Errors (E201-E299)
	// ============================================

	"E201": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "A frame could not be decoded. It may be truncated or written by an incompatible version.",
		DocURL:   docBase + "e201",
	},
	"E202": {
		Category: CategoryProtocol,
		Message:  "Node cannot be encoded",
		Detail:   "Custom widget nodes manage their own live representation and have no wire form.",
		DocURL:   docBase + "e202",
	},
	"E203": {
		Category: CategoryProtocol,
		Message:  "Unknown frame type",
		Detail:   "The frame header names a type this version does not understand.",
		DocURL:   docBase + "e203",
	},
	"E204": {
		Category: CategoryProtocol,
		Message:  "Event target not found",
		Detail:   "The event frame addresses a node index outside the live tree.",
		DocURL:   docBase + "e204",
	},

	// ============================================
	// Document Errors (E301-E399)
	// ============================================

	"E301": {
		Category: CategoryDocument,
		Message:  "Tree document parse failed",
		Detail:   "The tree document is not valid YAML, JSON or HTML.",
		DocURL:   docBase + "e301",
	},
	"E302": {
		Category: CategoryDocument,
		Message:  "Invalid node",
		Detail:   "A node must have exactly one of text, tag or map.",
		DocURL:   docBase + "e302",
	},
	"E303": {
		Category: CategoryDocument,
		Message:  "Unsupported document type",
		Detail:   "Tree documents must use the .yaml, .yml, .json or .html extension.",
		DocURL:   docBase + "e303",
	},

	// ============================================
	// Config Errors (E401-E499)
	// ============================================

	"E401": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "vtree.json could not be parsed.",
		DocURL:   docBase + "e401",
	},
	"E402": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range.",
		DocURL:   docBase + "e402",
	},

	// ============================================
	// CLI and Storage Errors (E501-E599)
	// ============================================

	"E501": {
		Category: CategoryCLI,
		Message:  "Cannot read input",
		Detail:   "An input file could not be opened.",
		DocURL:   docBase + "e501",
	},
	"E502": {
		Category: CategoryCLI,
		Message:  "Round trip mismatch",
		Detail:   "Applying the computed patches did not produce the same markup as rendering the new tree.",
		DocURL:   docBase + "e502",
	},
	"E503": {
		Category: CategoryCLI,
		Message:  "Unknown output format",
		Detail:   "The requested output format is not supported.",
		DocURL:   docBase + "e503",
	},
	"E510": {
		Category: CategoryStorage,
		Message:  "Snapshot write failed",
		Detail:   "The snapshot store rejected the write.",
		DocURL:   docBase + "e510",
	},
	"E511": {
		Category: CategoryStorage,
		Message:  "Snapshot not found",
		Detail:   "No snapshot exists under the requested key.",
		DocURL:   docBase + "e511",
	},
}

// Codes returns the registered error codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
