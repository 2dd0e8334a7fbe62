package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Warnings (W001-W099)
	// ============================================

	"W001": {
		Category:   CategoryRuntime,
		Message:    "Cannot set reactive property on undefined, null, or primitive value",
		Suggestion: "Pass an *Object or *Array as the target.",
	},
	"W002": {
		Category:   CategoryRuntime,
		Message:    "Cannot delete reactive property on undefined, null, or primitive value",
		Suggestion: "Pass an *Object or *Array as the target.",
	},
	"W003": {
		Category:   CategoryPolicy,
		Message:    "Avoid adding reactive properties to a managed instance or its root data at runtime",
		Suggestion: "Declare the property upfront in the root data.",
	},
	"W004": {
		Category:   CategoryPolicy,
		Message:    "Avoid deleting properties on a managed instance or its root data",
		Suggestion: "Set the property to nil instead.",
	},
	"W005": {
		Category:   CategoryRuntime,
		Message:    "Write to a property that has a getter but no setter was dropped",
		Suggestion: "Define a setter or write to the underlying value.",
	},
	"W006": {
		Category:   CategoryRuntime,
		Message:    "Array index is out of range",
		Suggestion: "Array indices must not exceed 4294967294.",
	},

	// ============================================
	// Tooling Errors (E100-E199)
	// ============================================

	"E100": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Suggestion: "Check observer.json or observer.yaml against the documented fields.",
	},
	"E101": {
		Category:   CategoryDocument,
		Message:    "Document could not be loaded",
		Suggestion: "Use a .json, .yaml or .yml file, or an s3://bucket/key URL.",
	},
	"E102": {
		Category: CategoryCLI,
		Message:  "Script step failed",
	},
	"E103": {
		Category:   CategoryDocument,
		Message:    "Path could not be resolved",
		Suggestion: "Paths are dot separated; array elements use numeric segments (items.0.name).",
	},
	"E104": {
		Category:   CategoryCLI,
		Message:    "Command failed",
		Suggestion: "Run observer help for usage.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
