package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Collection Errors (E001-E019)
	// ============================================

	"E001": {
		Category:   CategoryLookup,
		Message:    "Property not found",
		Suggestion: "Check the property name or Define it first",
	},
	"E002": {
		Category:   CategoryType,
		Message:    "Property type mismatch",
		Suggestion: "Request the property with the type it was defined with",
	},
	"E003": {
		Category:   CategoryLookup,
		Message:    "Property already exists",
		Suggestion: "Remove the existing property before adding a new one under the same name",
	},
	"E004": {
		Category: CategoryLookup,
		Message:  "Invalid property name",
	},

	// ============================================
	// Conversion Errors (E030-E039)
	// ============================================

	"E030": {
		Category: CategoryConversion,
		Message:  "Could not parse value",
	},
	"E031": {
		Category:   CategoryConversion,
		Message:    "Unsupported value type",
		Suggestion: "Supported types are string, bool, int, int16, int64, uint, float32 and float64",
	},

	// ============================================
	// Reactor Errors (E050-E059)
	// ============================================

	"E050": {
		Category:   CategoryReactor,
		Message:    "Reactor is not running",
		Suggestion: "Call reactor.Start() before connecting deferred subscribers",
	},
	"E051": {
		Category: CategoryReactor,
		Message:  "Reactor is already running",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Failed to read config file",
	},
	"E121": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Suggestion: "Create propctl.json or pass --config",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	"E123": {
		Category:   CategoryConfig,
		Message:    "Config file already exists",
		Suggestion: "Pass --force to overwrite it",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category:   CategoryCLI,
		Message:    "Invalid property flag",
		Suggestion: "Use --prop name:type=value, e.g. --prop retries:int=3",
	},
	"E141": {
		Category:   CategoryCLI,
		Message:    "Unknown error code",
		Suggestion: "Run `propctl explain` to list all codes",
	},

	// ============================================
	// HTTP Errors (E160-E179)
	// ============================================

	"E160": {
		Category: CategoryHTTP,
		Message:  "Request failed",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
