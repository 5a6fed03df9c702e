package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (A001-A099)
	// ============================================

	"A001": {Category: CategoryRuntime, Message: "Target node is nil"},
	"A002": {Category: CategoryRuntime, Message: "Host does not support mutation observation"},
	"A003": {Category: CategoryRuntime, Message: "Timeout must not be negative"},
	"A004": {Category: CategoryRuntime, Message: "Observer could not be attached"},
	"A010": {Category: CategoryRuntime, Message: "Subscription closed"},
	"A011": {Category: CategoryRuntime, Message: "Event loop stopped"},

	// ============================================
	// Config Errors (A100-A199)
	// ============================================

	"A100": {Category: CategoryConfig, Message: "Config file not found"},
	"A101": {Category: CategoryConfig, Message: "Invalid config file"},
	"A102": {Category: CategoryConfig, Message: "Invalid duration in config"},
	"A103": {Category: CategoryConfig, Message: "Invalid server port"},
	"A104": {Category: CategoryConfig, Message: "Invalid log setting"},

	// ============================================
	// Scenario Errors (A200-A299)
	// ============================================

	"A200": {Category: CategoryScenario, Message: "Invalid scenario file"},
	"A201": {Category: CategoryScenario, Message: "Unknown scenario step"},
	"A202": {Category: CategoryScenario, Message: "Scenario selector matched no node"},
	"A203": {Category: CategoryScenario, Message: "Unknown registration kind"},
	"A204": {Category: CategoryScenario, Message: "Scenario source unavailable"},

	// ============================================
	// CLI Errors (A300-A399)
	// ============================================

	"A300": {Category: CategoryCLI, Message: "Missing argument"},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
