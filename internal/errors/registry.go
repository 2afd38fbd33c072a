package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (S001-S099)
	// ============================================

	"S001": {
		Category: CategoryRuntime,
		Message:  "State value could not be serialized",
		Detail:   "A tracked state field could not be encoded as JSON while scanning for variable references. The field contributes no dependencies.",
		DocURL:   "https://vango.dev/scenes/errors/S001",
	},
	"S002": {
		Category: CategoryRuntime,
		Message:  "Scene object has no data provider",
		Detail:   "Neither the object nor any of its ancestors has a $data provider.",
		DocURL:   "https://vango.dev/scenes/errors/S002",
	},
	"S003": {
		Category: CategoryRuntime,
		Message:  "Invalid panel data payload",
		Detail:   "The panel data payload could not be decoded.",
		DocURL:   "https://vango.dev/scenes/errors/S003",
	},

	// ============================================
	// Config Errors (S100-S199)
	// ============================================

	"S101": {
		Category: CategoryConfig,
		Message:  "Invalid scenes.json",
		Detail:   "The configuration file could not be read or parsed.",
		DocURL:   "https://vango.dev/scenes/errors/S101",
	},
	"S102": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No scenes.json was found at the given location.",
		DocURL:   "https://vango.dev/scenes/errors/S102",
	},
	"S103": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A configuration value is out of range or malformed.",
		DocURL:   "https://vango.dev/scenes/errors/S103",
	},

	// ============================================
	// Repeat Errors (S200-S299)
	// ============================================

	"S201": {
		Category: CategoryRepeat,
		Message:  "Repeated layout has no template child",
		Detail:   "A panel repeater clones the first child of its layout once per series. The layout must contain at least one child.",
		DocURL:   "https://vango.dev/scenes/errors/S201",
	},
	"S202": {
		Category: CategoryRepeat,
		Message:  "Repeater has no layout",
		Detail:   "A panel repeater needs a layout object whose children it replaces.",
		DocURL:   "https://vango.dev/scenes/errors/S202",
	},

	// ============================================
	// Definition Errors (S300-S399)
	// ============================================

	"S301": {
		Category: CategoryDefinition,
		Message:  "Missing template panel",
		Detail:   "The repeat block must define the panel that is cloned for each series.",
		DocURL:   "https://vango.dev/scenes/errors/S301",
	},
	"S302": {
		Category: CategoryDefinition,
		Message:  "Invalid layout direction",
		Detail:   "Layout direction must be \"row\" or \"column\".",
		DocURL:   "https://vango.dev/scenes/errors/S302",
	},
	"S303": {
		Category: CategoryDefinition,
		Message:  "Invalid variable name",
		Detail:   "Variable names may only contain letters, digits and underscores.",
		DocURL:   "https://vango.dev/scenes/errors/S303",
	},
	"S304": {
		Category: CategoryDefinition,
		Message:  "Unsupported definition format",
		Detail:   "Dashboard definitions must be .json, .yaml or .yml files.",
		DocURL:   "https://vango.dev/scenes/errors/S304",
	},
	"S305": {
		Category: CategoryDefinition,
		Message:  "Invalid dashboard definition",
		Detail:   "The dashboard definition could not be read or parsed.",
		DocURL:   "https://vango.dev/scenes/errors/S305",
	},
	"S306": {
		Category: CategoryDefinition,
		Message:  "Unknown tracked field",
		Detail:   "A panel can only track the title, description, query and options fields.",
		DocURL:   "https://vango.dev/scenes/errors/S306",
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
