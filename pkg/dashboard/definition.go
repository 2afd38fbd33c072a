package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/scenes/internal/errors"
	"github.com/vango-dev/scenes/pkg/panel"
	"github.com/vango-dev/scenes/pkg/scene"
	"github.com/vango-dev/scenes/pkg/variables"
)

// Format is the encoding of a dashboard definition file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New("S304").
		WithLocation(path, "").
		WithSuggestion("Rename the file to .json, .yaml or .yml")
}

// Definition describes a dashboard: its variables and the repeated panel.
type Definition struct {
	Title     string            `json:"title" yaml:"title"`
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Repeat    RepeatDefinition  `json:"repeat" yaml:"repeat"`

	// Data is an optional panel data file applied when the dashboard is
	// loaded. Relative to the definition file.
	Data string `json:"data,omitempty" yaml:"data,omitempty"`

	path string
}

// RepeatDefinition describes a panel repeater.
type RepeatDefinition struct {
	Key       string           `json:"key,omitempty" yaml:"key,omitempty"`
	Direction string           `json:"direction,omitempty" yaml:"direction,omitempty"`
	Template  *PanelDefinition `json:"template" yaml:"template"`
}

// PanelDefinition describes the template panel.
type PanelDefinition struct {
	Key           string         `json:"key,omitempty" yaml:"key,omitempty"`
	Kind          string         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Title         string         `json:"title,omitempty" yaml:"title,omitempty"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	Query         string         `json:"query,omitempty" yaml:"query,omitempty"`
	Options       map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
	TrackedFields []string       `json:"trackedFields,omitempty" yaml:"trackedFields,omitempty"`
}

// LoadDefinition reads and validates a definition file.
func LoadDefinition(path string) (*Definition, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("S305").WithLocation(path, "").Wrap(err)
	}

	def, err := ParseDefinition(raw, format)
	if err != nil {
		if se, ok := err.(*errors.SceneError); ok && se.Location != nil {
			se.Location.File = path
		}
		return nil, err
	}
	def.path = path
	return def, nil
}

// ParseDefinition decodes and validates a definition.
func ParseDefinition(raw []byte, format Format) (*Definition, error) {
	def := &Definition{}

	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(raw, def)
	case FormatYAML:
		err = yaml.Unmarshal(raw, def)
	default:
		return nil, errors.New("S304").WithDetail("Unknown format " + string(format))
	}
	if err != nil {
		return nil, errors.New("S305").
			WithDetail("Failed to parse " + string(format) + " definition: " + err.Error()).
			WithLocation("", "")
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Validate checks the definition.
func (d *Definition) Validate() error {
	for _, name := range sortedKeys(d.Variables) {
		if !variables.ValidName(name) {
			return errors.New("S303").
				WithLocation(d.path, "variables."+name).
				WithDetail("Variable name " + name + " may only contain letters, digits and underscores.")
		}
	}

	if _, err := scene.ParseDirection(d.Repeat.Direction); err != nil {
		return errors.New("S302").
			WithLocation(d.path, "repeat.direction").
			Wrap(err)
	}

	t := d.Repeat.Template
	if t == nil {
		return errors.New("S301").
			WithLocation(d.path, "repeat.template").
			WithSuggestion("Add a template panel under repeat.template")
	}
	for _, field := range t.TrackedFields {
		if !panel.TrackableFields[field] {
			return errors.New("S306").
				WithLocation(d.path, "repeat.template.trackedFields").
				WithDetail("Field " + field + " cannot be tracked. Use title, description, query or options.")
		}
	}
	return nil
}

// Path returns the file the definition was loaded from.
func (d *Definition) Path() string {
	return d.path
}

// DataPath returns the data file resolved against the definition file, or
// "" when none is set.
func (d *Definition) DataPath() string {
	if d.Data == "" {
		return ""
	}
	if filepath.IsAbs(d.Data) || d.path == "" {
		return d.Data
	}
	return filepath.Join(filepath.Dir(d.path), d.Data)
}

func (t *PanelDefinition) config() panel.Config {
	return panel.Config{
		Key:           t.Key,
		Kind:          t.Kind,
		Title:         t.Title,
		Description:   t.Description,
		Query:         t.Query,
		Options:       t.Options,
		TrackedFields: t.TrackedFields,
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
