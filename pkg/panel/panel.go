// Package panel provides the visualization leaf of a scene graph.
package panel

import (
	"log/slog"

	"github.com/vango-dev/scenes/pkg/scene"
	"github.com/vango-dev/scenes/pkg/variables"
)

// State fields of a panel.
const (
	KindField        = "kind"
	TitleField       = "title"
	DescriptionField = "description"
	QueryField       = "query"
	OptionsField     = "options"

	trackedField = "trackedFields"
)

// DefaultTrackedFields are the fields scanned for variable references
// when a panel does not name its own.
var DefaultTrackedFields = []string{TitleField, DescriptionField, QueryField, OptionsField}

// TrackableFields are the fields a panel may scan for references.
var TrackableFields = map[string]bool{
	TitleField:       true,
	DescriptionField: true,
	QueryField:       true,
	OptionsField:     true,
}

// Config holds the initial values of a panel.
type Config struct {
	Key         string
	Kind        string
	Title       string
	Description string
	Query       string
	Options     map[string]any

	// TrackedFields overrides DefaultTrackedFields.
	TrackedFields []string

	// OnVariablesChanged replaces the default reaction to a change of a
	// referenced variable.
	OnVariablesChanged func(p *Panel)

	Logger *slog.Logger
}

// Panel is a visualization whose configuration may reference variables.
type Panel struct {
	scene.Base

	deps     *variables.DependencyConfig
	onChange func(p *Panel)
	logger   *slog.Logger
}

var _ variables.Dependent = (*Panel)(nil)

// New creates a panel from cfg.
func New(cfg Config) *Panel {
	fields := scene.Fields{
		KindField:        cfg.Kind,
		TitleField:       cfg.Title,
		DescriptionField: cfg.Description,
		QueryField:       cfg.Query,
	}
	if cfg.Key != "" {
		fields[scene.KeyField] = cfg.Key
	}
	if cfg.Options != nil {
		fields[OptionsField] = cfg.Options
	}
	if len(cfg.TrackedFields) > 0 {
		fields[trackedField] = append([]string(nil), cfg.TrackedFields...)
	}
	return newWithState(fields, cfg.OnVariablesChanged, cfg.Logger)
}

func newWithState(fields scene.Fields, onChange func(*Panel), logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Panel{onChange: onChange, logger: logger}
	p.Init(p, fields)

	opts := variables.Options{
		StatePaths: p.TrackedFields(),
		Logger:     logger,
	}
	if onChange != nil {
		opts.OnValuesChanged = func() { onChange(p) }
	}
	p.deps = variables.NewDependencyConfig(p, opts)
	return p
}

// VariableDependency returns the panel's dependency tracker.
func (p *Panel) VariableDependency() *variables.DependencyConfig {
	return p.deps
}

// Kind returns the visualization type.
func (p *Panel) Kind() string {
	kind, _ := p.State().Get(KindField).(string)
	if kind == "" {
		return "panel"
	}
	return kind
}

// Title returns the raw, uninterpolated title.
func (p *Panel) Title() string {
	title, _ := p.State().Get(TitleField).(string)
	return title
}

// Query returns the raw query.
func (p *Panel) Query() string {
	query, _ := p.State().Get(QueryField).(string)
	return query
}

// TrackedFields returns the fields scanned for variable references.
func (p *Panel) TrackedFields() []string {
	if fields, ok := p.State().Get(trackedField).([]string); ok {
		return append([]string(nil), fields...)
	}
	return append([]string(nil), DefaultTrackedFields...)
}

// Clone implements scene.Object. The clone gets its own tracker.
func (p *Panel) Clone(overrides scene.Fields) scene.Object {
	return newWithState(p.CloneFields(overrides), p.onChange, p.logger)
}

// Render implements scene.Object.
func (p *Panel) Render(opts scene.RenderOptions) *scene.View {
	v := &scene.View{
		Type:    p.Kind(),
		Key:     p.Key(),
		Title:   p.Title(),
		Editing: opts.IsEditing,
	}
	if provider, err := scene.LookupData(p); err == nil {
		v.Series = provider.Data().SeriesNames()
	}
	return v
}
