// Package dashboard assembles a repeating dashboard from a definition and
// serialises every mutation applied to it.
//
// The scene graph is not safe for concurrent mutation. A Dashboard owns
// one graph and funnels data updates and variable changes from any number
// of goroutines through a single mutex, so repeats never interleave.
package dashboard

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/vango-dev/scenes/internal/errors"
	"github.com/vango-dev/scenes/pkg/data"
	"github.com/vango-dev/scenes/pkg/panel"
	"github.com/vango-dev/scenes/pkg/repeater"
	"github.com/vango-dev/scenes/pkg/scene"
	"github.com/vango-dev/scenes/pkg/variables"
)

// Snapshot is the rendered state of a dashboard.
type Snapshot struct {
	Title     string            `json:"title"`
	Variables map[string]string `json:"variables"`
	View      *scene.View       `json:"view"`
}

// Dependency lists the variables referenced by one object.
type Dependency struct {
	Key       string   `json:"key"`
	Variables []string `json:"variables"`
}

// Listener is called after a mutation changed what the dashboard renders.
type Listener func(Snapshot)

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dashboard) {
		d.logger = logger
	}
}

// WithEditing renders views in edit mode.
func WithEditing(editing bool) Option {
	return func(d *Dashboard) {
		d.editing = editing
	}
}

// Dashboard is a built, active dashboard.
type Dashboard struct {
	mu       sync.Mutex
	def      *Definition
	provider *scene.DataNode
	repeater *repeater.PanelRepeater
	vars     *variables.Set
	release  scene.Cleanup
	editing  bool

	listenerMu sync.RWMutex
	listeners  map[int]Listener
	nextID     int

	logger *slog.Logger
}

// Build assembles and activates the scene tree described by def.
func Build(def *Definition, opts ...Option) (*Dashboard, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		def:       def,
		listeners: make(map[int]Listener),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	base := d.logger
	d.logger = base.With("component", "dashboard")

	direction, _ := scene.ParseDirection(def.Repeat.Direction)
	cfg := def.Repeat.Template.config()
	cfg.Logger = base.With("component", "panel")

	d.provider = scene.NewDataNode(data.PanelData{State: data.NotStarted})
	layout := scene.NewLayout(direction, panel.New(cfg))

	ropts := []repeater.Option{repeater.WithData(d.provider), repeater.WithLogger(base)}
	if def.Repeat.Key != "" {
		ropts = append(ropts, repeater.WithKey(def.Repeat.Key))
	}
	d.repeater = repeater.New(layout, ropts...)
	if err := repeater.Validate(d.repeater); err != nil {
		return nil, err
	}

	d.vars = variables.NewSet(d.repeater, def.Variables).WithLogger(base)
	d.release = d.repeater.Activate()

	d.logger.Debug("dashboard built", "title", def.Title, "repeater", d.repeater.Key())
	return d, nil
}

// Load reads a definition file, builds the dashboard, and applies the
// definition's data file when it has one.
func Load(path string, opts ...Option) (*Dashboard, error) {
	def, err := LoadDefinition(path)
	if err != nil {
		return nil, err
	}

	d, err := Build(def, opts...)
	if err != nil {
		return nil, err
	}

	if p := def.DataPath(); p != "" {
		if err := d.LoadData(p); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

// Close deactivates the dashboard. Later data updates are ignored.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.release != nil {
		d.release()
		d.release = nil
	}
}

// Definition returns the definition the dashboard was built from.
func (d *Dashboard) Definition() *Definition {
	return d.def
}

// Repeater returns the root of the scene tree.
func (d *Dashboard) Repeater() *repeater.PanelRepeater {
	return d.repeater
}

// SetData publishes a payload to the repeater's data provider. A payload
// in the Done state replaces the repeated panels.
func (d *Dashboard) SetData(payload data.PanelData) error {
	d.mu.Lock()
	if payload.State == data.Done {
		if err := repeater.Validate(d.repeater); err != nil {
			d.mu.Unlock()
			return err
		}
	}
	d.provider.SetData(payload)
	snap := d.snapshotLocked()
	d.mu.Unlock()

	if payload.State == data.Done {
		d.notify(snap)
	}
	return nil
}

// LoadData reads a JSON payload file and publishes it.
func (d *Dashboard) LoadData(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.New("S003").WithLocation(path, "").Wrap(err)
	}
	payload, err := data.Decode(raw)
	if err != nil {
		return errors.New("S003").WithLocation(path, "").Wrap(err)
	}
	return d.SetData(payload)
}

// SetVariable changes a variable value and returns how many objects
// reacted to the change.
func (d *Dashboard) SetVariable(name, value string) (int, error) {
	d.mu.Lock()
	n, err := d.vars.SetValue(name, value)
	snap := d.snapshotLocked()
	d.mu.Unlock()

	if err != nil {
		return 0, err
	}
	if n > 0 {
		d.notify(snap)
	}
	return n, nil
}

// Variables returns a copy of the current variable values.
func (d *Dashboard) Variables() map[string]string {
	return d.vars.Values()
}

// Data returns the payload last published.
func (d *Dashboard) Data() data.PanelData {
	return d.provider.Data()
}

// Snapshot renders the dashboard.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Dashboard) snapshotLocked() Snapshot {
	return Snapshot{
		Title:     d.def.Title,
		Variables: d.vars.Values(),
		View:      d.repeater.Render(scene.RenderOptions{IsEditing: d.editing}),
	}
}

// Dependencies lists, for every object in the tree that tracks variables,
// the variables it references. Objects are listed in tree order.
func (d *Dashboard) Dependencies() []Dependency {
	d.mu.Lock()
	defer d.mu.Unlock()

	var deps []Dependency
	scene.Walk(d.repeater, func(o scene.Object) bool {
		if dep, ok := o.(variables.Dependent); ok {
			deps = append(deps, Dependency{
				Key:       o.Key(),
				Variables: dep.VariableDependency().Names().Sorted(),
			})
		}
		return true
	})
	return deps
}

// OnChange registers fn to be called after every repeat and after every
// variable change that reached a dependent object. It returns a function
// that removes the listener.
func (d *Dashboard) OnChange(fn Listener) func() {
	d.listenerMu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	d.listenerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.listenerMu.Lock()
			delete(d.listeners, id)
			d.listenerMu.Unlock()
		})
	}
}

func (d *Dashboard) notify(snap Snapshot) {
	d.listenerMu.RLock()
	listeners := make([]Listener, 0, len(d.listeners))
	for _, fn := range d.listeners {
		listeners = append(listeners, fn)
	}
	d.listenerMu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// String implements fmt.Stringer.
func (d *Dashboard) String() string {
	return fmt.Sprintf("dashboard %q (%d panels)", d.def.Title, len(d.repeater.Layout().Children()))
}
