package variables

import (
	"log/slog"
	"sync"

	"github.com/vango-dev/scenes/pkg/scene"
	"github.com/vango-dev/scenes/pkg/telemetry"
)

// Options configures a DependencyConfig.
type Options struct {
	// StatePaths are the state fields scanned for variable references.
	StatePaths []string

	// OnValuesChanged runs when the value of a variable in the dependency
	// set changes. If nil, the owning object receives an empty state update
	// so that anything observing it re-evaluates.
	OnValuesChanged func()

	// Logger receives serialization failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// DependencyConfig tracks which variables an object's state references.
//
// The first call to Names scans every tracked field. Later calls rescan
// only when the object's state record has been replaced and at least one
// tracked field holds a different value; a rescan always covers all
// tracked fields, since references may span fields.
type DependencyConfig struct {
	object          scene.Object
	statePaths      []string
	onValuesChanged func()
	logger          *slog.Logger

	state     *scene.State
	names     NameSet
	scanCount int
	mu        sync.Mutex
}

// NewDependencyConfig creates a tracker for object.
func NewDependencyConfig(object scene.Object, opts Options) *DependencyConfig {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &DependencyConfig{
		object:          object,
		statePaths:      append([]string(nil), opts.StatePaths...),
		onValuesChanged: opts.OnValuesChanged,
		logger:          logger.With("component", "variables", "object", object.Key()),
		names:           make(NameSet),
	}
	if d.onValuesChanged == nil {
		d.onValuesChanged = func() { object.SetState(nil) }
	}
	return d
}

// Names returns the variables referenced by the tracked fields of the
// object's current state. The returned set is owned by the tracker and
// must not be modified; it is updated in place by later rescans.
func (d *DependencyConfig) Names() NameSet {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.state
	next := d.object.State()
	d.state = next

	if prev == nil {
		d.scan(next)
		return d.names
	}

	if next != prev {
		for _, path := range d.statePaths {
			if !scene.SameValue(next.Get(path), prev.Get(path)) {
				d.scan(next)
				break
			}
		}
	}

	return d.names
}

// HasDependencyOn reports whether the object references name.
func (d *DependencyConfig) HasDependencyOn(name string) bool {
	return d.Names().Has(name)
}

// ScanCount returns how many times the tracked fields have been scanned.
func (d *DependencyConfig) ScanCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scanCount
}

// StatePaths returns a copy of the tracked field list.
func (d *DependencyConfig) StatePaths() []string {
	return append([]string(nil), d.statePaths...)
}

// VariableUpdated reports that the values of the named variables changed.
// It runs the values-changed hook if the object depends on any of them and
// reports whether it did.
func (d *DependencyConfig) VariableUpdated(names ...string) bool {
	if !d.Names().Intersects(names...) {
		return false
	}
	d.onValuesChanged()
	return true
}

// scan rebuilds the dependency set from every tracked field.
func (d *DependencyConfig) scan(state *scene.State) {
	clear(d.names)
	d.scanCount++
	telemetry.RecordScan()

	for _, path := range d.statePaths {
		value, ok := state.Lookup(path)
		if !ok || isEmpty(value) {
			continue
		}
		addNames(d.names, value, d.logger)
	}
}

// isEmpty reports values that carry nothing to scan.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	return false
}
