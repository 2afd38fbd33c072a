package variables

import (
	"log/slog"
	"regexp"
	"sort"
	"sync"

	"github.com/vango-dev/scenes/internal/errors"
	"github.com/vango-dev/scenes/pkg/scene"
)

var namePattern = regexp.MustCompile(`^\w+$`)

// ValidName reports whether name can be referenced by all three syntaxes.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Dependent is a scene object that tracks its variable dependencies.
type Dependent interface {
	scene.Object
	VariableDependency() *DependencyConfig
}

// Set holds the current variable values for one scene tree. Values are
// stored as given; resolving them into queries is left to the consumer.
type Set struct {
	root   scene.Object
	values map[string]string
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewSet creates a variable set for the tree under root.
func NewSet(root scene.Object, initial map[string]string) *Set {
	s := &Set{
		root:   root,
		values: make(map[string]string, len(initial)),
		logger: slog.Default().With("component", "variables"),
	}
	for name, value := range initial {
		s.values[name] = value
	}
	return s
}

// WithLogger sets the logger used for notifications.
func (s *Set) WithLogger(logger *slog.Logger) *Set {
	s.logger = logger.With("component", "variables")
	return s
}

// Value returns the value of a variable.
func (s *Set) Value(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Values returns a copy of all values.
func (s *Set) Values() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for name, value := range s.values {
		out[name] = value
	}
	return out
}

// Names returns the defined variable names in sorted order.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetValue stores a value. When the value changed, every object in the tree
// that references the variable is notified. It returns the number of
// objects notified.
func (s *Set) SetValue(name, value string) (int, error) {
	if !ValidName(name) {
		return 0, errors.New("S303").WithLocation("", "variables."+name)
	}

	s.mu.Lock()
	old, existed := s.values[name]
	s.values[name] = value
	s.mu.Unlock()

	if existed && old == value {
		return 0, nil
	}
	return s.Notify(name), nil
}

// Notify tells every dependent object in the tree that the named variables
// changed and returns how many reacted.
func (s *Set) Notify(names ...string) int {
	var dependents []Dependent
	scene.Walk(s.root, func(o scene.Object) bool {
		if d, ok := o.(Dependent); ok {
			dependents = append(dependents, d)
		}
		return true
	})

	notified := 0
	for _, d := range dependents {
		if d.VariableDependency().VariableUpdated(names...) {
			notified++
		}
	}

	s.logger.Debug("variables changed", "names", names, "notified", notified)
	return notified
}
