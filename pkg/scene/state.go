package scene

import (
	"reflect"
	"sort"
)

// Well-known state fields.
const (
	KeyField      = "key"
	DataField     = "$data"
	ChildrenField = "children"
	LayoutField   = "layout"
)

// Fields is a set of named state values, used both for initial state and
// for partial updates.
type Fields map[string]any

// State is an immutable state record. A new record is created for every
// update, so pointer identity identifies a version of an object's state.
type State struct {
	fields Fields
}

// NewState creates a state record holding a copy of fields.
func NewState(fields Fields) *State {
	s := &State{fields: make(Fields, len(fields))}
	for name, value := range fields {
		s.fields[name] = value
	}
	return s
}

// Get returns the value of a field, or nil if it is not set.
func (s *State) Get(name string) any {
	if s == nil {
		return nil
	}
	return s.fields[name]
}

// Lookup returns the value of a field and whether it is set.
func (s *State) Lookup(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.fields[name]
	return v, ok
}

// Key returns the key field.
func (s *State) Key() string {
	key, _ := s.Get(KeyField).(string)
	return key
}

// Len returns the number of fields.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Names returns the field names in sorted order.
func (s *State) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fields returns a copy of the record's fields.
func (s *State) Fields() Fields {
	out := make(Fields, s.Len())
	if s == nil {
		return out
	}
	for name, value := range s.fields {
		out[name] = value
	}
	return out
}

// With returns a new record with partial merged over s.
// The result is always a distinct record, even for an empty partial.
func (s *State) With(partial Fields) *State {
	next := &State{fields: make(Fields, s.Len()+len(partial))}
	if s != nil {
		for name, value := range s.fields {
			next.fields[name] = value
		}
	}
	for name, value := range partial {
		next.fields[name] = value
	}
	return next
}

// SameValue reports whether a and b are the same value by identity.
// Reference kinds (pointers, maps, slices, funcs, channels) are the same
// only when they share storage; comparable values compare with ==; any
// other value falls back to reflect.DeepEqual.
func SameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}

	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
