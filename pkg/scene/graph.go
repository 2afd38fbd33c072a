package scene

import (
	"github.com/vango-dev/scenes/internal/errors"
)

// LookupData returns the data provider of o or its nearest ancestor.
func LookupData(o Object) (DataProvider, error) {
	for cur := o; cur != nil; cur = cur.Parent() {
		if p, ok := cur.State().Get(DataField).(DataProvider); ok {
			return p, nil
		}
	}
	return nil, errors.New("S002")
}

// GetData returns the data provider of o or its nearest ancestor. When
// none exists an empty, not-started data node is returned.
func GetData(o Object) DataProvider {
	if p, err := LookupData(o); err == nil {
		return p
	}
	return NewDataNodeWithState(Fields{KeyField: "empty-data"})
}

// Walk calls fn for o and every object nested in its state, depth first.
// Fields are visited in name order and children in slice order. Returning
// false from fn skips the object's descendants. Data providers held under
// $data are not visited.
func Walk(o Object, fn func(Object) bool) {
	if o == nil || !fn(o) {
		return
	}

	state := o.State()
	for _, name := range state.Names() {
		if name == DataField {
			continue
		}
		switch v := state.Get(name).(type) {
		case Object:
			Walk(v, fn)
		case []Object:
			for _, child := range v {
				Walk(child, fn)
			}
		}
	}
}

// Root returns the top-most ancestor of o.
func Root(o Object) Object {
	for o != nil && o.Parent() != nil {
		o = o.Parent()
	}
	return o
}

// Keys returns the keys of objects, in order.
func Keys(objects []Object) []string {
	keys := make([]string, len(objects))
	for i, o := range objects {
		keys[i] = o.Key()
	}
	return keys
}
