package scene

import (
	"sync"

	"github.com/google/uuid"
)

// StateHandler receives the new and previous state records of an object.
type StateHandler func(next, prev *State)

// ActivationHandler runs when an object becomes active. The returned
// cleanup, if any, runs when the object is deactivated.
type ActivationHandler func() Cleanup

// Object is the capability set every scene node provides.
type Object interface {
	// Key returns the object's key.
	Key() string

	// State returns the current state record.
	State() *State

	// SetState replaces the state record with one that has partial merged
	// over the current fields, then notifies subscribers.
	SetState(partial Fields)

	// SubscribeToState registers fn for state changes.
	SubscribeToState(fn StateHandler) Cleanup

	// Clone returns a new object with the same state, nested objects cloned
	// and overrides applied on top.
	Clone(overrides Fields) Object

	// Parent returns the object this one is nested in, if any.
	Parent() Object

	// SetParent links the object to its parent.
	SetParent(parent Object)

	// Activate acquires an activation and returns its release function.
	Activate() Cleanup

	// IsActive reports whether at least one activation is held.
	IsActive() bool

	// Render returns the object's view.
	Render(opts RenderOptions) *View
}

type stateSub struct {
	id uint64
	fn StateHandler
}

// Base implements everything in Object except Clone and Render.
// Concrete node types embed it and call Init from their constructor.
type Base struct {
	self Object

	state  *State
	parent Object
	mu     sync.RWMutex

	subs   []stateSub
	nextID uint64
	subMu  sync.Mutex

	handlers    []ActivationHandler
	activations int
	scope       *Scope
	actMu       sync.Mutex
}

// Init binds the base to the object embedding it and sets the initial
// state. A missing key is replaced by a random one.
func (b *Base) Init(self Object, fields Fields) {
	state := NewState(fields)
	if state.Key() == "" {
		state = state.With(Fields{KeyField: uuid.NewString()})
	}

	b.self = self
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()

	b.adopt(fields)
}

// Key returns the object's key.
func (b *Base) Key() string {
	return b.State().Key()
}

// State returns the current state record.
func (b *Base) State() *State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// SetState merges partial into a new state record and notifies
// subscribers. An empty partial still produces a new record.
func (b *Base) SetState(partial Fields) {
	b.mu.Lock()
	prev := b.state
	next := prev.With(partial)
	b.state = next
	b.mu.Unlock()

	b.adopt(partial)

	b.subMu.Lock()
	subs := make([]stateSub, len(b.subs))
	copy(subs, b.subs)
	b.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(next, prev)
	}
}

// SubscribeToState registers fn and returns the function that removes it.
func (b *Base) SubscribeToState(fn StateHandler) Cleanup {
	b.subMu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, stateSub{id: id, fn: fn})
	b.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.subMu.Lock()
			defer b.subMu.Unlock()
			for i, sub := range b.subs {
				if sub.id == id {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// SubscriberCount returns the number of active state subscriptions.
func (b *Base) SubscriberCount() int {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	return len(b.subs)
}

// Parent returns the parent object.
func (b *Base) Parent() Object {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.parent
}

// SetParent links the object to its parent.
func (b *Base) SetParent(parent Object) {
	b.mu.Lock()
	b.parent = parent
	b.mu.Unlock()
}

// AddActivationHandler registers work to run on activation.
func (b *Base) AddActivationHandler(h ActivationHandler) {
	b.actMu.Lock()
	defer b.actMu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Activate acquires an activation. The first activation activates the
// object's $data provider and runs the activation handlers; releasing the
// last activation runs their cleanups. The returned function is safe to
// call more than once.
func (b *Base) Activate() Cleanup {
	b.actMu.Lock()
	b.activations++
	first := b.activations == 1
	handlers := append([]ActivationHandler(nil), b.handlers...)
	b.actMu.Unlock()

	if first {
		b.activate(handlers)
	}

	var once sync.Once
	return func() {
		once.Do(b.release)
	}
}

func (b *Base) activate(handlers []ActivationHandler) {
	scope := NewScope()
	ok := false
	defer func() {
		if !ok {
			b.actMu.Lock()
			b.activations--
			b.actMu.Unlock()
			scope.Dispose()
		}
	}()

	if provider, isObject := b.State().Get(DataField).(Object); isObject {
		scope.OnCleanup(provider.Activate())
	}
	for _, h := range handlers {
		scope.OnCleanup(h())
	}

	b.actMu.Lock()
	b.scope = scope
	b.actMu.Unlock()
	ok = true
}

func (b *Base) release() {
	b.actMu.Lock()
	b.activations--
	var scope *Scope
	if b.activations == 0 {
		scope = b.scope
		b.scope = nil
	}
	b.actMu.Unlock()

	if scope != nil {
		scope.Dispose()
	}
}

// IsActive reports whether at least one activation is held.
func (b *Base) IsActive() bool {
	b.actMu.Lock()
	defer b.actMu.Unlock()
	return b.activations > 0
}

// CloneFields returns the object's fields with nested objects cloned and
// overrides applied. Override values are used as given.
func (b *Base) CloneFields(overrides Fields) Fields {
	fields := b.State().Fields()
	delete(fields, KeyField)

	for name, value := range fields {
		if _, overridden := overrides[name]; overridden {
			continue
		}
		switch v := value.(type) {
		case Object:
			fields[name] = v.Clone(nil)
		case []Object:
			cloned := make([]Object, len(v))
			for i, child := range v {
				cloned[i] = child.Clone(nil)
			}
			fields[name] = cloned
		}
	}
	for name, value := range overrides {
		fields[name] = value
	}
	return fields
}

// adopt makes the owning object the parent of every object in fields.
func (b *Base) adopt(fields Fields) {
	if b.self == nil {
		return
	}
	for _, value := range fields {
		switch v := value.(type) {
		case Object:
			v.SetParent(b.self)
		case []Object:
			for _, child := range v {
				child.SetParent(b.self)
			}
		}
	}
}
