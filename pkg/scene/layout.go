package scene

import "fmt"

// Direction is the axis along which a layout arranges its children.
type Direction string

const (
	Row    Direction = "row"
	Column Direction = "column"
)

// ParseDirection validates a direction name. The empty string means Row.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", Row:
		return Row, nil
	case Column:
		return Column, nil
	}
	return "", fmt.Errorf("scene: invalid layout direction %q", s)
}

const directionField = "direction"

// Layout arranges an ordered list of children.
type Layout struct {
	Base
}

// NewLayout creates a layout with the given children.
func NewLayout(direction Direction, children ...Object) *Layout {
	return NewLayoutWithState(Fields{
		directionField: direction,
		ChildrenField:  append([]Object(nil), children...),
	})
}

// NewLayoutWithState creates a layout from raw state fields.
func NewLayoutWithState(fields Fields) *Layout {
	l := &Layout{}
	l.Init(l, fields)
	return l
}

// Direction returns the layout axis.
func (l *Layout) Direction() Direction {
	d, _ := l.State().Get(directionField).(Direction)
	if d == "" {
		return Row
	}
	return d
}

// Children returns the current children. The slice must not be modified.
func (l *Layout) Children() []Object {
	children, _ := l.State().Get(ChildrenField).([]Object)
	return children
}

// SetChildren replaces all children in one state update.
func (l *Layout) SetChildren(children []Object) {
	l.SetState(Fields{ChildrenField: append([]Object(nil), children...)})
}

// Clone implements Object.
func (l *Layout) Clone(overrides Fields) Object {
	return NewLayoutWithState(l.CloneFields(overrides))
}

// Render implements Object.
func (l *Layout) Render(opts RenderOptions) *View {
	children := l.Children()
	v := &View{
		Type:      "layout",
		Key:       l.Key(),
		Direction: string(l.Direction()),
		Editing:   opts.IsEditing,
		Children:  make([]*View, 0, len(children)),
	}
	for _, child := range children {
		v.Children = append(v.Children, child.Render(opts))
	}
	return v
}
