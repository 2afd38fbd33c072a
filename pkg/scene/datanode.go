package scene

import "github.com/vango-dev/scenes/pkg/data"

const dataField = "data"

// DataProvider is an object that publishes panel data in its state.
type DataProvider interface {
	Object
	Data() data.PanelData
}

// DataNode is a data provider holding a payload supplied from outside.
type DataNode struct {
	Base
}

var _ DataProvider = (*DataNode)(nil)

// NewDataNode creates a data node holding d.
func NewDataNode(d data.PanelData) *DataNode {
	return NewDataNodeWithState(Fields{dataField: d})
}

// NewDataNodeWithState creates a data node from raw state fields.
func NewDataNodeWithState(fields Fields) *DataNode {
	n := &DataNode{}
	n.Init(n, fields)
	return n
}

// Data returns the current payload.
func (n *DataNode) Data() data.PanelData {
	return DataOf(n.State())
}

// SetData publishes a new payload.
func (n *DataNode) SetData(d data.PanelData) {
	n.SetState(Fields{dataField: d})
}

// Clone implements Object.
func (n *DataNode) Clone(overrides Fields) Object {
	return NewDataNodeWithState(n.CloneFields(overrides))
}

// Render implements Object.
func (n *DataNode) Render(opts RenderOptions) *View {
	d := n.Data()
	return &View{
		Type:    "data",
		Key:     n.Key(),
		Title:   d.State.String(),
		Editing: opts.IsEditing,
		Series:  d.SeriesNames(),
	}
}

// DataOf returns the payload held by a data provider's state record.
func DataOf(s *State) data.PanelData {
	d, _ := s.Get(dataField).(data.PanelData)
	return d
}
