package scene

// RenderOptions are passed unchanged down the render tree.
type RenderOptions struct {
	IsEditing bool
}

// View is the rendered form of a scene object. Views are plain data and
// can be encoded as JSON for clients.
type View struct {
	Type      string   `json:"type"`
	Key       string   `json:"key"`
	Title     string   `json:"title,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Editing   bool     `json:"editing,omitempty"`
	Series    []string `json:"series,omitempty"`
	Children  []*View  `json:"children,omitempty"`
}

// Count returns the number of views in the tree rooted at v.
func (v *View) Count() int {
	if v == nil {
		return 0
	}
	n := 1
	for _, child := range v.Children {
		n += child.Count()
	}
	return n
}
