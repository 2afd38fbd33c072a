package repeater

import (
	stderrors "errors"
	"reflect"
	"testing"
	"time"

	"github.com/vango-dev/scenes/internal/errors"
	"github.com/vango-dev/scenes/pkg/data"
	"github.com/vango-dev/scenes/pkg/panel"
	"github.com/vango-dev/scenes/pkg/scene"
)

func seriesNamed(names ...string) []data.Series {
	series := make([]data.Series, len(names))
	for i, name := range names {
		series[i] = data.Series{Name: name, Fields: []data.Field{{Name: "value", Values: []any{float64(i)}}}}
	}
	return series
}

type fixture struct {
	provider *scene.DataNode
	template *panel.Panel
	layout   *scene.Layout
	repeater *PanelRepeater
}

func newFixture() *fixture {
	f := &fixture{
		provider: scene.NewDataNode(data.PanelData{State: data.NotStarted}),
		template: panel.New(panel.Config{Key: "template", Kind: "timeseries", Title: "CPU $server"}),
	}
	f.layout = scene.NewLayout(scene.Row, f.template)
	f.repeater = New(f.layout, WithData(f.provider), WithKey("repeat"))
	return f
}

func TestRepeatCreatesOneClonePerSeries(t *testing.T) {
	f := newFixture()
	release := f.repeater.Activate()
	defer release()

	tr := data.TimeRange{From: time.Unix(0, 0).UTC(), To: time.Unix(60, 0).UTC()}
	payload := data.PanelData{State: data.Done, Series: seriesNamed("a", "b", "c"), TimeRange: tr, RequestID: "r1"}
	f.provider.SetData(payload)

	children := f.layout.Children()
	if len(children) != 3 {
		t.Fatalf("children = %d, want 3", len(children))
	}
	if got := scene.Keys(children); !reflect.DeepEqual(got, []string{"0", "1", "2"}) {
		t.Errorf("keys = %v", got)
	}

	for i, child := range children {
		dn, ok := child.State().Get(scene.DataField).(*scene.DataNode)
		if !ok {
			t.Fatalf("child %d has no data node", i)
		}
		scoped := dn.Data()
		if len(scoped.Series) != 1 || !reflect.DeepEqual(scoped.Series[0], payload.Series[i]) {
			t.Errorf("child %d series = %+v, want only %q", i, scoped.Series, payload.Series[i].Name)
		}
		if scoped.State != data.Done || scoped.TimeRange != tr || scoped.RequestID != "r1" {
			t.Errorf("child %d ancillary fields not carried: %+v", i, scoped)
		}
		if child.Parent() != f.layout {
			t.Errorf("child %d should be adopted by the layout", i)
		}
		if scene.GetData(child) != scene.DataProvider(dn) {
			t.Errorf("child %d should resolve its own data node", i)
		}
	}
}

func TestRepeatDoesNotMutateTemplate(t *testing.T) {
	f := newFixture()
	release := f.repeater.Activate()
	defer release()

	before := f.template.State()
	f.provider.SetData(data.PanelData{State: data.Done, Series: seriesNamed("a", "b")})

	if f.template.State() != before {
		t.Error("template state must not be replaced")
	}
	if f.template.Key() != "template" {
		t.Errorf("template key = %q", f.template.Key())
	}
	for _, child := range f.layout.Children() {
		if child == scene.Object(f.template) {
			t.Error("template must be cloned, not reused")
		}
	}
}

func TestRepeatUsesCurrentFirstChild(t *testing.T) {
	f := newFixture()
	release := f.repeater.Activate()
	defer release()

	f.provider.SetData(data.PanelData{State: data.Done, Series: seriesNamed("a", "b", "c")})
	f.provider.SetData(data.PanelData{State: data.Done, Series: seriesNamed("x")})

	children := f.layout.Children()
	if len(children) != 1 || children[0].Key() != "0" {
		t.Fatalf("keys = %v, want [0]", scene.Keys(children))
	}
	if got := children[0].Render(scene.RenderOptions{}).Series; !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("series = %v, want [x]", got)
	}
	if got := children[0].(*panel.Panel).Title(); got != "CPU $server" {
		t.Errorf("clone title = %q", got)
	}
}

func TestRepeatWithZeroSeriesEmptiesLayout(t *testing.T) {
	f := newFixture()
	release := f.repeater.Activate()
	defer release()

	f.provider.SetData(data.PanelData{State: data.Done})

	if n := len(f.layout.Children()); n != 0 {
		t.Errorf("children = %d, want 0", n)
	}
}

func TestNonDoneStatesLeaveChildrenUnchanged(t *testing.T) {
	for _, state := range []data.LoadingState{data.NotStarted, data.Loading, data.Streaming, data.Error} {
		t.Run(state.String(), func(t *testing.T) {
			f := newFixture()
			release := f.repeater.Activate()
			defer release()

			before := f.layout.State()
			f.provider.SetData(data.PanelData{State: state, Series: seriesNamed("a", "b")})

			if f.layout.State() != before {
				t.Errorf("%v payload must not touch the layout", state)
			}
			if len(f.layout.Children()) != 1 || f.layout.Children()[0] != scene.Object(f.template) {
				t.Error("template child should remain in place")
			}
		})
	}
}

func TestInactiveRepeaterIgnoresData(t *testing.T) {
	f := newFixture()

	f.provider.SetData(data.PanelData{State: data.Done, Series: seriesNamed("a", "b")})
	if len(f.layout.Children()) != 1 {
		t.Error("repeater must not expand before activation")
	}

	release := f.repeater.Activate()
	f.provider.SetData(data.PanelData{State: data.Done, Series: seriesNamed("a", "b")})
	if len(f.layout.Children()) != 2 {
		t.Fatal("active repeater should expand")
	}

	release()
	if f.provider.SubscriberCount() != 0 {
		t.Errorf("subscriptions left after release: %d", f.provider.SubscriberCount())
	}
	f.provider.SetData(data.PanelData{State: data.Done, Series: seriesNamed("a", "b", "c")})
	if len(f.layout.Children()) != 2 {
		t.Error("released repeater must not expand")
	}
}

func TestRepeaterUsesAncestorData(t *testing.T) {
	provider := scene.NewDataNode(data.PanelData{})
	layout := scene.NewLayout(scene.Column, panel.New(panel.Config{Title: "t"}))
	r := New(layout)
	_ = scene.NewLayoutWithState(scene.Fields{
		scene.DataField:     provider,
		scene.ChildrenField: []scene.Object{r},
	})

	release := r.Activate()
	defer release()

	provider.SetData(data.PanelData{State: data.Done, Series: seriesNamed("a", "b")})
	if len(layout.Children()) != 2 {
		t.Errorf("children = %d, want 2", len(layout.Children()))
	}
}

func TestRepeatWithoutTemplatePanics(t *testing.T) {
	provider := scene.NewDataNode(data.PanelData{})
	r := New(scene.NewLayout(scene.Row), WithData(provider))
	release := r.Activate()
	defer release()

	defer func() {
		rec := recover()
		err, ok := rec.(error)
		if !ok || !stderrors.Is(err, errors.New("S201")) {
			t.Errorf("recovered %v, want S201", rec)
		}
	}()
	provider.SetData(data.PanelData{State: data.Done, Series: seriesNamed("a")})
}

func TestValidate(t *testing.T) {
	if err := Validate(newFixture().repeater); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	empty := New(scene.NewLayout(scene.Row))
	if err := Validate(empty); !stderrors.Is(err, errors.New("S201")) {
		t.Errorf("Validate(empty) = %v, want S201", err)
	}

	noLayout := New(nil)
	if err := Validate(noLayout); !stderrors.Is(err, errors.New("S202")) {
		t.Errorf("Validate(no layout) = %v, want S202", err)
	}
}

func TestRenderDelegatesToLayout(t *testing.T) {
	f := newFixture()

	for _, editing := range []bool{false, true} {
		got := f.repeater.Render(scene.RenderOptions{IsEditing: editing})
		want := f.layout.Render(scene.RenderOptions{IsEditing: editing})
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Render(editing=%v) = %+v, want %+v", editing, got, want)
		}
	}
}

func TestCloneRepeaterWorksIndependently(t *testing.T) {
	f := newFixture()
	clone := f.repeater.Clone(nil).(*PanelRepeater)

	if clone.Layout() == Layout(f.layout) {
		t.Fatal("clone must have its own layout")
	}

	release := clone.Activate()
	defer release()

	cloneProvider := scene.GetData(clone).(*scene.DataNode)
	if cloneProvider == f.provider {
		t.Fatal("clone must have its own data provider")
	}
	cloneProvider.SetData(data.PanelData{State: data.Done, Series: seriesNamed("a", "b")})

	if len(clone.Layout().Children()) != 2 || len(f.layout.Children()) != 1 {
		t.Error("only the clone's layout should expand")
	}
}
