// Package repeater expands a templated layout child into one child per
// data series.
//
// A PanelRepeater holds a layout whose first child is the template. While
// active it watches the nearest data provider; every time the provider
// publishes a payload in the Done state, the layout's children are
// replaced by clones of the template, one per series, each with its own
// data node scoped to that series. Clones are keyed "0", "1", ... in
// series order.
//
// The layout must have at least one child when a Done payload arrives.
// Use Validate at configuration time to check this.
package repeater

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/scenes/internal/errors"
	"github.com/vango-dev/scenes/pkg/data"
	"github.com/vango-dev/scenes/pkg/scene"
	"github.com/vango-dev/scenes/pkg/telemetry"
)

// Layout is the part of a layout the repeater needs.
type Layout interface {
	scene.Object
	Children() []scene.Object
	SetChildren(children []scene.Object)
}

// Option configures a PanelRepeater.
type Option func(*PanelRepeater)

// WithData sets the repeater's own data provider.
func WithData(provider scene.DataProvider) Option {
	return func(r *PanelRepeater) {
		r.fields[scene.DataField] = provider
	}
}

// WithKey sets the repeater's key.
func WithKey(key string) Option {
	return func(r *PanelRepeater) {
		r.fields[scene.KeyField] = key
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *PanelRepeater) {
		r.logger = logger
	}
}

// PanelRepeater repeats the first child of its layout per data series.
type PanelRepeater struct {
	scene.Base

	fields scene.Fields
	logger *slog.Logger
}

// New creates a repeater around layout.
func New(layout Layout, opts ...Option) *PanelRepeater {
	r := &PanelRepeater{
		fields: scene.Fields{scene.LayoutField: layout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return newWithState(r.fields, r.logger.With("component", "repeater"))
}

func newWithState(fields scene.Fields, logger *slog.Logger) *PanelRepeater {
	r := &PanelRepeater{logger: logger}
	r.Init(r, fields)
	r.AddActivationHandler(r.subscribeToData)
	return r
}

// Layout returns the repeated layout.
func (r *PanelRepeater) Layout() Layout {
	layout, _ := r.State().Get(scene.LayoutField).(Layout)
	return layout
}

func (r *PanelRepeater) subscribeToData() scene.Cleanup {
	provider := scene.GetData(r)
	r.logger.Debug("watching data provider", "repeater", r.Key(), "provider", provider.Key())

	return provider.SubscribeToState(func(next, prev *scene.State) {
		payload := scene.DataOf(next)
		telemetry.RecordPayload(payload.State.String())
		if payload.State == data.Done {
			r.performRepeat(payload)
		}
	})
}

// performRepeat replaces the layout's children with one clone of the
// template per series.
func (r *PanelRepeater) performRepeat(payload data.PanelData) {
	start := time.Now()
	layout := r.Layout()

	_, span := telemetry.StartSpan(context.Background(), "scenes.repeat",
		attribute.String("scenes.repeater", r.Key()),
		attribute.Int("scenes.series", len(payload.Series)),
	)

	children := layout.Children()
	if len(children) == 0 {
		err := errors.New("S201").WithLocation("", r.Key())
		telemetry.EndSpan(span, err)
		panic(err)
	}
	template := children[0]

	clones := make([]scene.Object, 0, len(payload.Series))
	for _, series := range payload.Series {
		clones = append(clones, template.Clone(scene.Fields{
			scene.KeyField:  strconv.Itoa(len(clones)),
			scene.DataField: scene.NewDataNode(payload.WithSeries(series)),
		}))
	}

	layout.SetChildren(clones)

	telemetry.RecordRepeat(len(clones), time.Since(start))
	telemetry.EndSpan(span, nil)
	r.logger.Debug("repeated panels", "repeater", r.Key(), "clones", len(clones), "request", payload.RequestID)
}

// Clone implements scene.Object.
func (r *PanelRepeater) Clone(overrides scene.Fields) scene.Object {
	return newWithState(r.CloneFields(overrides), r.logger)
}

// Render renders the layout, forwarding opts unchanged.
func (r *PanelRepeater) Render(opts scene.RenderOptions) *scene.View {
	return r.Layout().Render(opts)
}

// Validate reports whether the repeater can expand: it needs a layout with
// at least one child to use as the template.
func Validate(r *PanelRepeater) error {
	layout := r.Layout()
	if layout == nil {
		return errors.New("S202").WithLocation("", r.Key())
	}
	if len(layout.Children()) == 0 {
		return errors.New("S201").WithLocation("", r.Key())
	}
	return nil
}
