// Package scene provides the scene graph that dashboards are assembled from.
//
// A scene object is a node holding an immutable state record. Updating an
// object replaces its record wholesale, so a change of record identity
// signals "state changed" to anyone holding the previous one:
//
//	layout := scene.NewLayout(scene.Row, panelA, panelB)
//	before := layout.State()
//	layout.SetChildren([]scene.Object{panelB})
//	changed := layout.State() != before // true
//
// # Capabilities
//
// Every node implements Object: state get/set, state subscriptions,
// cloning with overrides, parent links, activation and rendering to a
// View tree. Concrete node types embed Base and supply Clone and Render.
//
// # Activation
//
// Activate acquires an activation scope and returns the function that
// releases it. Work registered with AddActivationHandler runs on the first
// activation and its cleanups run, in reverse order, when the last
// activation is released:
//
//	release := repeater.Activate()
//	defer release()
//
// # Threading
//
// Notifications are delivered synchronously on the goroutine that called
// SetState. State reads are safe from any goroutine; mutations of one
// graph are expected to be serialized by the owner of the graph.
package scene
