// Package errors provides structured, coded errors for scenes.
//
// Every error carries a stable code (e.g., "S201") that maps to a
// registered template with a short message, a longer explanation and a
// documentation link. Errors raised while loading a dashboard definition
// also carry the file and field they refer to.
//
// # Error Categories
//
//   - runtime: scene graph misuse detected while running
//   - config: scenes.json problems
//   - repeat: panel repeater configuration defects
//   - definition: dashboard definition validation failures
//
// # Usage
//
//	err := errors.New("S301").
//	    WithLocation("dashboards/hosts.yaml", "repeat.template").
//	    WithSuggestion("Add a template panel under repeat.template")
//
//	fmt.Println(err.Format())
package errors
