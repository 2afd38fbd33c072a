// Package variables finds the template variables a scene object depends on.
//
// References can be written in three forms, all naming the same variable:
//
//	$server
//	${server}          ${server.path}   ${server:format}
//	[[server]]         [[server:format]]
//
// ExtractNames returns the set of names referenced by any value; values
// that are not strings are scanned in their JSON encoding.
//
// A DependencyConfig caches the names referenced by a chosen list of an
// object's state fields and only rescans when one of those fields has
// changed since the last call:
//
//	deps := variables.NewDependencyConfig(panel, variables.Options{
//	    StatePaths: []string{"title", "query"},
//	})
//	if deps.Names().Has("server") { ... }
//
// A Set holds the current variable values for a scene tree and notifies
// every dependent object when a value it references changes.
package variables
