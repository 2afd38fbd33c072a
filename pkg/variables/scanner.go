package variables

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"

	"github.com/vango-dev/scenes/internal/errors"
	"github.com/vango-dev/scenes/pkg/telemetry"
)

// referencePattern matches $name, [[name]] / [[name:format]] and
// ${name} / ${name.path} / ${name:format}.
//
// Submatches: 1 $name, 2 [[name, 3 format, 4 ${name, 5 path, 6 format.
var referencePattern = regexp.MustCompile(`\$(\w+)|\[\[(\w+?)(?::(\w+))?\]\]|\$\{(\w+)(?:\.([^:^\}]+))?(?::([^\}]+))?\}`)

// Syntax identifies which reference form was used.
type Syntax int

const (
	SyntaxDollar Syntax = iota + 1
	SyntaxBrackets
	SyntaxBraces
)

// String returns a short name for the syntax.
func (s Syntax) String() string {
	switch s {
	case SyntaxDollar:
		return "dollar"
	case SyntaxBrackets:
		return "brackets"
	case SyntaxBraces:
		return "braces"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Syntax) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Reference is one variable reference found in a text.
type Reference struct {
	Name      string `json:"name"`
	Syntax    Syntax `json:"syntax"`
	FieldPath string `json:"fieldPath,omitempty"`
	Format    string `json:"format,omitempty"`
	Match     string `json:"match"`
}

// NameSet is a set of variable names.
type NameSet map[string]struct{}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names.
func (s NameSet) Len() int {
	return len(s)
}

// Sorted returns the names in sorted order.
func (s NameSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Intersects reports whether any of names is in the set.
func (s NameSet) Intersects(names ...string) bool {
	for _, name := range names {
		if s.Has(name) {
			return true
		}
	}
	return false
}

// FindReferences returns every variable reference in text, in order.
func FindReferences(text string) []Reference {
	matches := referencePattern.FindAllStringSubmatch(text, -1)
	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		switch {
		case m[1] != "":
			refs = append(refs, Reference{Name: m[1], Syntax: SyntaxDollar, Match: m[0]})
		case m[2] != "":
			refs = append(refs, Reference{Name: m[2], Syntax: SyntaxBrackets, Format: m[3], Match: m[0]})
		case m[4] != "":
			refs = append(refs, Reference{Name: m[4], Syntax: SyntaxBraces, FieldPath: m[5], Format: m[6], Match: m[0]})
		}
	}
	return refs
}

// ExtractNames returns the names of all variables referenced by value.
// Values that cannot be encoded as JSON reference nothing; the failure is
// logged and counted.
func ExtractNames(value any) NameSet {
	names := make(NameSet)
	addNames(names, value, slog.Default())
	return names
}

func addNames(names NameSet, value any, logger *slog.Logger) {
	for _, ref := range FindReferences(textOf(value, logger)) {
		names[ref.Name] = struct{}{}
	}
}

// textOf returns value as text, encoding non-strings as JSON.
func textOf(value any, logger *slog.Logger) string {
	if s, ok := value.(string); ok {
		return s
	}

	raw, err := json.Marshal(value)
	if err != nil {
		telemetry.RecordSerializationFailure()
		logger.Error("variables: cannot scan value",
			"error", errors.New("S001").Wrap(err),
			"type", fmt.Sprintf("%T", value),
		)
		return ""
	}
	return string(raw)
}
