package variables

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func TestExtractNamesGrammar(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"dollar", "$server", []string{"server"}},
		{"braces", "${server}", []string{"server"}},
		{"brackets", "[[server]]", []string{"server"}},
		{"brackets with format", "[[server:csv]]", []string{"server"}},
		{"braces with path", "${server.name}", []string{"server"}},
		{"braces with format", "${server:pipe}", []string{"server"}},
		{"braces with path and format", "${server.name:raw}", []string{"server"}},
		{"embedded in query", "rate(http_requests{instance=~\"$server\"}[$__interval])", []string{"__interval", "server"}},
		{"no references", "plain text", []string{}},
		{"empty", "", []string{}},
		{"lone sigil", "costs $ 5", []string{}},
		{"structured value", map[string]any{"expr": "up{job=\"${job}\"}", "legend": "[[instance]]"}, []string{"instance", "job"}},
		{"slice value", []string{"$a", "$b"}, []string{"a", "b"}},
		{"number", 42, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractNames(tt.value).Sorted()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractNames(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestExtractNamesAllSyntaxesResolveToSameName(t *testing.T) {
	for _, text := range []string{"$X", "${X}", "[[X]]"} {
		got := ExtractNames(text)
		if got.Len() != 1 || !got.Has("X") {
			t.Errorf("ExtractNames(%q) = %v, want {X}", text, got.Sorted())
		}
	}
}

func TestExtractNamesCollapsesDuplicates(t *testing.T) {
	got := ExtractNames("$X and ${X} and [[X]]")
	if got.Len() != 1 || !got.Has("X") {
		t.Errorf("ExtractNames = %v, want {X}", got.Sorted())
	}
}

func TestExtractNamesHasNoCrossCallState(t *testing.T) {
	text := "$first then $second"
	a := ExtractNames(text)
	b := ExtractNames(text)
	if !reflect.DeepEqual(a.Sorted(), b.Sorted()) {
		t.Errorf("repeated scans differ: %v vs %v", a.Sorted(), b.Sorted())
	}
	if ExtractNames("$third").Has("first") {
		t.Error("scan results must not leak between calls")
	}
}

func TestExtractNamesUnserializableValue(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	cyclic := map[string]any{"expr": "$server"}
	cyclic["self"] = cyclic

	for name, value := range map[string]any{
		"channel": make(chan int),
		"func":    func() {},
		"cyclic":  cyclic,
	} {
		t.Run(name, func(t *testing.T) {
			buf.Reset()
			if got := ExtractNames(value); got.Len() != 0 {
				t.Errorf("ExtractNames = %v, want empty", got.Sorted())
			}
			if !strings.Contains(buf.String(), "S001") {
				t.Errorf("expected a logged S001 error, got %q", buf.String())
			}
		})
	}
}

func TestFindReferences(t *testing.T) {
	refs := FindReferences("$a ${b.path:fmt} [[c:csv]]")

	want := []Reference{
		{Name: "a", Syntax: SyntaxDollar, Match: "$a"},
		{Name: "b", Syntax: SyntaxBraces, FieldPath: "path", Format: "fmt", Match: "${b.path:fmt}"},
		{Name: "c", Syntax: SyntaxBrackets, Format: "csv", Match: "[[c:csv]]"},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("FindReferences = %+v, want %+v", refs, want)
	}

	if SyntaxBraces.String() != "braces" || Syntax(0).String() != "unknown" {
		t.Error("unexpected Syntax names")
	}
}

func TestNameSet(t *testing.T) {
	s := NewNameSet("b", "a", "b")
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if !reflect.DeepEqual(s.Sorted(), []string{"a", "b"}) {
		t.Errorf("Sorted() = %v", s.Sorted())
	}
	if !s.Intersects("z", "a") || s.Intersects("z") || s.Intersects() {
		t.Error("unexpected Intersects result")
	}
}
