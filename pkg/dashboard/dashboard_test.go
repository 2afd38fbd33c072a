package dashboard

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vango-dev/scenes/internal/errors"
	"github.com/vango-dev/scenes/pkg/data"
	"github.com/vango-dev/scenes/pkg/scene"
)

const yamlDefinition = `
title: Hosts
variables:
  host: web-1
  interval: 1m
repeat:
  key: hosts
  direction: column
  template:
    key: tpl
    kind: timeseries
    title: CPU on $host
    query: rate(cpu{host="${host}"}[[[interval]]])
    options:
      legend:
        format: "${host:raw}"
`

const jsonDefinition = `{
  "title": "Hosts",
  "variables": {"host": "web-1"},
  "repeat": {
    "template": {"title": "CPU on $host", "trackedFields": ["title"]}
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func donePayload(names ...string) data.PanelData {
	series := make([]data.Series, len(names))
	for i, name := range names {
		series[i] = data.Series{Name: name, Fields: []data.Field{{Name: "value", Values: []any{1.0}}}}
	}
	return data.PanelData{State: data.Done, Series: series}
}

func mustBuild(t *testing.T, raw string, format Format) *Dashboard {
	t.Helper()
	def, err := ParseDefinition([]byte(raw), format)
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	d, err := Build(def)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(yamlDefinition), FormatYAML)
	if err != nil {
		t.Fatalf("ParseDefinition(yaml): %v", err)
	}
	if def.Title != "Hosts" || def.Repeat.Direction != "column" || def.Repeat.Key != "hosts" {
		t.Errorf("unexpected definition: %+v", def)
	}
	if def.Variables["interval"] != "1m" {
		t.Errorf("variables = %v", def.Variables)
	}
	legend, ok := def.Repeat.Template.Options["legend"].(map[string]any)
	if !ok || legend["format"] != "${host:raw}" {
		t.Errorf("options = %#v", def.Repeat.Template.Options)
	}

	def, err = ParseDefinition([]byte(jsonDefinition), FormatJSON)
	if err != nil {
		t.Fatalf("ParseDefinition(json): %v", err)
	}
	if !reflect.DeepEqual(def.Repeat.Template.TrackedFields, []string{"title"}) {
		t.Errorf("trackedFields = %v", def.Repeat.Template.TrackedFields)
	}
}

func TestDefinitionValidation(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		code  string
		field string
	}{
		{"no template", `title: x`, "S301", "repeat.template"},
		{"bad direction", "repeat:\n  direction: diagonal\n  template: {title: a}", "S302", "repeat.direction"},
		{"bad variable", "variables:\n  \"my-var\": x\nrepeat:\n  template: {title: a}", "S303", "variables.my-var"},
		{"bad tracked field", "repeat:\n  template:\n    title: a\n    trackedFields: [kind]", "S306", "repeat.template.trackedFields"},
		{"malformed", "repeat: [", "S305", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinition([]byte(tt.raw), FormatYAML)
			var se *errors.SceneError
			if !stderrors.As(err, &se) || se.Code != tt.code {
				t.Fatalf("ParseDefinition() = %v, want %s", err, tt.code)
			}
			if se.Location == nil || se.Location.Field != tt.field {
				t.Errorf("Location = %+v, want field %q", se.Location, tt.field)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json":  FormatJSON,
		"a.YAML":  FormatYAML,
		"b/c.yml": FormatYAML,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %q, %v; want %q", path, got, err, want)
		}
	}

	if _, err := FormatFromPath("dash.toml"); !stderrors.Is(err, errors.New("S304")) {
		t.Errorf("FormatFromPath(toml) = %v, want S304", err)
	}
}

func TestLoadDefinitionRecordsFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dash.yaml", "repeat:\n  direction: up\n  template: {title: a}")

	_, err := LoadDefinition(path)
	var se *errors.SceneError
	if !stderrors.As(err, &se) || se.Location == nil || se.Location.File != path {
		t.Errorf("LoadDefinition() = %v, want location in %s", err, path)
	}
}

func TestBuildRendersTemplateBeforeData(t *testing.T) {
	d := mustBuild(t, yamlDefinition, FormatYAML)

	snap := d.Snapshot()
	if snap.Title != "Hosts" || snap.View.Direction != "column" {
		t.Errorf("snapshot = %+v", snap)
	}
	if got := scene.Keys(d.Repeater().Layout().Children()); !reflect.DeepEqual(got, []string{"tpl"}) {
		t.Errorf("children = %v, want [tpl]", got)
	}
}

func TestSetDataRepeats(t *testing.T) {
	d := mustBuild(t, yamlDefinition, FormatYAML)

	var snaps []Snapshot
	d.OnChange(func(s Snapshot) { snaps = append(snaps, s) })

	if err := d.SetData(data.PanelData{State: data.Loading}); err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 0 {
		t.Fatal("loading payload should not notify")
	}

	if err := d.SetData(donePayload("a", "b", "c")); err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 {
		t.Fatalf("notifications = %d, want 1", len(snaps))
	}
	view := snaps[0].View
	if len(view.Children) != 3 || view.Count() != 4 {
		t.Fatalf("rendered children = %d, want 3", len(view.Children))
	}
	for i, child := range view.Children {
		want := []string{"a", "b", "c"}[i]
		if !reflect.DeepEqual(child.Series, []string{want}) {
			t.Errorf("child %d series = %v, want [%s]", i, child.Series, want)
		}
	}
}

func TestSetVariableNotifiesDependents(t *testing.T) {
	d := mustBuild(t, yamlDefinition, FormatYAML)
	if err := d.SetData(donePayload("a", "b")); err != nil {
		t.Fatal(err)
	}

	calls := 0
	remove := d.OnChange(func(Snapshot) { calls++ })

	n, err := d.SetVariable("host", "web-2")
	if err != nil || n != 2 {
		t.Fatalf("SetVariable(host) = %d, %v; want 2", n, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	n, _ = d.SetVariable("region", "eu")
	if n != 0 || calls != 1 {
		t.Errorf("unreferenced variable notified %d objects, %d calls", n, calls)
	}

	if _, err := d.SetVariable("bad name", "x"); !stderrors.Is(err, errors.New("S303")) {
		t.Errorf("SetVariable(bad name) = %v, want S303", err)
	}

	remove()
	d.SetVariable("interval", "5m")
	if calls != 1 {
		t.Error("removed listener was called")
	}
	if d.Variables()["interval"] != "5m" {
		t.Errorf("variables = %v", d.Variables())
	}
}

func TestDependencies(t *testing.T) {
	d := mustBuild(t, yamlDefinition, FormatYAML)

	want := []Dependency{{Key: "tpl", Variables: []string{"host", "interval"}}}
	if got := d.Dependencies(); !reflect.DeepEqual(got, want) {
		t.Errorf("Dependencies() = %+v, want %+v", got, want)
	}

	jd := mustBuild(t, jsonDefinition, FormatJSON)
	jd.SetData(donePayload("x"))
	if got := jd.Dependencies(); len(got) != 1 || got[0].Key != "0" || !reflect.DeepEqual(got[0].Variables, []string{"host"}) {
		t.Errorf("Dependencies() = %+v", got)
	}
}

func TestEmptyRepeatLosesTemplate(t *testing.T) {
	d := mustBuild(t, jsonDefinition, FormatJSON)

	if err := d.SetData(donePayload()); err != nil {
		t.Fatal(err)
	}
	if n := len(d.Repeater().Layout().Children()); n != 0 {
		t.Fatalf("children = %d, want 0", n)
	}
	if err := d.SetData(donePayload("a")); !stderrors.Is(err, errors.New("S201")) {
		t.Errorf("SetData() = %v, want S201", err)
	}
}

func TestLoadAppliesDataFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "payload.json", `{"state": "Done", "series": [{"name": "a", "fields": []}, {"name": "b", "fields": []}]}`)
	path := writeFile(t, dir, "dash.json", `{"title": "T", "data": "payload.json", "repeat": {"template": {"title": "$x"}}}`)

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer d.Close()

	if got := scene.Keys(d.Repeater().Layout().Children()); !reflect.DeepEqual(got, []string{"0", "1"}) {
		t.Errorf("children = %v", got)
	}
	if d.Data().State != data.Done {
		t.Errorf("Data().State = %v", d.Data().State)
	}
}

func TestLoadDataRejectsBadPayload(t *testing.T) {
	d := mustBuild(t, jsonDefinition, FormatJSON)
	path := writeFile(t, t.TempDir(), "bad.json", `{"state": "Sideways"}`)

	if err := d.LoadData(path); !stderrors.Is(err, errors.New("S003")) {
		t.Errorf("LoadData() = %v, want S003", err)
	}
	if err := d.LoadData(filepath.Join(t.TempDir(), "missing.json")); !stderrors.Is(err, errors.New("S003")) {
		t.Errorf("LoadData(missing) = %v, want S003", err)
	}
}

func TestCloseStopsRepeating(t *testing.T) {
	d := mustBuild(t, jsonDefinition, FormatJSON)
	d.Close()

	if err := d.SetData(donePayload("a", "b")); err != nil {
		t.Fatal(err)
	}
	if got := scene.Keys(d.Repeater().Layout().Children()); len(got) != 1 {
		t.Errorf("closed dashboard repeated: %v", got)
	}
}
