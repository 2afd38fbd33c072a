package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/scenes/pkg/dashboard"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanText(t *testing.T) {
	out, err := run(t, "scan", "CPU on $host", "${region:raw} [[host]]")
	if err != nil {
		t.Fatal(err)
	}
	if out != "host\nregion\n" {
		t.Errorf("output = %q", out)
	}
}

func TestScanDetailJSON(t *testing.T) {
	out, err := run(t, "scan", "--detail", "--json", "${a.b:csv}")
	if err != nil {
		t.Fatal(err)
	}
	var refs []map[string]string
	if err := json.Unmarshal([]byte(out), &refs); err != nil {
		t.Fatalf("output is not JSON: %q", out)
	}
	if len(refs) != 1 || refs[0]["name"] != "a" || refs[0]["syntax"] != "braces" ||
		refs[0]["fieldPath"] != "b" || refs[0]["format"] != "csv" {
		t.Errorf("refs = %v", refs)
	}
}

func TestScanNothing(t *testing.T) {
	if _, err := run(t, "scan"); err == nil {
		t.Error("scan without input should fail")
	}
}

func TestRepeat(t *testing.T) {
	dir := t.TempDir()
	dash := writeFile(t, dir, "dash.yaml", "title: Hosts\nrepeat:\n  template:\n    title: CPU $host\n")
	payload := writeFile(t, dir, "payload.json", `{"state": "Done", "series": [{"name": "a", "fields": []}, {"name": "b", "fields": []}]}`)

	out, err := run(t, "repeat", "-d", dash, "-p", payload, "--set", "host=web-1", "--editing")
	if err != nil {
		t.Fatal(err)
	}

	var snap dashboard.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("output is not a snapshot: %q", out)
	}
	if len(snap.View.Children) != 2 || !snap.View.Editing {
		t.Errorf("view = %+v", snap.View)
	}
	if snap.Variables["host"] != "web-1" {
		t.Errorf("variables = %v", snap.Variables)
	}
}

func TestScanDashboard(t *testing.T) {
	dash := writeFile(t, t.TempDir(), "dash.json", `{"repeat": {"template": {"key": "tpl", "query": "up{job=\"$job\"}"}}}`)

	out, err := run(t, "scan", "-d", dash)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "tpl: job" {
		t.Errorf("output = %q", out)
	}
}

func TestVersionShort(t *testing.T) {
	out, err := run(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("output = %q", out)
	}
}
