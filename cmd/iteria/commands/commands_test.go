package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/livefir/iteria"
	"github.com/livefir/iteria/internal/journal"
	"github.com/livefir/iteria/internal/metrics"
	"github.com/livefir/iteria/internal/workspace"
)

const component = `<p>{name}</p>

<style>
p { color: red; }
</style>

<script>
	export let name = 'world';
</script>
`

// setup isolates HOME and the working directory and captures command output
func setup(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)

	var out bytes.Buffer
	old := stdout
	stdout = &out
	t.Cleanup(func() { stdout = old })
	return dir, &out
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		positional []string
		flags      map[string]string
		wantErr    bool
	}{
		{
			name:       "positional and bool flags",
			args:       []string{"a.svelte", "--write"},
			positional: []string{"a.svelte"},
			flags:      map[string]string{"write": "true"},
		},
		{
			name:       "value flags",
			args:       []string{"--addr", ":9000", "a.svelte", "--theme=light"},
			positional: []string{"a.svelte"},
			flags:      map[string]string{"addr": ":9000", "theme": "light"},
		},
		{
			name:    "missing value",
			args:    []string{"a.svelte", "--addr"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.args, "addr", "theme")
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.positional, got.positional); diff != "" {
				t.Errorf("positional mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.flags, got.flags); diff != "" {
				t.Errorf("flags mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	setup(t)

	p, err := parseArgs([]string{"--theme", "light", "--debounce", "250ms", "--strict"}, "theme", "debounce")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(p)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Theme != "light" || cfg.Debounce.String() != "250ms" || !cfg.Format.StrictMode {
		t.Errorf("Overrides not applied: %+v", cfg)
	}

	p, _ = parseArgs([]string{"--theme", "sepia"}, "theme")
	if _, err := loadConfig(p); err == nil {
		t.Error("Expected validation error for unknown theme")
	}
}

func TestTreeCommand(t *testing.T) {
	dir, out := setup(t)
	path := filepath.Join(dir, "index.svelte")
	if err := os.WriteFile(path, []byte(component), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Tree([]string{path}); err != nil {
		t.Fatalf("Tree failed: %v", err)
	}
	if !strings.Contains(out.String(), `"schemaVersion"`) || strings.Contains(out.String(), "parentNode") {
		t.Errorf("Unexpected tree output:\n%s", out)
	}
	if strings.Contains(out.String(), "export let name") {
		t.Error("Script bodies should not reach the tree output")
	}

	out.Reset()
	if err := Tree([]string{path, "--scripts"}); err != nil {
		t.Fatalf("Tree --scripts failed: %v", err)
	}
	if !strings.Contains(out.String(), "export let name = 'world';") {
		t.Errorf("Expected captured script:\n%s", out)
	}

	if err := Tree(nil); err == nil {
		t.Error("Expected usage error")
	}
}

func TestFormatCommand(t *testing.T) {
	dir, out := setup(t)
	path := filepath.Join(dir, "index.svelte")
	if err := os.WriteFile(path, []byte(component), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Format([]string{path}); err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "<script>") {
		t.Errorf("Expected scripts first:\n%s", out)
	}
	if data, _ := os.ReadFile(path); string(data) != component {
		t.Error("Format without --write changed the file")
	}

	if err := Format([]string{path, "--write", "--order", "markup-styles-scripts"}); err != nil {
		t.Fatalf("Format --write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "<p>") || !strings.HasSuffix(strings.TrimSpace(string(data)), "</script>") {
		t.Errorf("Unexpected formatted file:\n%s", data)
	}
}

func TestFormatCommandKeepsNestedScripts(t *testing.T) {
	dir, _ := setup(t)
	path := filepath.Join(dir, "index.svelte")
	src := `<li>a<li>b</li><div><script>let secret = 42;</script></div><script>let secret = 42;</script>`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Format([]string{path, "--write"}); err != nil {
		t.Fatalf("Format --write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "let secret = 42;"); got != 2 {
		t.Errorf("script bodies lost, %d of 2 left:\n%s", got, data)
	}
}

func TestMetricsSourceIncludesCounters(t *testing.T) {
	collector := metrics.NewCollector()
	collector.IncrementCustomCounter("dropped_events")
	collector.IncrementCustomCounter("theme_notices")

	data, err := json.Marshal(metricsSource(collector)())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, key := range []string{`"dropped_events":1`, `"theme_notices":1`, `"edit_success_rate":100`, `"pulls":0`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("Expected %s in %s", key, data)
		}
	}
}

func TestAddPageCommand(t *testing.T) {
	dir, out := setup(t)

	if err := AddPage([]string{"blog/first-post"}); err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	file := filepath.Join(dir, "src", "pages", "blog", "first-post", "index.svelte")
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("Page not created: %v", err)
	}
	if !strings.Contains(out.String(), "First Post") {
		t.Errorf("Expected title in output: %s", out)
	}

	if err := AddPage([]string{"blog/first-post"}); err == nil {
		t.Error("Expected error for existing page")
	}
	if err := AddPage([]string{"blog/first-post", "--force"}); err != nil {
		t.Errorf("AddPage --force failed: %v", err)
	}

	// go test does not attach a terminal, so there is nothing to prompt on
	if err := AddPage(nil); err == nil || !strings.Contains(err.Error(), "page name required") {
		t.Errorf("Expected name required error, got %v", err)
	}
}

func TestHistoryAndRevert(t *testing.T) {
	dir, out := setup(t)
	dbPath := filepath.Join(dir, "journal.db")
	path := filepath.Join(dir, "index.svelte")
	if err := os.WriteFile(path, []byte("<p>edited</p>"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := History([]string{path}); err == nil {
		t.Error("Expected error without a journal")
	}

	ctx := context.Background()
	j, err := journal.Open(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	abs, _ := filepath.Abs(path)
	rev, err := j.Record(ctx, iteria.Revision{
		DocumentURI: workspace.URI(abs),
		Before:      "<p>original</p>",
		After:       "<p>edited</p>",
	})
	if err != nil {
		t.Fatal(err)
	}
	j.Close()

	if err := History([]string{path, "--journal", dbPath}); err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if !strings.Contains(out.String(), rev.ID) {
		t.Errorf("Expected %s in history:\n%s", rev.ID, out)
	}

	if err := Revert([]string{rev.ID, "--journal", dbPath}); err != nil {
		t.Fatalf("Revert failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<p>original</p>" {
		t.Errorf("File after revert = %q", data)
	}

	j, err = journal.Open(ctx, dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	revs, err := j.List(ctx, workspace.URI(abs), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 2 || revs[0].After != "<p>original</p>" {
		t.Errorf("Expected the revert to be recorded, got %+v", revs)
	}
}

func TestConfigCommand(t *testing.T) {
	_, out := setup(t)

	if err := Config([]string{"set", "theme", "light"}); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	out.Reset()
	if err := Config([]string{"get", "theme"}); err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "light" {
		t.Errorf("theme = %q, want light", out.String())
	}

	if err := Config([]string{"set", "theme", "sepia"}); err == nil {
		t.Error("Expected validation error")
	}
	if err := Config([]string{"set", "format.strict_mode", "maybe"}); err == nil {
		t.Error("Expected bool parse error")
	}
	if err := Config([]string{"get", "nope"}); err == nil {
		t.Error("Expected unknown key error")
	}

	out.Reset()
	if err := Config([]string{"list"}); err != nil {
		t.Fatalf("config list failed: %v", err)
	}
	if !strings.Contains(out.String(), "format.ordering") {
		t.Errorf("Expected keys in list:\n%s", out)
	}
}
