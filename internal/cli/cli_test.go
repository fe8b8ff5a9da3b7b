package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/jrevolver/pkg/layout"
	"github.com/matzehuels/jrevolver/pkg/observability"
	"github.com/matzehuels/jrevolver/pkg/resolve"
)

// newTestCLI returns a CLI with a quiet logger, a private cache directory
// and its command output captured.
func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.Out = &out
	c.config = DefaultConfig()
	c.config.Cache.Dir = t.TempDir()
	return c, &out
}

func run(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestGenerateCommand(t *testing.T) {
	c, _ := newTestCLI(t)
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "mocks")
	writeTree(t, in, map[string]string{
		"users.json": `{"--filename":"{role}","--map role":["admin","guest"]}`,
		"plain.json": `{"b":1,"a":2}`,
	})

	if err := run(t, c, "generate", in, out, "--indent", "4"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if got := readFile(t, filepath.Join(out, "users", "admin.json")); got != "{\n    \"role\": \"admin\"\n}" {
		t.Errorf("admin.json = %q", got)
	}
	if got := readFile(t, filepath.Join(out, "plain.json")); got != "{\n    \"a\": 2,\n    \"b\": 1\n}" {
		t.Errorf("plain.json = %q", got)
	}
}

func TestGenerateNoSort(t *testing.T) {
	c, _ := newTestCLI(t)
	c.config.Indent = -1
	in := t.TempDir()
	out := t.TempDir()
	writeTree(t, in, map[string]string{"plain.json": `{"b":1,"a":2}`})

	if err := run(t, c, "generate", filepath.Join(in, "plain.json"), out, "--no-sort", "--no-cache"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := readFile(t, filepath.Join(out, "plain.json")); got != `{"b":1,"a":2}` {
		t.Errorf("plain.json = %q", got)
	}
}

func TestGenerateIncludeFlag(t *testing.T) {
	c, _ := newTestCLI(t)
	c.config.Indent = -1
	in := t.TempDir()
	shared := t.TempDir()
	out := t.TempDir()
	writeTree(t, in, map[string]string{"api.json": `{"--include base.json":"DEFAULTS","status":"live"}`})
	writeTree(t, shared, map[string]string{"base.json": `{"status":"draft","version":2}`})

	if err := run(t, c, "generate", filepath.Join(in, "api.json"), out, "-I", shared); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := readFile(t, filepath.Join(out, "api.json")); got != `{"status":"live","version":2}` {
		t.Errorf("api.json = %q", got)
	}
}

func TestGenerateReportsFailures(t *testing.T) {
	c, _ := newTestCLI(t)
	in := t.TempDir()
	out := t.TempDir()
	writeTree(t, in, map[string]string{
		"good.json": `{"ok":true}`,
		"bad.json":  `{"--mapp x":[1]}`,
	})

	err := run(t, c, "generate", in, out)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 layouts failed") {
		t.Fatalf("err = %v, want one failed layout", err)
	}
	if _, err := os.Stat(filepath.Join(out, "good.json")); err != nil {
		t.Errorf("good.json was not written: %v", err)
	}
}

func TestResolveCommand(t *testing.T) {
	in := t.TempDir()
	file := filepath.Join(in, "users.json")
	writeTree(t, in, map[string]string{"users.json": `{"--map role":["admin","guest"],"id":1}`})

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "all permutations",
			args: []string{"resolve", file},
			want: `[{"id":1,"role":"admin"},{"id":1,"role":"guest"}]` + "\n",
		},
		{
			name: "single permutation",
			args: []string{"resolve", file, "--index", "1"},
			want: `{"id":1,"role":"guest"}` + "\n",
		},
		{
			name: "yaml",
			args: []string{"resolve", file, "--index", "0", "--format", "yaml"},
			want: "id: 1\nrole: admin\n",
		},
		{
			name:    "index out of range",
			args:    []string{"resolve", file, "--index", "2"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			args:    []string{"resolve", file, "--format", "toml"},
			wantErr: true,
		},
		{
			name:    "missing file",
			args:    []string{"resolve", filepath.Join(in, "nope.json")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := newTestCLI(t)
			c.config.Indent = -1

			err := run(t, c, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestWriteYAMLKeepsOrderAndQuotes(t *testing.T) {
	var buf bytes.Buffer
	v := layout.MustParse(`{"z":"true","a":[1,2.5,null],"m":{"k":"v"}}`)
	if err := writeYAML(&buf, v); err != nil {
		t.Fatal(err)
	}

	want := "z: \"true\"\na:\n  - 1\n  - 2.5\n  - null\nm:\n  k: v\n"
	if buf.String() != want {
		t.Errorf("yaml =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestGraphCommand(t *testing.T) {
	c, out := newTestCLI(t)
	in := t.TempDir()
	writeTree(t, in, map[string]string{
		"root.json":  `{"user":"--include user.json","--include missing.json":"DEFAULTS"}`,
		"user.json":  `{"name":"x"}`,
		"other.json": `{}`,
	})

	if err := run(t, c, "graph", filepath.Join(in, "root.json")); err != nil {
		t.Fatalf("graph: %v", err)
	}

	dot := out.String()
	for _, want := range []string{"digraph includes", `label="user.json"`, `label="value"`, `label="defaults"`, "dashed"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "other.json") {
		t.Errorf("DOT output contains an unreferenced document:\n%s", dot)
	}
}

func TestGraphCommandWritesFile(t *testing.T) {
	c, out := newTestCLI(t)
	in := t.TempDir()
	writeTree(t, in, map[string]string{"root.json": `{"a":1}`})
	dest := filepath.Join(t.TempDir(), "graph.dot")

	if err := run(t, c, "graph", filepath.Join(in, "root.json"), "-o", dest); err != nil {
		t.Fatalf("graph: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", out.String())
	}
	if got := readFile(t, dest); !strings.HasPrefix(got, "digraph includes {") {
		t.Errorf("graph.dot = %q", got)
	}
}

func TestCacheCommands(t *testing.T) {
	c, out := newTestCLI(t)
	in := t.TempDir()
	writeTree(t, in, map[string]string{"a.json": `{"--map n":[1,2]}`})

	if err := run(t, c, "cache", "path"); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != c.config.Cache.Dir {
		t.Errorf("cache path = %q, want %q", got, c.config.Cache.Dir)
	}

	if err := run(t, c, "generate", in, t.TempDir()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if n := countEntries(t, c.config.Cache.Dir); n != 1 {
		t.Fatalf("cache holds %d entries after generate, want 1", n)
	}

	if err := run(t, c, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if n := countEntries(t, c.config.Cache.Dir); n != 0 {
		t.Errorf("cache holds %d entries after clear, want 0", n)
	}
}

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && filepath.Ext(p) == ".json" {
			n++
		}
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestInitCommand(t *testing.T) {
	c, _ := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "jrevolver.toml")

	if err := run(t, c, "init", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
	def := DefaultConfig()
	if cfg.OutputDir != def.OutputDir || cfg.Cache.TTL != def.Cache.TTL || cfg.Serve.Addr != def.Serve.Addr {
		t.Errorf("config = %+v, want defaults", cfg)
	}

	if err := run(t, c, "init", path); err == nil {
		t.Error("init overwrote an existing config")
	}
}

func TestServeHandler(t *testing.T) {
	defer observability.Reset()

	c, _ := newTestCLI(t)
	shared := t.TempDir()
	writeTree(t, shared, map[string]string{"base.json": `{"v":1}`})

	h := c.serveHandler(&serveOpts{includes: []string{shared}})

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"layout":{"--include base.json":"DEFAULTS","w":2}}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/resolve", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `{"v":1,"w":2}`) {
		t.Errorf("body = %s", rec.Body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	for _, want := range []string{"jrevolver_resolves_total", "jrevolver_http_requests_total", "go_goroutines"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestServeHandlerWithoutMetrics(t *testing.T) {
	defer observability.Reset()

	c, _ := newTestCLI(t)
	h := c.serveHandler(&serveOpts{noMetrics: true})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("metrics status = %d, want 404", rec.Code)
	}
}

func TestPermutationListModel(t *testing.T) {
	perms := []resolve.Permutation{
		{Value: layout.MustParse(`{"role":"admin"}`), Filename: "{role}"},
		{Value: layout.MustParse(`{"role":"guest"}`)},
	}
	m := NewPermutationListModel(perms, 2)

	names := []string{m.Items[0].Name, m.Items[1].Name}
	if !slices.Equal(names, []string{"admin", "#1"}) {
		t.Errorf("names = %v", names)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(PermutationListModel)
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d after down, want 1", m.Cursor)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if next.(PermutationListModel).Cursor != 1 {
		t.Error("cursor moved past the last permutation")
	}

	view := m.View()
	for _, want := range []string{"admin", "#1", `"role": "guest"`, "[2/2]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Error("q should quit")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"much-too-long-name", 8, "much-to…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
