package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"todo-app/app"
	"todo-app/model"
)

// cli runs commands against one isolated data directory.
type cli struct {
	t       *testing.T
	dataDir string
	extra   []string
}

func newCLI(t *testing.T, extra ...string) *cli {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	for _, k := range []string{"TODO_BACKEND", "TODO_DATA_DIR", "TODO_LOG_FILE", "TODO_LOG_LEVEL", "TODO_LOG_FORMAT"} {
		t.Setenv(k, "")
	}

	prev := stdoutIsTerminal
	stdoutIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdoutIsTerminal = prev })

	return &cli{t: t, dataDir: filepath.Join(home, "tasks"), extra: extra}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	full := []string{"--data-dir", c.dataDir, "--log-file", filepath.Join(c.dataDir, "todo.log"), "--log-level", "debug"}
	full = append(full, c.extra...)
	root.SetArgs(append(full, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "todo %s: %s", strings.Join(args, " "), out)
	return out
}

func (c *cli) add(text string) string {
	c.t.Helper()
	out := c.mustRun("add", text)
	id := strings.TrimSpace(strings.TrimPrefix(out, "added "))
	require.NotEmpty(c.t, id)
	return id
}

func TestAddListAndCounts(t *testing.T) {
	c := newCLI(t)

	milk := c.add("Buy milk")
	c.add("Pay rent")

	out := c.mustRun("list")
	require.Contains(t, out, "[ ] Buy milk  "+milk)
	require.Contains(t, out, "[ ] Pay rent")
	require.Less(t, strings.Index(out, "Buy milk"), strings.Index(out, "Pay rent"), "insertion order")

	require.Equal(t, "All (2)  Active (2)  Completed (0)\n", c.mustRun("counts"))
}

func TestAddRejectsEmptyText(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("add", "")
	require.ErrorIs(t, err, app.ErrEmptyText)
	require.Contains(t, err.Error(), "no name")

	require.Equal(t, "All (0)  Active (0)  Completed (0)\n", c.mustRun("counts"))
}

func TestDoneAndUndoWithIDPrefix(t *testing.T) {
	c := newCLI(t)
	id := c.add("Water plants")
	c.add("Call mum")

	c.mustRun("done", id)
	completed := c.mustRun("list", "--filter", "completed")
	require.Contains(t, completed, "[x] Water plants")
	require.NotContains(t, completed, "Call mum")
	require.NotContains(t, c.mustRun("list", "-f", "active"), "Water plants")

	c.mustRun("done", "--undo", id)
	require.Contains(t, c.mustRun("list", "-f", "active"), "Water plants")
}

func TestRemoveAndEdit(t *testing.T) {
	c := newCLI(t)
	a := c.add("alpha")
	b := c.add("beta")

	c.mustRun("edit", b, "beta", "two")
	c.mustRun("rm", a)

	out := c.mustRun("list")
	require.NotContains(t, out, "alpha")
	require.Contains(t, out, "[ ] beta two  "+b)
}

func TestUnknownIDIsReported(t *testing.T) {
	c := newCLI(t)
	c.add("alpha")

	_, err := c.run("rm", "does-not-exist")
	require.ErrorIs(t, err, app.ErrItemNotFound)

	_, err = c.run("done", "does-not-exist")
	require.ErrorIs(t, err, app.ErrItemNotFound)
}

func TestEditRejectsEmptyText(t *testing.T) {
	c := newCLI(t)
	id := c.add("alpha")

	_, err := c.run("edit", id, "")
	require.ErrorIs(t, err, app.ErrEmptyText)
	require.Contains(t, c.mustRun("list"), "alpha")
}

func TestToggleAll(t *testing.T) {
	c := newCLI(t)
	c.add("alpha")
	b := c.add("beta")
	c.mustRun("done", b)

	require.Equal(t, "0 active, 2 completed\n", c.mustRun("toggle-all"))
	require.Equal(t, "2 active, 0 completed\n", c.mustRun("toggle-all"))
}

func TestExportJSONAndYAML(t *testing.T) {
	c := newCLI(t)
	a := c.add("alpha")
	b := c.add("beta")
	c.mustRun("done", b)
	want := []model.Item{
		{ID: a, Text: "alpha"},
		{ID: b, Text: "beta", Complete: true},
	}

	var fromJSON []model.Item
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("export")), &fromJSON))
	if diff := cmp.Diff(want, fromJSON); diff != "" {
		t.Fatalf("json export mismatch (-want +got):\n%s", diff)
	}

	var fromYAML []model.Item
	require.NoError(t, yaml.Unmarshal([]byte(c.mustRun("export", "--format", "yaml")), &fromYAML))
	if diff := cmp.Diff(want, fromYAML); diff != "" {
		t.Fatalf("yaml export mismatch (-want +got):\n%s", diff)
	}

	_, err := c.run("export", "--format", "csv")
	require.Error(t, err)
}

func TestListMarkdown(t *testing.T) {
	c := newCLI(t)
	c.add("Buy milk")

	out := ansi.Strip(c.mustRun("list", "--markdown"))
	require.Contains(t, out, "To do")
	require.Contains(t, out, "Buy milk")
}

func TestListRejectsUnknownFilter(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("list", "--filter", "someday")
	require.Error(t, err)
}

func TestRootPrintsListWithoutTerminal(t *testing.T) {
	c := newCLI(t)

	require.Contains(t, c.mustRun(), "no items")
	c.add("alpha")
	require.Contains(t, c.mustRun(), "[ ] alpha")
}

func TestSQLiteBackendPersists(t *testing.T) {
	c := newCLI(t, "--backend", "sqlite")
	c.add("stored in sqlite")

	require.Contains(t, c.mustRun("list"), "stored in sqlite")
	_, err := os.Stat(filepath.Join(c.dataDir, "todo.db"))
	require.NoError(t, err)
}

func TestMemoryBackendForgets(t *testing.T) {
	c := newCLI(t, "--backend", "memory")
	c.add("gone")

	require.NotContains(t, c.mustRun("list"), "gone")
}

func TestConfigFileSelectsBackend(t *testing.T) {
	c := newCLI(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[storage]\nbackend = \"sqlite\"\n"), 0o644))
	c.extra = []string{"--config", path}

	c.add("via config")
	_, err := os.Stat(filepath.Join(c.dataDir, "todo.db"))
	require.NoError(t, err)

	_, err = c.run("--backend", "redis", "list")
	require.Error(t, err)
}

func TestCorruptStoreStartsEmpty(t *testing.T) {
	c := newCLI(t)
	require.NoError(t, os.MkdirAll(c.dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(c.dataDir, "todo_list_items"), []byte("{oops"), 0o644))

	require.Contains(t, c.mustRun("list"), "no items")
	c.add("fresh start")
	require.Contains(t, c.mustRun("list"), "fresh start")

	logs, err := os.ReadFile(filepath.Join(c.dataDir, "todo.log"))
	require.NoError(t, err)
	require.Contains(t, string(logs), "malformed")
}

func TestResolveID(t *testing.T) {
	svc := app.NewService(nil)
	require.NoError(t, svc.Hydrate([]model.Item{
		{ID: "abc1", Text: "one"},
		{ID: "abc2", Text: "two"},
		{ID: "xyz", Text: "three"},
	}))

	it, err := resolveID(svc, "abc2")
	require.NoError(t, err)
	require.Equal(t, "two", it.Text)

	it, err = resolveID(svc, "xy")
	require.NoError(t, err)
	require.Equal(t, "three", it.Text)

	_, err = resolveID(svc, "abc")
	require.True(t, errors.Is(err, errAmbiguousID), "got %v", err)

	_, err = resolveID(svc, "")
	require.ErrorIs(t, err, app.ErrItemNotFound)
}
