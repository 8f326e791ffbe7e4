package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/app"
	"github.com/ynput/ayon-jira/internal/cli"
	"github.com/ynput/ayon-jira/internal/journal"
	"github.com/ynput/ayon-jira/internal/local"
	"github.com/ynput/ayon-jira/internal/remote"
	"github.com/ynput/ayon-jira/internal/template"
)

const (
	outfitRemote = `{"jira_template": [
  {"Custom ID": "A", "Epic Link": "%CharacterName%", "Summary": "Concept"},
  {"Custom ID": "B", "Epic Link": "%CharacterName%", "Summary": "Model", "Depends_On": "A"}
]}`
	outfitLocal = `{"ayon_template": {"tasks": {
  "Concept": {"outfit_id": "A"},
  "Model": {"model_id": "B"}
}}}`
	commandsConfig = `
remote:
  projectCode: KAN
phases:
  - label: Modeling
    value: model
`
)

// setupCommandEnv writes a configuration directory and makes the commands
// use in-memory clients.
func setupCommandEnv(t *testing.T) (string, *local.MemoryStore) {
	t.Helper()
	dir := t.TempDir()
	templates := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(templates, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templates, template.FileName("Outfit", template.SideRemote)), []byte(outfitRemote), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(templates, template.FileName("Outfit", template.SideLocal)), []byte(outfitLocal), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(commandsConfig), 0o644))

	tracker := remote.NewMemoryTracker()
	store := local.NewMemoryStore()

	original := newApplication
	newApplication = func(cfg *app.Config) (*app.Application, error) {
		if cfg.Tracker == nil {
			cfg.Tracker = tracker
		}
		if cfg.Store == nil {
			cfg.Store = store
		}
		cfg.LogOutput = io.Discard
		return app.NewApplication(cfg)
	}
	t.Cleanup(func() { newApplication = original })
	return dir, store
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunCommand_JournalsAndShowsRun(t *testing.T) {
	dir, store := setupCommandEnv(t)
	store.AddContainer("Demo", "Characters/Hero")

	out, err := execute(t, "run", "Outfit",
		"--config-path", dir,
		"--project", "Demo",
		"--location", "Characters/Hero",
		"--placeholder", "CharacterName=Hero",
		"--actor", "jdoe",
		"-o", "json",
	)
	require.NoError(t, err)

	var report api.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Remote.EpicsCreated)
	assert.Equal(t, 2, report.Remote.IssuesCreated)
	assert.Equal(t, 2, report.Local.TasksCreated)
	assert.Equal(t, "jdoe", report.Actor)
	require.NotEmpty(t, report.RunID)

	out, err = execute(t, "runs", "list", "--config-path", dir, "-o", "json")
	require.NoError(t, err)
	var runs []api.RunRecord
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, report.RunID, runs[0].RunID)
	assert.Equal(t, api.RunStatusSucceeded, runs[0].Status)

	out, err = execute(t, "runs", "show", report.RunID, "--config-path", dir, "-o", "json")
	require.NoError(t, err)
	var entries []journal.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, report.RunID, e.RunID)
	}
}

func TestValidateCommand_MissingPlaceholder(t *testing.T) {
	dir, _ := setupCommandEnv(t)

	_, err := execute(t, "validate", "Outfit",
		"--config-path", dir,
		"--project", "Demo",
		"--location", "Characters/Hero",
	)
	require.Error(t, err)
	assert.Equal(t, cli.ExitPreflight, cli.ExitCodeFor(err))
	assert.True(t, api.IsMissingPlaceholder(err))
}

func TestTemplatesCommand(t *testing.T) {
	dir, _ := setupCommandEnv(t)

	out, err := execute(t, "templates", "--config-path", dir, "-o", "json")
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"Outfit"}, names)
}

func TestConfigShowCommand(t *testing.T) {
	dir, _ := setupCommandEnv(t)

	out, err := execute(t, "config", "show", "--config-path", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "projectCode: KAN")
	assert.Contains(t, out, filepath.Join(dir, "templates"))
}

func TestRunCommand_RejectsUnknownOutputFormat(t *testing.T) {
	_, err := execute(t, "templates", "--config-path", t.TempDir(), "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
