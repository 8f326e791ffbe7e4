package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/internal/cli"
	"github.com/ynput/ayon-jira/internal/config"
)

func TestSetVersion(t *testing.T) {
	original := rootCmd.Version
	defer SetVersion(original)

	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", rootCmd.Version)
	assert.Equal(t, "1.2.3-test", GetVersion())
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "ayon-jira", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.Contains(t, rootCmd.Long, "Exit codes")
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestSubcommands(t *testing.T) {
	found := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range []string{"version", "self-update", "run", "validate", "templates", "runs", "serve", "mcp", "config"} {
		assert.True(t, found[name], "subcommand %s should be registered", name)
	}
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{Use: "test", Version: "1.0.0"}
	testCmd.SetVersionTemplate(`{{printf "ayon-jira version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	require.NoError(t, testCmd.Execute())
	assert.Equal(t, "ayon-jira version 1.0.0\n", buf.String())
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantPrinted bool
	}{
		{
			name:        "plain error",
			err:         errors.New("boom"),
			wantCode:    cli.ExitFailure,
			wantPrinted: true,
		},
		{
			name:        "pre-flight failure",
			err:         &api.RunError{Stage: api.StagePreflight, Err: errors.New("missing template")},
			wantCode:    cli.ExitPreflight,
			wantPrinted: true,
		},
		{
			name:        "silent exit error",
			err:         cli.NewExitError(&api.RunError{Stage: api.StageRemote, Changed: true, Err: errors.New("rate limited")}, true),
			wantCode:    cli.ExitPartial,
			wantPrinted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			c := &cobra.Command{}
			c.SetErr(&buf)

			assert.Equal(t, tt.wantCode, reportError(c, tt.err))
			if tt.wantPrinted {
				assert.Contains(t, buf.String(), tt.err.Error())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestNewOverrides_BindsChangedFlagsOnly(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	c.Flags().String("host", "", "")
	c.Flags().Int("port", 0, "")
	require.NoError(t, c.Flags().Parse([]string{"--port", "9100"}))

	v, err := newOverrides(c, map[string]string{"host": "server.host", "port": "server.port"})
	require.NoError(t, err)

	settings := config.GetDefaultConfig()
	host := settings.Server.Host
	config.ApplyOverrides(&settings, v)
	assert.Equal(t, 9100, settings.Server.Port)
	assert.Equal(t, host, settings.Server.Host)
}

func TestServeFlagKeys(t *testing.T) {
	keys := serveFlagKeys()
	assert.Equal(t, "server.host", keys["host"])
	assert.Equal(t, "server.port", keys["port"])
	assert.Equal(t, "templatesDir", keys["templates-dir"])
	assert.Len(t, configFlagKeys, 3, "serve keys must not leak into the shared map")
}
