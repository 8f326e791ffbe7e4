package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOverrides_Environment(t *testing.T) {
	t.Setenv("AYON_JIRA_REMOTE_SERVER", "https://env.atlassian.net")
	t.Setenv("AYON_JIRA_RUNTIMEOUT", "2m")
	t.Setenv("AYON_JIRA_LOCAL_STRICTFOREIGNKEYS", "true")

	cfg := GetDefaultConfig()
	ApplyOverrides(&cfg, NewViper())

	assert.Equal(t, "https://env.atlassian.net", cfg.Remote.Server)
	assert.Equal(t, 2*time.Minute, cfg.RunTimeout)
	assert.True(t, cfg.Local.StrictForeignKeys)
	assert.Equal(t, "Task", cfg.Remote.IssueType, "keys without overrides are untouched")
}

func TestApplyOverrides_Flags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("project-code", "", "")
	require.NoError(t, flags.Parse([]string{"--port", "9000"}))

	v := NewViper()
	require.NoError(t, v.BindPFlag("server.port", flags.Lookup("port")))
	require.NoError(t, v.BindPFlag("remote.projectCode", flags.Lookup("project-code")))

	cfg := GetDefaultConfig()
	cfg.Remote.ProjectCode = "KAN"
	ApplyOverrides(&cfg, v)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "KAN", cfg.Remote.ProjectCode, "unchanged flags do not override")
}

func TestOverrideKeys(t *testing.T) {
	keys := OverrideKeys()
	assert.Contains(t, keys, "remote.server")
	assert.Contains(t, keys, "logging.level")
}
