package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/ynput/ayon-jira/pkg/logging"
)

// EnvPrefix prefixes every environment override, e.g. AYON_JIRA_REMOTE_SERVER
// for remote.server.
const EnvPrefix = "AYON_JIRA"

// NewViper returns a viper instance that reads AYON_JIRA_* environment
// variables for the keys of config.yaml. Commands bind their flags to the
// same keys.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range OverrideKeys() {
		_ = v.BindEnv(key)
	}
	return v
}

type override struct {
	key   string
	apply func(c *Config, v *viper.Viper)
}

var overrides = []override{
	{"templatesDir", func(c *Config, v *viper.Viper) { c.TemplatesDir = v.GetString("templatesDir") }},
	{"runTimeout", func(c *Config, v *viper.Viper) { c.RunTimeout = v.GetDuration("runTimeout") }},
	{"lockDir", func(c *Config, v *viper.Viper) { c.LockDir = v.GetString("lockDir") }},
	{"journalPath", func(c *Config, v *viper.Viper) { c.JournalPath = v.GetString("journalPath") }},
	{"remote.server", func(c *Config, v *viper.Viper) { c.Remote.Server = v.GetString("remote.server") }},
	{"remote.projectCode", func(c *Config, v *viper.Viper) { c.Remote.ProjectCode = v.GetString("remote.projectCode") }},
	{"remote.credentialsFile", func(c *Config, v *viper.Viper) { c.Remote.CredentialsFile = v.GetString("remote.credentialsFile") }},
	{"remote.dedupeLinks", func(c *Config, v *viper.Viper) { c.Remote.DedupeLinks = v.GetBool("remote.dedupeLinks") }},
	{"local.server", func(c *Config, v *viper.Viper) { c.Local.Server = v.GetString("local.server") }},
	{"local.credentialsFile", func(c *Config, v *viper.Viper) { c.Local.CredentialsFile = v.GetString("local.credentialsFile") }},
	{"local.strictForeignKeys", func(c *Config, v *viper.Viper) { c.Local.StrictForeignKeys = v.GetBool("local.strictForeignKeys") }},
	{"server.host", func(c *Config, v *viper.Viper) { c.Server.Host = v.GetString("server.host") }},
	{"server.port", func(c *Config, v *viper.Viper) { c.Server.Port = v.GetInt("server.port") }},
	{"logging.level", func(c *Config, v *viper.Viper) { c.Logging.Level = v.GetString("logging.level") }},
	{"logging.file", func(c *Config, v *viper.Viper) { c.Logging.File = v.GetString("logging.file") }},
}

// OverrideKeys lists the configuration keys that can be overridden from the
// environment or from flags.
func OverrideKeys() []string {
	keys := make([]string, 0, len(overrides))
	for _, o := range overrides {
		keys = append(keys, o.key)
	}
	return keys
}

// ApplyOverrides copies every key that is set in v (environment variable or
// changed flag) over c.
func ApplyOverrides(c *Config, v *viper.Viper) {
	for _, o := range overrides {
		if !v.IsSet(o.key) {
			continue
		}
		o.apply(c, v)
		logging.Debug("Config", "Configuration key %s overridden", o.key)
	}
}
