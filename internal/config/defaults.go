package config

import "time"

const (
	// DefaultCustomIDField holds the scoped custom ID of every created issue.
	DefaultCustomIDField = "customfield_10035"
	// DefaultLocalTaskField receives the local task ID of an issue.
	DefaultLocalTaskField = "customfield_10033"
	// DefaultComponentField holds the item component.
	DefaultComponentField = "customfield_10034"

	DefaultServerPort = 8095
)

// GetDefaultConfig returns the default configuration. Relative paths are
// resolved against the configuration directory by LoadConfig.
func GetDefaultConfig() Config {
	return Config{
		TemplatesDir: "templates",
		RunTimeout:   10 * time.Minute,
		LockDir:      "locks",
		JournalPath:  "journal.db",
		Remote: RemoteConfig{
			CredentialsFile: "credentials.toml",
			Fields: FieldsConfig{
				CustomID:  DefaultCustomIDField,
				LocalTask: DefaultLocalTaskField,
				Component: DefaultComponentField,
			},
			IssueType: "Task",
			EpicType:  "Epic",
			LinkTypes: LinkTypesConfig{DependsOn: "Depends", Unblocks: "Blocks"},
			Retry:     RetryConfig{MaxAttempts: 3, BaseDelay: time.Second},
		},
		Local: LocalConfig{
			CredentialsFile:     "credentials.toml",
			TaskTypeCorrections: map[string]string{"Concept": "Generic", "Model": "Modeling"},
			ForeignKeys:         map[string]string{"outfit_id": "outfit_ticket"},
		},
		Server: ServerConfig{Host: "localhost", Port: DefaultServerPort},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}
