package config

import "time"

// Config is the top-level configuration structure for ayon-jira.
type Config struct {
	TemplatesDir string        `yaml:"templatesDir"`
	RunTimeout   time.Duration `yaml:"runTimeout"`
	LockDir      string        `yaml:"lockDir"`
	JournalPath  string        `yaml:"journalPath"`

	// Placeholders are defaults merged under the placeholders of every run.
	Placeholders map[string]string `yaml:"placeholders,omitempty"`

	Remote  RemoteConfig  `yaml:"remote"`
	Local   LocalConfig   `yaml:"local"`
	Phases  []Phase       `yaml:"phases,omitempty"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// RemoteConfig configures the issue tracker side.
type RemoteConfig struct {
	Server          string `yaml:"server"`
	ProjectCode     string `yaml:"projectCode"`
	CredentialsFile string `yaml:"credentialsFile"`

	Fields    FieldsConfig `yaml:"fields"`
	IssueType string       `yaml:"issueType"`
	EpicType  string       `yaml:"epicType"`

	// DescriptionTemplate renders issue descriptions with text/template and
	// sprig functions. Empty sends the item description verbatim.
	DescriptionTemplate string `yaml:"descriptionTemplate,omitempty"`

	LinkTypes   LinkTypesConfig `yaml:"linkTypes"`
	DedupeLinks bool            `yaml:"dedupeLinks"`
	Retry       RetryConfig     `yaml:"retry"`
}

// FieldsConfig names the custom fields of the tracker.
type FieldsConfig struct {
	CustomID  string `yaml:"customID"`
	LocalTask string `yaml:"localTask"`
	Component string `yaml:"component"`
}

// LinkTypesConfig names the link types created for item references.
type LinkTypesConfig struct {
	DependsOn string `yaml:"dependsOn"`
	Unblocks  string `yaml:"unblocks"`
}

// RetryConfig controls retries of rate-limited tracker calls.
type RetryConfig struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseDelay   time.Duration `yaml:"baseDelay"`
}

// LocalConfig configures the production tracking side.
type LocalConfig struct {
	Server              string            `yaml:"server"`
	CredentialsFile     string            `yaml:"credentialsFile"`
	TaskTypeCorrections map[string]string `yaml:"taskTypeCorrections"`
	ForeignKeys         map[string]string `yaml:"foreignKeys"`
	StrictForeignKeys   bool              `yaml:"strictForeignKeys"`
}

// Phase is a production phase. Its value v declares the foreign key
// v_id -> v_ticket.
type Phase struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// ServerConfig configures the HTTP endpoint of serve mode.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig configures log level and the optional rotating log file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// PhaseValues returns the values of all configured phases.
func (c Config) PhaseValues() []string {
	values := make([]string, 0, len(c.Phases))
	for _, p := range c.Phases {
		values = append(values, p.Value)
	}
	return values
}
