// Package config provides configuration management for ayon-jira.
//
// Configuration is loaded from a single directory. The default directory is
// ~/.config/ayon-jira; commands accept --config-path to use another one.
//
// # Configuration Directory
//
// The directory contains:
//   - config.yaml (main configuration file, optional)
//   - templates/ (template documents, see package template)
//   - credentials.toml (remote and local credentials, see package credentials)
//   - locks/ and journal.db (created on first run)
//
// Relative paths in config.yaml are resolved against the configuration
// directory and a leading ~ is expanded to the home directory.
//
// # Configuration Structure
//
// Example config.yaml:
//
//	templatesDir: templates
//	runTimeout: 10m
//	placeholders:
//	  Epic: Outfits
//	remote:
//	  server: https://studio.atlassian.net
//	  projectCode: KAN
//	  fields:
//	    customID: customfield_10035
//	    localTask: customfield_10033
//	  linkTypes:
//	    dependsOn: Depends
//	    unblocks: Blocks
//	  dedupeLinks: false
//	local:
//	  server: https://ayon.studio.local
//	  taskTypeCorrections:
//	    Concept: Generic
//	    Model: Modeling
//	  foreignKeys:
//	    outfit_id: outfit_ticket
//	phases:
//	  - label: Modeling
//	    value: model
//	logging:
//	  level: info
//	  file: logs/ayon-jira.log
//
// Keys missing from the file keep the values of GetDefaultConfig.
//
// # Overrides
//
// A subset of keys can be overridden from the environment with the
// AYON_JIRA_ prefix, dots becoming underscores (AYON_JIRA_REMOTE_SERVER,
// AYON_JIRA_LOGGING_LEVEL). Commands bind their flags to the same keys
// through viper; see OverrideKeys.
//
// # Validation
//
// Config.Validate reports every problem at once as ValidationErrors. Parse
// failures are returned as ConfigurationError with suggestions.
package config
