package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var customFieldPattern = regexp.MustCompile(`^customfield_[0-9]+$`)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Value: value, Message: "is required"}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateURL checks that value is an absolute http(s) URL. Empty is allowed.
func ValidateURL(field, value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ValidationError{Field: field, Value: value, Message: "must be an absolute http or https URL"}
	}
	return nil
}

// Validate checks the configuration for problems that would only surface
// during a run. All problems are reported at once.
func (c Config) Validate() error {
	var errs ValidationErrors
	add := func(err error) {
		if err == nil {
			return
		}
		if ve, ok := err.(ValidationError); ok {
			errs = append(errs, ve)
			return
		}
		errs.Add("", err.Error())
	}

	add(ValidateRequired("templatesDir", c.TemplatesDir))
	if c.RunTimeout < 0 {
		errs.Add("runTimeout", "must not be negative", c.RunTimeout)
	}

	add(ValidateURL("remote.server", c.Remote.Server))
	add(ValidateURL("local.server", c.Local.Server))

	for _, f := range []struct{ name, value string }{
		{"remote.fields.customID", c.Remote.Fields.CustomID},
		{"remote.fields.localTask", c.Remote.Fields.LocalTask},
	} {
		if !customFieldPattern.MatchString(f.value) {
			errs.Add(f.name, "must look like customfield_<number>", f.value)
		}
	}
	if v := c.Remote.Fields.Component; v != "" && !customFieldPattern.MatchString(v) {
		errs.Add("remote.fields.component", "must look like customfield_<number>", v)
	}

	add(ValidateRequired("remote.issueType", c.Remote.IssueType))
	add(ValidateRequired("remote.epicType", c.Remote.EpicType))
	add(ValidateRequired("remote.linkTypes.dependsOn", c.Remote.LinkTypes.DependsOn))
	add(ValidateRequired("remote.linkTypes.unblocks", c.Remote.LinkTypes.Unblocks))
	if c.Remote.Retry.MaxAttempts < 1 {
		errs.Add("remote.retry.maxAttempts", "must be at least 1", c.Remote.Retry.MaxAttempts)
	}
	if c.Remote.Retry.BaseDelay < 0 {
		errs.Add("remote.retry.baseDelay", "must not be negative", c.Remote.Retry.BaseDelay)
	}

	for src, dest := range c.Local.ForeignKeys {
		if src == "" || dest == "" {
			errs.Add("local.foreignKeys", "entries need a source and a destination field", src)
		}
		if src == dest {
			errs.Add("local.foreignKeys", "source and destination must differ", src)
		}
	}
	seen := make(map[string]bool, len(c.Phases))
	for i, p := range c.Phases {
		if p.Value == "" {
			errs.Add(fmt.Sprintf("phases[%d].value", i), "is required")
			continue
		}
		if seen[p.Value] {
			errs.Add(fmt.Sprintf("phases[%d].value", i), "is duplicated", p.Value)
		}
		seen[p.Value] = true
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs.Add("server.port", "must be between 1 and 65535", c.Server.Port)
	}
	if c.Logging.Level != "" {
		add(ValidateOneOf("logging.level", strings.ToLower(c.Logging.Level), []string{"debug", "info", "warn", "warning", "error"}))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
