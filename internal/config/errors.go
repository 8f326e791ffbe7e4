package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Error types of a ConfigurationError.
const (
	ErrorTypeIO    = "io"
	ErrorTypeParse = "parse"
)

// ConfigurationError is a failure to read or decode config.yaml. Validation
// problems are reported as ValidationErrors instead.
type ConfigurationError struct {
	FilePath    string
	ErrorType   string
	Message     string
	Suggestions []string
	Err         error
}

func (ce ConfigurationError) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", ce.ErrorType, filepath.Base(ce.FilePath), ce.Message)
	if ce.Err != nil {
		msg += ": " + ce.Err.Error()
	}
	return msg
}

func (ce ConfigurationError) Unwrap() error { return ce.Err }

// DetailedError renders the error over several lines with its suggestions,
// for terminal output.
func (ce ConfigurationError) DetailedError() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cannot load %s\n", ce.FilePath)
	fmt.Fprintf(&b, "  %s", ce.Message)
	if ce.Err != nil {
		fmt.Fprintf(&b, ": %v", ce.Err)
	}
	if len(ce.Suggestions) > 0 {
		b.WriteString("\n  Suggestions:")
		for _, s := range ce.Suggestions {
			b.WriteString("\n    - " + s)
		}
	}
	return b.String()
}

func newConfigurationError(path, errorType, message string, err error, suggestions ...string) ConfigurationError {
	return ConfigurationError{
		FilePath:    path,
		ErrorType:   errorType,
		Message:     message,
		Suggestions: suggestions,
		Err:         err,
	}
}
