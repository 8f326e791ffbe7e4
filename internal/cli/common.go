package cli

import (
	"errors"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ynput/ayon-jira/internal/config"
)

// FormatError formats an error for the terminal. Errors reading config.yaml
// are shown with their suggestions.
func FormatError(err error) string {
	var cfgErr config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return text.FgRed.Sprint("Error: " + cfgErr.DetailedError())
	}
	return text.FgRed.Sprintf("Error: %v", err)
}

// FormatSuccess formats a success message for CLI output
func FormatSuccess(msg string) string {
	return text.FgGreen.Sprint("✓ " + msg)
}

// FormatWarning formats a warning message for CLI output
func FormatWarning(msg string) string {
	return text.FgYellow.Sprint("⚠ " + msg)
}
