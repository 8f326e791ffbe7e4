package strings

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSingleLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"fits", "rate limited", 20, "rate limited"},
		{"exact width", "hello", 5, "hello"},
		{"cut", "scope Hero: issue KAN-12 not found", 20, "scope Hero: issue..."},
		{"newlines and tabs collapsed", "create issue:\n\t400 Bad Request", 40, "create issue: 400 Bad Request"},
		{"surrounding whitespace trimmed", "  failed  \n", 20, "failed"},
		{"whitespace only", " \r\n\t ", 10, ""},
		{"runes not bytes", "Kostüm für Held", 9, "Kostüm..."},
		{"width raised to minimum", "hello", 1, "h..."},
		{"negative width", "hello", -3, "h..."},
		{"short under minimum", "hi", 2, "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SingleLine(tt.input, tt.width)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
