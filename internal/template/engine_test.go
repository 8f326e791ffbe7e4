package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynput/ayon-jira/internal/api"
)

func TestEngine_Resolve(t *testing.T) {
	engine := New()

	tests := []struct {
		name     string
		text     string
		mapping  map[string]string
		expected string
	}{
		{
			name:     "no placeholders",
			text:     `{"Summary": "Rig"}`,
			mapping:  nil,
			expected: `{"Summary": "Rig"}`,
		},
		{
			name:     "single placeholder",
			text:     `{"Epic Link": "%Tier1CharacterName%"}`,
			mapping:  map[string]string{"Tier1CharacterName": "Character1"},
			expected: `{"Epic Link": "Character1"}`,
		},
		{
			name:     "repeated placeholder replaced consistently",
			text:     `%Name% and %Name% again`,
			mapping:  map[string]string{"Name": "Hero"},
			expected: `Hero and Hero again`,
		},
		{
			name:     "adjacent placeholders",
			text:     `%A%%B%`,
			mapping:  map[string]string{"A": "x", "B": "y"},
			expected: `xy`,
		},
		{
			name:     "value containing percent is not rescanned",
			text:     `%A%-%B%`,
			mapping:  map[string]string{"A": "%B%", "B": "b"},
			expected: `%B%-b`,
		},
		{
			name:     "token with spaces and punctuation",
			text:     `{"Summary": "%Character Name (v2)% rig"}`,
			mapping:  map[string]string{"Character Name (v2)": "Hero"},
			expected: `{"Summary": "Hero rig"}`,
		},
		{
			name:     "unused mapping entries are ignored",
			text:     `%A%`,
			mapping:  map[string]string{"A": "1", "Unused": "2"},
			expected: `1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Resolve(tt.text, tt.mapping)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestEngine_ResolveMissing(t *testing.T) {
	engine := New()

	tests := []struct {
		name    string
		text    string
		mapping map[string]string
		missing []string
	}{
		{
			name:    "absent token",
			text:    `%A% %B%`,
			mapping: map[string]string{"A": "1"},
			missing: []string{"B"},
		},
		{
			name:    "empty value counts as missing",
			text:    `%A%`,
			mapping: map[string]string{"A": ""},
			missing: []string{"A"},
		},
		{
			name:    "token with spaces is never left in place",
			text:    `{"Summary": "%Character Name% rig"}`,
			mapping: nil,
			missing: []string{"Character Name"},
		},
		{
			name:    "percent signs in prose fail closed",
			text:    `50% done, 20% left`,
			mapping: nil,
			missing: []string{" done, 20"},
		},
		{
			name:    "all missing tokens named once in order",
			text:    `%Z% %Y% %Z%`,
			mapping: nil,
			missing: []string{"Z", "Y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapping := map[string]string{}
			for k, v := range tt.mapping {
				mapping[k] = v
			}
			before := len(mapping)

			got, err := engine.Resolve(tt.text, mapping)
			require.Error(t, err)
			assert.Empty(t, got)
			assert.Len(t, mapping, before, "mapping must not be mutated")

			var missing *api.MissingPlaceholderError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.missing, missing.Tokens)
		})
	}
}

func TestEngine_ExtractTokens(t *testing.T) {
	engine := New()
	assert.Equal(t, []string{"A", "B_c", "d.e"}, engine.ExtractTokens(`%A% x %B_c% %A% %d.e%`))
	assert.Empty(t, engine.ExtractTokens(`no tokens here`))
}

func TestMergePlaceholders(t *testing.T) {
	merged := MergePlaceholders(
		map[string]string{"A": "1", "B": "2"},
		nil,
		map[string]string{"B": "3"},
	)
	assert.Equal(t, map[string]string{"A": "1", "B": "3"}, merged)
}
