package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Compile(t *testing.T) {
	fields := Fields{
		FieldSummary:  "Rig",
		FieldScopeTag: "Character1_RIG",
	}

	tests := []struct {
		name    string
		filter  Filter
		matches bool
	}{
		{"empty filter", nil, true},
		{"equality", Filter{Eq(FieldSummary, "Rig")}, true},
		{"equality mismatch", Filter{Eq(FieldSummary, "Model")}, false},
		{"scope prefix", ScopeFilter("Character1"), true},
		{"other scope", ScopeFilter("Character2"), false},
		{"scope that is a prefix of another scope", ScopeFilter("Character"), false},
		{"conjunction", Filter{Eq(FieldSummary, "Rig"), Match(FieldScopeTag, "*_RIG")}, true},
		{"conjunction with one failing clause", Filter{Eq(FieldSummary, "Rig"), Match(FieldScopeTag, "*_MDL")}, false},
		{"missing field", Filter{Eq(FieldParent, "")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := tt.filter.Compile()
			require.NoError(t, err)
			assert.Equal(t, tt.matches, match(fields))
		})
	}
}

func TestScopePattern_QuotesMetacharacters(t *testing.T) {
	match, err := ScopeFilter("Hero[1]").Compile()
	require.NoError(t, err)

	assert.True(t, match(Fields{FieldScopeTag: "Hero[1]_RIG"}))
	assert.False(t, match(Fields{FieldScopeTag: "Hero1_RIG"}))
}

func TestFilter_Apply(t *testing.T) {
	issues := []Issue{
		{Key: "KAN-1", Fields: Fields{FieldScopeTag: "C1_A"}},
		{Key: "KAN-2", Fields: Fields{FieldScopeTag: "C2_A"}},
		{Key: "KAN-3", Fields: Fields{FieldScopeTag: "C1_B"}},
	}
	got, err := ScopeFilter("C1").Apply(issues)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "KAN-1", got[0].Key)
	assert.Equal(t, "KAN-3", got[1].Key)
}

func TestLiteralPrefix(t *testing.T) {
	assert.Equal(t, "Character1_", literalPrefix(ScopePattern("Character1")))
	assert.Equal(t, "Hero[1]_", literalPrefix(ScopePattern("Hero[1]")))
	assert.Equal(t, "", literalPrefix("*_RIG"))
	assert.Equal(t, "abc", literalPrefix("abc"))
}

func TestScopeTag(t *testing.T) {
	assert.Equal(t, "Character1_RIG", ScopeTag("Character1", "RIG"))
}
