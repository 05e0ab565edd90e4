package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyPatternMatchesEveryone(t *testing.T) {
	f, err := NewNameFilter("")
	require.NoError(t, err)
	assert.False(t, f.Enabled)
	assert.True(t, f.Matches("Ada Lovelace"))
	assert.Equal(t, "all candidates", f.Description())
}

func TestPatternIsCaseInsensitive(t *testing.T) {
	f, err := NewNameFilter("lovelace")
	require.NoError(t, err)
	assert.True(t, f.Matches("Ada Lovelace"))
	assert.False(t, f.Matches("Grace Hopper"))
}

func TestInvalidPattern(t *testing.T) {
	_, err := NewNameFilter("[unclosed")
	assert.Error(t, err)
}
