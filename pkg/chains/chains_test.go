package chains_test

import (
	"testing"

	"github.com/solstice-fi/gaugex/pkg/chains"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := chains.Parse("Arbitrum")
	require.NoError(t, err)
	assert.Equal(t, chains.Arbitrum, c)

	c, err = chains.Parse("  MAINNET ")
	require.NoError(t, err)
	assert.Equal(t, chains.Mainnet, c)

	_, err = chains.Parse("hyperspace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hyperspace")
}

func TestTypeNameMapping_Resolve(t *testing.T) {
	m := chains.DefaultTypeNameMapping()

	c, ok := m.Resolve("Ethereum")
	require.True(t, ok)
	assert.Equal(t, chains.Mainnet, c)

	// Legacy label routes to the home chain like the modern one.
	c, ok = m.Resolve("veSOLS")
	require.True(t, ok)
	assert.Equal(t, chains.Mainnet, c)

	_, ok = m.Resolve("Protocol Committee")
	assert.False(t, ok, "admin slots are excluded upstream, never mapped")
}
