package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedForGeneratesFreshSeeds(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 8; i++ {
		seed, err := SeedFor(0, int64(i))
		require.NoError(t, err)
		seen[seed] = true
	}

	assert.Greater(t, len(seen), 1, "crypto seeds should not repeat")
}

func TestSeedForOffsetsConfiguredSeed(t *testing.T) {
	first, err := SeedFor(42, 0)
	require.NoError(t, err)
	second, err := SeedFor(42, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(42), first)
	assert.Equal(t, int64(43), second)
}
