package chromosome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnershipModels(t *testing.T) {
	owned := New([]bool{true, false})
	assert.True(t, owned.OwnsGenes())
	assert.Equal(t, NoRow, owned.Row)

	rowRef := NewRow[bool](3)
	assert.False(t, rowRef.OwnsGenes())
	assert.Equal(t, 3, rowRef.Row)
	assert.Nil(t, rowRef.Genes)
}

func TestDerivedState(t *testing.T) {
	c := New([]int{1, 2, 3})
	assert.False(t, c.HasFitnessScore())

	c.SetFitnessScore(7)
	require.True(t, c.HasFitnessScore())
	assert.Equal(t, 7, *c.FitnessScore)

	c.SetGenesHash(0xdead)
	require.NotNil(t, c.GenesHash)
	assert.Equal(t, uint64(0xdead), *c.GenesHash)

	c.Invalidate()
	assert.False(t, c.HasFitnessScore())
	assert.Nil(t, c.GenesHash)
}

func TestAgeLifecycle(t *testing.T) {
	c := New([]int{1})
	c.IncrementAge()
	c.IncrementAge()
	assert.Equal(t, uint32(2), c.Age)

	c.MarkOffspring()
	assert.Equal(t, uint32(0), c.Age)
	assert.True(t, c.IsOffspring)

	c.IncrementAge()
	assert.Equal(t, uint32(1), c.Age)
	assert.False(t, c.IsOffspring)
}

func TestCloneOwned(t *testing.T) {
	t.Run("deep copy with derived state", func(t *testing.T) {
		c := New([]int{1, 2, 3})
		c.SetFitnessScore(9)
		c.SetGenesHash(42)
		c.Age = 5

		clone := c.CloneOwned()
		clone.Genes[0] = 99
		clone.SetFitnessScore(100)

		assert.Equal(t, 1, c.Genes[0])
		assert.Equal(t, 9, *c.FitnessScore)
		assert.Equal(t, uint64(42), *clone.GenesHash)
		assert.Equal(t, uint32(5), clone.Age)
	})

	t.Run("panics on row-reference chromosome", func(t *testing.T) {
		rowRef := NewRow[int](0)
		assert.Panics(t, func() { rowRef.CloneOwned() })
	})
}
