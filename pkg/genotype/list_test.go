package genotype

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/evolve-go/pkg/errors"
	"github.com/XiaoConstantine/evolve-go/pkg/population"
)

func TestNewListValidation(t *testing.T) {
	_, err := NewList(ListConfig[string]{GenesSize: 2})
	assert.True(t, errors.IsCode(err, errors.InvalidInput))

	_, err = NewList(ListConfig[string]{GenesSize: 0, AlleleList: []string{"a"}})
	assert.True(t, errors.IsCode(err, errors.InvalidInput))

	g, err := NewList(ListConfig[string]{GenesSize: 3, AlleleList: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, g.AlleleList())
}

func TestListGenesDrawFromList(t *testing.T) {
	g, err := NewList(ListConfig[string]{GenesSize: 4, AlleleList: []string{"a", "b", "c"}})
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(5))

	allowed := map[string]bool{"a": true, "b": true, "c": true}
	pop := g.PopulationConstructor(20, rng)
	for _, c := range pop.Chromosomes {
		for _, v := range c.Genes {
			assert.True(t, allowed[v])
		}
	}

	c := pop.Chromosomes[0]
	for i := 0; i < 50; i++ {
		g.MutateChromosomeGenes(2, true, c, 0, rng)
		for _, v := range c.Genes {
			require.True(t, allowed[v])
		}
	}
}

func TestListNeighbours(t *testing.T) {
	g, err := NewList(ListConfig[string]{GenesSize: 2, AlleleList: []string{"a", "b", "c"}})
	require.NoError(t, err)

	c := g.ChromosomeConstructor([]string{"a", "b"})
	pop := population.New[string](4)
	g.FillNeighbouringPopulation(c, pop, 0, nil)

	// two alternatives per gene
	require.Equal(t, 4, pop.Size())
	assert.Equal(t, int64(4), g.NeighbouringPopulationSize().Int64())
	assert.Equal(t, []string{"b", "b"}, pop.Chromosomes[0].Genes)
	assert.Equal(t, []string{"c", "b"}, pop.Chromosomes[1].Genes)
	assert.Equal(t, []string{"a", "a"}, pop.Chromosomes[2].Genes)
	assert.Equal(t, []string{"a", "c"}, pop.Chromosomes[3].Genes)
}

func TestListPermutations(t *testing.T) {
	g, err := NewList(ListConfig[string]{GenesSize: 2, AlleleList: []string{"x", "y"}})
	require.NoError(t, err)
	require.True(t, g.MutationTypeAllowsPermutation())
	assert.Equal(t, int64(4), g.ChromosomePermutationsSize(0).Int64())

	var got [][]string
	for c := range g.ChromosomePermutationsIter(nil, 0) {
		got = append(got, append([]string(nil), c.Genes...))
	}
	assert.Equal(t, [][]string{
		{"x", "x"},
		{"x", "y"},
		{"y", "x"},
		{"y", "y"},
	}, got)
}

func TestListPermutationsEarlyStop(t *testing.T) {
	g, err := NewList(ListConfig[int]{GenesSize: 3, AlleleList: []int{0, 1, 2}})
	require.NoError(t, err)

	count := 0
	for range g.ChromosomePermutationsIter(nil, 0) {
		count++
		if count == 5 {
			break
		}
	}
	assert.Equal(t, 5, count)
}
