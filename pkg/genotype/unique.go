package genotype

import (
	"math/big"
	"math/rand"

	"iter"

	"github.com/XiaoConstantine/evolve-go/pkg/chromosome"
	"github.com/XiaoConstantine/evolve-go/pkg/errors"
	"github.com/XiaoConstantine/evolve-go/pkg/gene"
	"github.com/XiaoConstantine/evolve-go/pkg/population"
)

// UniqueConfig configures a Unique genotype over an allele list.
type UniqueConfig[A gene.Allele] struct {
	AlleleList   []A
	GenesHashing bool
	SeedGenes    [][]A
}

// Unique encodes chromosomes as permutations of the allele list: every
// value appears exactly once and genes size equals the list length.
// Mutation swaps two distinct positions rather than resampling in place, so
// the permutation invariant holds by construction. Crossover is
// unsupported: naive gene exchange would duplicate values.
type Unique[A gene.Allele] struct {
	base[A]
	alleleList []A
}

// NewUnique builds a Unique genotype, surfacing misconfiguration as a typed
// build error.
func NewUnique[A gene.Allele](cfg UniqueConfig[A]) (*Unique[A], error) {
	if len(cfg.AlleleList) == 0 {
		return nil, errors.New(errors.InvalidInput, "unique genotype requires a non-empty allele list")
	}
	for _, seed := range cfg.SeedGenes {
		if len(seed) != len(cfg.AlleleList) {
			return nil, errors.Newf(errors.InvalidInput,
				"unique genotype seed genes length %d does not match allele list length %d", len(seed), len(cfg.AlleleList))
		}
	}
	return &Unique[A]{
		base: base[A]{
			genesSize:    len(cfg.AlleleList),
			seedGenes:    cfg.SeedGenes,
			genesHashing: cfg.GenesHashing,
			encoder:      gene.ValueEncoder[A],
		},
		alleleList: cfg.AlleleList,
	}, nil
}

// AlleleList returns the configured allele list.
func (g *Unique[A]) AlleleList() []A { return g.alleleList }

func (g *Unique[A]) randomGenes(rng *rand.Rand) []A {
	genes := gene.CloneGenes(g.alleleList)
	rng.Shuffle(len(genes), func(i, j int) {
		genes[i], genes[j] = genes[j], genes[i]
	})
	return genes
}

func (g *Unique[A]) ChromosomeConstructorRandom(rng *rand.Rand) *chromosome.Chromosome[A] {
	return g.ChromosomeConstructor(g.seedOrRandom(rng, func() []A { return g.randomGenes(rng) }))
}

func (g *Unique[A]) ChromosomeConstructor(genes []A) *chromosome.Chromosome[A] {
	c := chromosome.New(genes)
	g.ResetChromosome(c)
	return c
}

func (g *Unique[A]) PopulationConstructor(size int, rng *rand.Rand) *population.Population[A] {
	pop := population.New[A](size)
	for i := 0; i < size; i++ {
		genes := g.cycledSeedOrRandom(rng, func() []A { return g.randomGenes(rng) })
		pop.Push(g.ChromosomeConstructor(genes))
	}
	return pop
}

func (g *Unique[A]) Genes(c *chromosome.Chromosome[A]) []A { return c.Genes }

func (g *Unique[A]) CloneChromosome(c *chromosome.Chromosome[A]) *chromosome.Chromosome[A] {
	return c.CloneOwned()
}

func (g *Unique[A]) FreeChromosome(*chromosome.Chromosome[A]) {}

func (g *Unique[A]) TruncatePopulation(pop *population.Population[A], keep int) {
	pop.Truncate(keep)
}

// MutateChromosomeGenes performs n pairwise swaps. Without duplicates the
// swap endpoints are a true 2n-subset of positions; with duplicates each
// swap draws an independent distinct pair.
func (g *Unique[A]) MutateChromosomeGenes(n int, allowDuplicates bool, c *chromosome.Chromosome[A], _ int, rng *rand.Rand) {
	if g.genesSize > 1 && n > 0 {
		if allowDuplicates {
			for s := 0; s < n; s++ {
				i := rng.Intn(g.genesSize)
				j := (i + 1 + rng.Intn(g.genesSize-1)) % g.genesSize
				c.Genes[i], c.Genes[j] = c.Genes[j], c.Genes[i]
			}
		} else {
			positions := sampleIndexes(rng, g.genesSize, 2*n, false)
			for s := 0; s+1 < len(positions); s += 2 {
				i, j := positions[s], positions[s+1]
				c.Genes[i], c.Genes[j] = c.Genes[j], c.Genes[i]
			}
		}
	}
	g.ResetChromosome(c)
}

func (g *Unique[A]) ResetChromosome(c *chromosome.Chromosome[A]) {
	g.resetDerived(c, c.Genes)
}

func (g *Unique[A]) SaveBestGenes(c *chromosome.Chromosome[A]) {
	g.saveBestGenes(c.Genes)
}

func (g *Unique[A]) LoadBestGenes(c *chromosome.Chromosome[A]) {
	copy(c.Genes, g.bestGenes)
	g.ResetChromosome(c)
}

// HasCrossoverIndexes is false: exchanging individual genes between two
// permutations duplicates values.
func (g *Unique[A]) HasCrossoverIndexes() bool { return false }

// HasCrossoverPoints is false for the same reason as HasCrossoverIndexes.
func (g *Unique[A]) HasCrossoverPoints() bool { return false }

func (g *Unique[A]) CrossoverChromosomeGenes(int, bool, *chromosome.Chromosome[A], *chromosome.Chromosome[A], *rand.Rand) {
	panic("genotype: unique genotype does not support gene crossover, check HasCrossoverIndexes before calling")
}

func (g *Unique[A]) CrossoverChromosomePoints(int, bool, *chromosome.Chromosome[A], *chromosome.Chromosome[A], *rand.Rand) {
	panic("genotype: unique genotype does not support point crossover, check HasCrossoverPoints before calling")
}

// FillNeighbouringPopulation appends one variant per unordered position
// pair, C(n,2) in total.
func (g *Unique[A]) FillNeighbouringPopulation(c *chromosome.Chromosome[A], pop *population.Population[A], _ int, _ *rand.Rand) {
	for i := 0; i < g.genesSize; i++ {
		for j := i + 1; j < g.genesSize; j++ {
			genes := gene.CloneGenes(c.Genes)
			genes[i], genes[j] = genes[j], genes[i]
			neighbour := g.ChromosomeConstructor(genes)
			neighbour.MarkOffspring()
			pop.Push(neighbour)
		}
	}
}

func (g *Unique[A]) NeighbouringPopulationSize() *big.Int {
	n := int64(g.genesSize)
	return big.NewInt(n * (n - 1) / 2)
}

func (g *Unique[A]) MutationTypeAllowsPermutation() bool { return true }

// ChromosomePermutationsSize returns the factorial of the allele count.
func (g *Unique[A]) ChromosomePermutationsSize(_ int) *big.Int {
	return new(big.Int).MulRange(1, int64(g.genesSize))
}

// ChromosomePermutationsIter yields every permutation of the allele list in
// lexicographic order of list positions, starting from the list order
// itself. Each call returns a fresh iterator.
func (g *Unique[A]) ChromosomePermutationsIter(_ *chromosome.Chromosome[A], _ int) iter.Seq[*chromosome.Chromosome[A]] {
	return func(yield func(*chromosome.Chromosome[A]) bool) {
		indexes := make([]int, g.genesSize)
		for i := range indexes {
			indexes[i] = i
		}
		for {
			genes := make([]A, g.genesSize)
			for i, idx := range indexes {
				genes[i] = g.alleleList[idx]
			}
			if !yield(g.ChromosomeConstructor(genes)) {
				return
			}
			if !nextPermutation(indexes) {
				return
			}
		}
	}
}

// nextPermutation advances indexes to the next lexicographic permutation,
// reporting false after the last one.
func nextPermutation(s []int) bool {
	i := len(s) - 2
	for i >= 0 && s[i] >= s[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(s) - 1
	for s[j] <= s[i] {
		j--
	}
	s[i], s[j] = s[j], s[i]
	for l, r := i+1, len(s)-1; l < r; l, r = l+1, r-1 {
		s[l], s[r] = s[r], s[l]
	}
	return true
}
