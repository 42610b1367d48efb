package genotype

import (
	"fmt"
	"math/big"
	"math/rand"

	"iter"

	"github.com/XiaoConstantine/evolve-go/pkg/chromosome"
	"github.com/XiaoConstantine/evolve-go/pkg/errors"
	"github.com/XiaoConstantine/evolve-go/pkg/gene"
	"github.com/XiaoConstantine/evolve-go/pkg/population"
)

// RangeConfig configures a Range genotype over [Min, Max].
type RangeConfig[T gene.NumericAllele] struct {
	GenesSize    int
	Min, Max     T
	MutationType MutationType[T]
	GenesHashing bool
	SeedGenes    [][]T
}

// Range encodes chromosomes as numeric vectors with every gene uniform over
// [min, max]. Mutation semantics follow the configured MutationType; see
// mutateRangeGene for the clamping rules per kind and phase.
type Range[T gene.NumericAllele] struct {
	base[T]
	min, max     T
	mutationType MutationType[T]
}

// NewRange builds a Range genotype, surfacing misconfiguration as a typed
// build error.
func NewRange[T gene.NumericAllele](cfg RangeConfig[T]) (*Range[T], error) {
	if cfg.GenesSize <= 0 {
		return nil, errors.New(errors.InvalidInput, "range genotype requires a positive genes size")
	}
	if cfg.Max < cfg.Min {
		return nil, errors.Newf(errors.InvalidInput, "range genotype allele range is inverted: min %v > max %v", cfg.Min, cfg.Max)
	}
	if err := cfg.MutationType.Validate(); err != nil {
		return nil, err
	}
	for _, seed := range cfg.SeedGenes {
		if len(seed) != cfg.GenesSize {
			return nil, errors.Newf(errors.InvalidInput,
				"range genotype seed genes length %d does not match genes size %d", len(seed), cfg.GenesSize)
		}
	}
	return &Range[T]{
		base: base[T]{
			genesSize:    cfg.GenesSize,
			seedGenes:    cfg.SeedGenes,
			genesHashing: cfg.GenesHashing,
			encoder:      gene.NumericEncoder[T],
		},
		min:          cfg.Min,
		max:          cfg.Max,
		mutationType: cfg.MutationType,
	}, nil
}

// MutationType returns the configured numeric mutation policy.
func (g *Range[T]) MutationType() MutationType[T] { return g.mutationType }

func (g *Range[T]) MaxScaleIndex() int { return g.mutationType.ScheduleLength() - 1 }

func (g *Range[T]) randomGenes(rng *rand.Rand) []T {
	genes := make([]T, g.genesSize)
	for i := range genes {
		genes[i] = uniformInclusive(rng, g.min, g.max)
	}
	return genes
}

func (g *Range[T]) ChromosomeConstructorRandom(rng *rand.Rand) *chromosome.Chromosome[T] {
	return g.ChromosomeConstructor(g.seedOrRandom(rng, func() []T { return g.randomGenes(rng) }))
}

func (g *Range[T]) ChromosomeConstructor(genes []T) *chromosome.Chromosome[T] {
	c := chromosome.New(genes)
	g.ResetChromosome(c)
	return c
}

func (g *Range[T]) PopulationConstructor(size int, rng *rand.Rand) *population.Population[T] {
	pop := population.New[T](size)
	for i := 0; i < size; i++ {
		genes := g.cycledSeedOrRandom(rng, func() []T { return g.randomGenes(rng) })
		pop.Push(g.ChromosomeConstructor(genes))
	}
	return pop
}

func (g *Range[T]) Genes(c *chromosome.Chromosome[T]) []T { return c.Genes }

func (g *Range[T]) CloneChromosome(c *chromosome.Chromosome[T]) *chromosome.Chromosome[T] {
	return c.CloneOwned()
}

func (g *Range[T]) FreeChromosome(*chromosome.Chromosome[T]) {}

func (g *Range[T]) TruncatePopulation(pop *population.Population[T], keep int) {
	pop.Truncate(keep)
}

func (g *Range[T]) MutateChromosomeGenes(n int, allowDuplicates bool, c *chromosome.Chromosome[T], scaleIndex int, rng *rand.Rand) {
	for _, i := range sampleIndexes(rng, g.genesSize, n, allowDuplicates) {
		c.Genes[i] = mutateRangeGene(rng, c.Genes[i], g.min, g.max, g.mutationType, scaleIndex)
	}
	g.ResetChromosome(c)
}

func (g *Range[T]) ResetChromosome(c *chromosome.Chromosome[T]) {
	g.resetDerived(c, c.Genes)
}

func (g *Range[T]) SaveBestGenes(c *chromosome.Chromosome[T]) {
	g.saveBestGenes(c.Genes)
}

func (g *Range[T]) LoadBestGenes(c *chromosome.Chromosome[T]) {
	copy(c.Genes, g.bestGenes)
	g.ResetChromosome(c)
}

func (g *Range[T]) HasCrossoverIndexes() bool { return true }
func (g *Range[T]) HasCrossoverPoints() bool  { return true }

func (g *Range[T]) CrossoverChromosomeGenes(n int, allowDuplicates bool, father, mother *chromosome.Chromosome[T], rng *rand.Rand) {
	crossoverGenesAt(rng, n, allowDuplicates, father.Genes, mother.Genes)
	g.ResetChromosome(father)
	g.ResetChromosome(mother)
}

func (g *Range[T]) CrossoverChromosomePoints(n int, allowDuplicates bool, father, mother *chromosome.Chromosome[T], rng *rand.Rand) {
	crossoverPointsAt(rng, n, allowDuplicates, father.Genes, mother.Genes)
	g.ResetChromosome(father)
	g.ResetChromosome(mother)
}

// FillNeighbouringPopulation appends one -bandwidth and one +bandwidth
// variant per gene, clamped to the allele range.
func (g *Range[T]) FillNeighbouringPopulation(c *chromosome.Chromosome[T], pop *population.Population[T], scaleIndex int, _ *rand.Rand) {
	bw := g.mutationType.neighbourBandwidth(g.min, g.max, scaleIndex)
	for i := 0; i < g.genesSize; i++ {
		for _, offset := range [2]T{-bw, bw} {
			genes := gene.CloneGenes(c.Genes)
			genes[i] = clamp(genes[i]+offset, g.min, g.max)
			neighbour := g.ChromosomeConstructor(genes)
			neighbour.MarkOffspring()
			pop.Push(neighbour)
		}
	}
}

func (g *Range[T]) NeighbouringPopulationSize() *big.Int {
	return big.NewInt(2 * int64(g.genesSize))
}

// MutationTypeAllowsPermutation gates exhaustive enumeration: only phased or
// stepped mutation types define an even discretization of the range.
func (g *Range[T]) MutationTypeAllowsPermutation() bool {
	return g.mutationType.AllowsPermutation()
}

// alleleSteps returns the number of discretized values per gene at the
// given scale index.
func (g *Range[T]) alleleSteps(scaleIndex int) int {
	spacing := g.mutationType.permutationSpacing(scaleIndex)
	if spacing <= 0 {
		return 0
	}
	return int(float64(g.max-g.min)/float64(spacing)) + 1
}

// ChromosomePermutationsSize counts the discretization at the given scale
// index, so it always agrees with what ChromosomePermutationsIter yields for
// that index.
func (g *Range[T]) ChromosomePermutationsSize(scaleIndex int) *big.Int {
	if !g.MutationTypeAllowsPermutation() {
		return big.NewInt(0)
	}
	steps := g.alleleSteps(scaleIndex)
	counts := make([]int, g.genesSize)
	for i := range counts {
		counts[i] = steps
	}
	return productSize(counts)
}

// ChromosomePermutationsIter enumerates the even discretization of the
// allele range at the given scale index. Calling it with a mutation type
// that does not allow permutation is a programmer error.
func (g *Range[T]) ChromosomePermutationsIter(_ *chromosome.Chromosome[T], scaleIndex int) iter.Seq[*chromosome.Chromosome[T]] {
	if !g.MutationTypeAllowsPermutation() {
		panic(fmt.Sprintf("genotype: range permutation enumeration requires a stepped or scaled mutation type, got %s", g.mutationType.Kind))
	}
	spacing := g.mutationType.permutationSpacing(scaleIndex)
	steps := g.alleleSteps(scaleIndex)
	counts := make([]int, g.genesSize)
	for i := range counts {
		counts[i] = steps
	}
	return odometer(counts, func(digits []int) *chromosome.Chromosome[T] {
		genes := make([]T, len(digits))
		for i, d := range digits {
			genes[i] = clamp(g.min+T(d)*spacing, g.min, g.max)
		}
		return g.ChromosomeConstructor(genes)
	})
}
