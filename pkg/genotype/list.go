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

// ListConfig configures a List genotype over a fixed allele list.
type ListConfig[A gene.Allele] struct {
	GenesSize    int
	AlleleList   []A
	GenesHashing bool
	SeedGenes    [][]A
}

// List encodes chromosomes as categorical vectors: every gene is a
// uniform-index pick from a fixed allele list. Mutation resamples the gene;
// re-drawing the old value is possible and allowed.
type List[A gene.Allele] struct {
	base[A]
	alleleList []A
}

// NewList builds a List genotype, surfacing misconfiguration as a typed
// build error.
func NewList[A gene.Allele](cfg ListConfig[A]) (*List[A], error) {
	if cfg.GenesSize <= 0 {
		return nil, errors.New(errors.InvalidInput, "list genotype requires a positive genes size")
	}
	if len(cfg.AlleleList) == 0 {
		return nil, errors.New(errors.InvalidInput, "list genotype requires a non-empty allele list")
	}
	for _, seed := range cfg.SeedGenes {
		if len(seed) != cfg.GenesSize {
			return nil, errors.Newf(errors.InvalidInput,
				"list genotype seed genes length %d does not match genes size %d", len(seed), cfg.GenesSize)
		}
	}
	return &List[A]{
		base: base[A]{
			genesSize:    cfg.GenesSize,
			seedGenes:    cfg.SeedGenes,
			genesHashing: cfg.GenesHashing,
			encoder:      gene.ValueEncoder[A],
		},
		alleleList: cfg.AlleleList,
	}, nil
}

// AlleleList returns the configured allele list.
func (g *List[A]) AlleleList() []A { return g.alleleList }

func (g *List[A]) randomGenes(rng *rand.Rand) []A {
	genes := make([]A, g.genesSize)
	for i := range genes {
		genes[i] = g.alleleList[rng.Intn(len(g.alleleList))]
	}
	return genes
}

func (g *List[A]) ChromosomeConstructorRandom(rng *rand.Rand) *chromosome.Chromosome[A] {
	return g.ChromosomeConstructor(g.seedOrRandom(rng, func() []A { return g.randomGenes(rng) }))
}

func (g *List[A]) ChromosomeConstructor(genes []A) *chromosome.Chromosome[A] {
	c := chromosome.New(genes)
	g.ResetChromosome(c)
	return c
}

func (g *List[A]) PopulationConstructor(size int, rng *rand.Rand) *population.Population[A] {
	pop := population.New[A](size)
	for i := 0; i < size; i++ {
		genes := g.cycledSeedOrRandom(rng, func() []A { return g.randomGenes(rng) })
		pop.Push(g.ChromosomeConstructor(genes))
	}
	return pop
}

func (g *List[A]) Genes(c *chromosome.Chromosome[A]) []A { return c.Genes }

func (g *List[A]) CloneChromosome(c *chromosome.Chromosome[A]) *chromosome.Chromosome[A] {
	return c.CloneOwned()
}

func (g *List[A]) FreeChromosome(*chromosome.Chromosome[A]) {}

func (g *List[A]) TruncatePopulation(pop *population.Population[A], keep int) {
	pop.Truncate(keep)
}

func (g *List[A]) MutateChromosomeGenes(n int, allowDuplicates bool, c *chromosome.Chromosome[A], _ int, rng *rand.Rand) {
	for _, i := range sampleIndexes(rng, g.genesSize, n, allowDuplicates) {
		c.Genes[i] = g.alleleList[rng.Intn(len(g.alleleList))]
	}
	g.ResetChromosome(c)
}

func (g *List[A]) ResetChromosome(c *chromosome.Chromosome[A]) {
	g.resetDerived(c, c.Genes)
}

func (g *List[A]) SaveBestGenes(c *chromosome.Chromosome[A]) {
	g.saveBestGenes(c.Genes)
}

func (g *List[A]) LoadBestGenes(c *chromosome.Chromosome[A]) {
	copy(c.Genes, g.bestGenes)
	g.ResetChromosome(c)
}

func (g *List[A]) HasCrossoverIndexes() bool { return true }
func (g *List[A]) HasCrossoverPoints() bool  { return true }

func (g *List[A]) CrossoverChromosomeGenes(n int, allowDuplicates bool, father, mother *chromosome.Chromosome[A], rng *rand.Rand) {
	crossoverGenesAt(rng, n, allowDuplicates, father.Genes, mother.Genes)
	g.ResetChromosome(father)
	g.ResetChromosome(mother)
}

func (g *List[A]) CrossoverChromosomePoints(n int, allowDuplicates bool, father, mother *chromosome.Chromosome[A], rng *rand.Rand) {
	crossoverPointsAt(rng, n, allowDuplicates, father.Genes, mother.Genes)
	g.ResetChromosome(father)
	g.ResetChromosome(mother)
}

// FillNeighbouringPopulation appends one variant per gene per alternative
// allele value.
func (g *List[A]) FillNeighbouringPopulation(c *chromosome.Chromosome[A], pop *population.Population[A], _ int, _ *rand.Rand) {
	for i := 0; i < g.genesSize; i++ {
		for _, allele := range g.alleleList {
			if allele == c.Genes[i] {
				continue
			}
			genes := gene.CloneGenes(c.Genes)
			genes[i] = allele
			neighbour := g.ChromosomeConstructor(genes)
			neighbour.MarkOffspring()
			pop.Push(neighbour)
		}
	}
}

func (g *List[A]) NeighbouringPopulationSize() *big.Int {
	return big.NewInt(int64(g.genesSize) * int64(len(g.alleleList)-1))
}

func (g *List[A]) MutationTypeAllowsPermutation() bool { return true }

func (g *List[A]) ChromosomePermutationsSize(_ int) *big.Int {
	counts := make([]int, g.genesSize)
	for i := range counts {
		counts[i] = len(g.alleleList)
	}
	return productSize(counts)
}

// ChromosomePermutationsIter counts through all allele-list combinations,
// last gene varying fastest.
func (g *List[A]) ChromosomePermutationsIter(_ *chromosome.Chromosome[A], _ int) iter.Seq[*chromosome.Chromosome[A]] {
	counts := make([]int, g.genesSize)
	for i := range counts {
		counts[i] = len(g.alleleList)
	}
	return odometer(counts, func(digits []int) *chromosome.Chromosome[A] {
		genes := make([]A, len(digits))
		for i, d := range digits {
			genes[i] = g.alleleList[d]
		}
		return g.ChromosomeConstructor(genes)
	})
}
