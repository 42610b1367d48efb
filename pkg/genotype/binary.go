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

// BinaryConfig configures a Binary genotype.
type BinaryConfig struct {
	GenesSize    int
	GenesHashing bool
	SeedGenes    [][]bool
}

// Binary encodes chromosomes as bit vectors. Each random gene is true or
// false with 50% probability; mutation flips the bit.
type Binary struct {
	base[bool]
}

// NewBinary builds a Binary genotype, surfacing misconfiguration as a typed
// build error.
func NewBinary(cfg BinaryConfig) (*Binary, error) {
	if cfg.GenesSize <= 0 {
		return nil, errors.New(errors.InvalidInput, "binary genotype requires a positive genes size")
	}
	for _, seed := range cfg.SeedGenes {
		if len(seed) != cfg.GenesSize {
			return nil, errors.Newf(errors.InvalidInput,
				"binary genotype seed genes length %d does not match genes size %d", len(seed), cfg.GenesSize)
		}
	}
	return &Binary{base: base[bool]{
		genesSize:    cfg.GenesSize,
		seedGenes:    cfg.SeedGenes,
		genesHashing: cfg.GenesHashing,
		encoder:      gene.BoolEncoder,
	}}, nil
}

func (g *Binary) randomGenes(rng *rand.Rand) []bool {
	genes := make([]bool, g.genesSize)
	for i := range genes {
		genes[i] = rng.Intn(2) == 1
	}
	return genes
}

func (g *Binary) ChromosomeConstructorRandom(rng *rand.Rand) *chromosome.Chromosome[bool] {
	return g.ChromosomeConstructor(g.seedOrRandom(rng, func() []bool { return g.randomGenes(rng) }))
}

func (g *Binary) ChromosomeConstructor(genes []bool) *chromosome.Chromosome[bool] {
	c := chromosome.New(genes)
	g.ResetChromosome(c)
	return c
}

func (g *Binary) PopulationConstructor(size int, rng *rand.Rand) *population.Population[bool] {
	pop := population.New[bool](size)
	for i := 0; i < size; i++ {
		genes := g.cycledSeedOrRandom(rng, func() []bool { return g.randomGenes(rng) })
		pop.Push(g.ChromosomeConstructor(genes))
	}
	return pop
}

func (g *Binary) Genes(c *chromosome.Chromosome[bool]) []bool { return c.Genes }

func (g *Binary) CloneChromosome(c *chromosome.Chromosome[bool]) *chromosome.Chromosome[bool] {
	return c.CloneOwned()
}

func (g *Binary) FreeChromosome(*chromosome.Chromosome[bool]) {}

func (g *Binary) TruncatePopulation(pop *population.Population[bool], keep int) {
	pop.Truncate(keep)
}

func (g *Binary) MutateChromosomeGenes(n int, allowDuplicates bool, c *chromosome.Chromosome[bool], scaleIndex int, rng *rand.Rand) {
	for _, i := range sampleIndexes(rng, g.genesSize, n, allowDuplicates) {
		c.Genes[i] = !c.Genes[i]
	}
	g.ResetChromosome(c)
}

func (g *Binary) ResetChromosome(c *chromosome.Chromosome[bool]) {
	g.resetDerived(c, c.Genes)
}

func (g *Binary) SaveBestGenes(c *chromosome.Chromosome[bool]) {
	g.saveBestGenes(c.Genes)
}

func (g *Binary) LoadBestGenes(c *chromosome.Chromosome[bool]) {
	copy(c.Genes, g.bestGenes)
	g.ResetChromosome(c)
}

func (g *Binary) HasCrossoverIndexes() bool { return true }
func (g *Binary) HasCrossoverPoints() bool  { return true }

func (g *Binary) CrossoverChromosomeGenes(n int, allowDuplicates bool, father, mother *chromosome.Chromosome[bool], rng *rand.Rand) {
	crossoverGenesAt(rng, n, allowDuplicates, father.Genes, mother.Genes)
	g.ResetChromosome(father)
	g.ResetChromosome(mother)
}

func (g *Binary) CrossoverChromosomePoints(n int, allowDuplicates bool, father, mother *chromosome.Chromosome[bool], rng *rand.Rand) {
	crossoverPointsAt(rng, n, allowDuplicates, father.Genes, mother.Genes)
	g.ResetChromosome(father)
	g.ResetChromosome(mother)
}

// FillNeighbouringPopulation appends one flipped-bit variant per gene index.
func (g *Binary) FillNeighbouringPopulation(c *chromosome.Chromosome[bool], pop *population.Population[bool], _ int, _ *rand.Rand) {
	for i := 0; i < g.genesSize; i++ {
		genes := gene.CloneGenes(c.Genes)
		genes[i] = !genes[i]
		neighbour := g.ChromosomeConstructor(genes)
		neighbour.MarkOffspring()
		pop.Push(neighbour)
	}
}

func (g *Binary) NeighbouringPopulationSize() *big.Int {
	return big.NewInt(int64(g.genesSize))
}

func (g *Binary) MutationTypeAllowsPermutation() bool { return true }

func (g *Binary) ChromosomePermutationsSize(_ int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(g.genesSize))
}

// ChromosomePermutationsIter counts through all 2^n gene vectors, last gene
// varying fastest.
func (g *Binary) ChromosomePermutationsIter(_ *chromosome.Chromosome[bool], _ int) iter.Seq[*chromosome.Chromosome[bool]] {
	counts := make([]int, g.genesSize)
	for i := range counts {
		counts[i] = 2
	}
	return odometer(counts, func(digits []int) *chromosome.Chromosome[bool] {
		genes := make([]bool, len(digits))
		for i, d := range digits {
			genes[i] = d == 1
		}
		return g.ChromosomeConstructor(genes)
	})
}
