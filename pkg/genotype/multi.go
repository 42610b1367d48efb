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

// MultiListConfig configures a MultiList genotype: one independent allele
// list per gene position.
type MultiListConfig[A gene.Allele] struct {
	AlleleLists  [][]A
	GenesHashing bool
	SeedGenes    [][]A
}

// MultiList is the composite categorical genotype: gene i draws from allele
// list i, so heterogeneous positions coexist in one chromosome.
type MultiList[A gene.Allele] struct {
	base[A]
	alleleLists [][]A
}

func NewMultiList[A gene.Allele](cfg MultiListConfig[A]) (*MultiList[A], error) {
	if len(cfg.AlleleLists) == 0 {
		return nil, errors.New(errors.InvalidInput, "multi list genotype requires at least one allele list")
	}
	for i, list := range cfg.AlleleLists {
		if len(list) == 0 {
			return nil, errors.Newf(errors.InvalidInput, "multi list genotype allele list %d is empty", i)
		}
	}
	for _, seed := range cfg.SeedGenes {
		if len(seed) != len(cfg.AlleleLists) {
			return nil, errors.Newf(errors.InvalidInput,
				"multi list genotype seed genes length %d does not match genes size %d", len(seed), len(cfg.AlleleLists))
		}
	}
	return &MultiList[A]{
		base: base[A]{
			genesSize:    len(cfg.AlleleLists),
			seedGenes:    cfg.SeedGenes,
			genesHashing: cfg.GenesHashing,
			encoder:      gene.ValueEncoder[A],
		},
		alleleLists: cfg.AlleleLists,
	}, nil
}

func (g *MultiList[A]) randomGenes(rng *rand.Rand) []A {
	genes := make([]A, g.genesSize)
	for i, list := range g.alleleLists {
		genes[i] = list[rng.Intn(len(list))]
	}
	return genes
}

func (g *MultiList[A]) ChromosomeConstructorRandom(rng *rand.Rand) *chromosome.Chromosome[A] {
	return g.ChromosomeConstructor(g.seedOrRandom(rng, func() []A { return g.randomGenes(rng) }))
}

func (g *MultiList[A]) ChromosomeConstructor(genes []A) *chromosome.Chromosome[A] {
	c := chromosome.New(genes)
	g.ResetChromosome(c)
	return c
}

func (g *MultiList[A]) PopulationConstructor(size int, rng *rand.Rand) *population.Population[A] {
	pop := population.New[A](size)
	for i := 0; i < size; i++ {
		genes := g.cycledSeedOrRandom(rng, func() []A { return g.randomGenes(rng) })
		pop.Push(g.ChromosomeConstructor(genes))
	}
	return pop
}

func (g *MultiList[A]) Genes(c *chromosome.Chromosome[A]) []A { return c.Genes }

func (g *MultiList[A]) CloneChromosome(c *chromosome.Chromosome[A]) *chromosome.Chromosome[A] {
	return c.CloneOwned()
}

func (g *MultiList[A]) FreeChromosome(*chromosome.Chromosome[A]) {}

func (g *MultiList[A]) TruncatePopulation(pop *population.Population[A], keep int) {
	pop.Truncate(keep)
}

func (g *MultiList[A]) MutateChromosomeGenes(n int, allowDuplicates bool, c *chromosome.Chromosome[A], _ int, rng *rand.Rand) {
	for _, i := range sampleIndexes(rng, g.genesSize, n, allowDuplicates) {
		list := g.alleleLists[i]
		c.Genes[i] = list[rng.Intn(len(list))]
	}
	g.ResetChromosome(c)
}

func (g *MultiList[A]) ResetChromosome(c *chromosome.Chromosome[A]) {
	g.resetDerived(c, c.Genes)
}

func (g *MultiList[A]) SaveBestGenes(c *chromosome.Chromosome[A]) {
	g.saveBestGenes(c.Genes)
}

func (g *MultiList[A]) LoadBestGenes(c *chromosome.Chromosome[A]) {
	copy(c.Genes, g.bestGenes)
	g.ResetChromosome(c)
}

func (g *MultiList[A]) HasCrossoverIndexes() bool { return true }
func (g *MultiList[A]) HasCrossoverPoints() bool  { return true }

func (g *MultiList[A]) CrossoverChromosomeGenes(n int, allowDuplicates bool, father, mother *chromosome.Chromosome[A], rng *rand.Rand) {
	crossoverGenesAt(rng, n, allowDuplicates, father.Genes, mother.Genes)
	g.ResetChromosome(father)
	g.ResetChromosome(mother)
}

func (g *MultiList[A]) CrossoverChromosomePoints(n int, allowDuplicates bool, father, mother *chromosome.Chromosome[A], rng *rand.Rand) {
	crossoverPointsAt(rng, n, allowDuplicates, father.Genes, mother.Genes)
	g.ResetChromosome(father)
	g.ResetChromosome(mother)
}

func (g *MultiList[A]) FillNeighbouringPopulation(c *chromosome.Chromosome[A], pop *population.Population[A], _ int, _ *rand.Rand) {
	for i, list := range g.alleleLists {
		for _, allele := range list {
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

func (g *MultiList[A]) NeighbouringPopulationSize() *big.Int {
	total := int64(0)
	for _, list := range g.alleleLists {
		total += int64(len(list) - 1)
	}
	return big.NewInt(total)
}

func (g *MultiList[A]) MutationTypeAllowsPermutation() bool { return true }

func (g *MultiList[A]) ChromosomePermutationsSize(_ int) *big.Int {
	counts := make([]int, g.genesSize)
	for i, list := range g.alleleLists {
		counts[i] = len(list)
	}
	return productSize(counts)
}

func (g *MultiList[A]) ChromosomePermutationsIter(_ *chromosome.Chromosome[A], _ int) iter.Seq[*chromosome.Chromosome[A]] {
	counts := make([]int, g.genesSize)
	for i, list := range g.alleleLists {
		counts[i] = len(list)
	}
	return odometer(counts, func(digits []int) *chromosome.Chromosome[A] {
		genes := make([]A, len(digits))
		for i, d := range digits {
			genes[i] = g.alleleLists[i][d]
		}
		return g.ChromosomeConstructor(genes)
	})
}

// Bounds is one allele range of a MultiRange genotype.
type Bounds[T gene.NumericAllele] struct {
	Min, Max T
}

// MultiRangeConfig configures a MultiRange genotype: one independent allele
// range per gene position, sharing a single mutation policy.
type MultiRangeConfig[T gene.NumericAllele] struct {
	AlleleRanges [][2]T
	MutationType MutationType[T]
	GenesHashing bool
	SeedGenes    [][]T
}

// MultiRange is the composite numeric genotype: gene i lives in range i.
// This is the one genotype the Discrete mutation kind is meant for, mixing
// floored categorical positions with continuous ones; when all genes are
// discrete a List-family genotype serves better.
type MultiRange[T gene.NumericAllele] struct {
	base[T]
	ranges       []Bounds[T]
	mutationType MutationType[T]
}

func NewMultiRange[T gene.NumericAllele](cfg MultiRangeConfig[T]) (*MultiRange[T], error) {
	if len(cfg.AlleleRanges) == 0 {
		return nil, errors.New(errors.InvalidInput, "multi range genotype requires at least one allele range")
	}
	ranges := make([]Bounds[T], len(cfg.AlleleRanges))
	for i, r := range cfg.AlleleRanges {
		if r[1] < r[0] {
			return nil, errors.Newf(errors.InvalidInput, "multi range genotype allele range %d is inverted: min %v > max %v", i, r[0], r[1])
		}
		ranges[i] = Bounds[T]{Min: r[0], Max: r[1]}
	}
	if err := cfg.MutationType.Validate(); err != nil {
		return nil, err
	}
	for _, seed := range cfg.SeedGenes {
		if len(seed) != len(cfg.AlleleRanges) {
			return nil, errors.Newf(errors.InvalidInput,
				"multi range genotype seed genes length %d does not match genes size %d", len(seed), len(cfg.AlleleRanges))
		}
	}
	return &MultiRange[T]{
		base: base[T]{
			genesSize:    len(cfg.AlleleRanges),
			seedGenes:    cfg.SeedGenes,
			genesHashing: cfg.GenesHashing,
			encoder:      gene.NumericEncoder[T],
		},
		ranges:       ranges,
		mutationType: cfg.MutationType,
	}, nil
}

func (g *MultiRange[T]) MaxScaleIndex() int { return g.mutationType.ScheduleLength() - 1 }

func (g *MultiRange[T]) randomGenes(rng *rand.Rand) []T {
	genes := make([]T, g.genesSize)
	for i, r := range g.ranges {
		genes[i] = uniformInclusive(rng, r.Min, r.Max)
	}
	return genes
}

func (g *MultiRange[T]) ChromosomeConstructorRandom(rng *rand.Rand) *chromosome.Chromosome[T] {
	return g.ChromosomeConstructor(g.seedOrRandom(rng, func() []T { return g.randomGenes(rng) }))
}

func (g *MultiRange[T]) ChromosomeConstructor(genes []T) *chromosome.Chromosome[T] {
	c := chromosome.New(genes)
	g.ResetChromosome(c)
	return c
}

func (g *MultiRange[T]) PopulationConstructor(size int, rng *rand.Rand) *population.Population[T] {
	pop := population.New[T](size)
	for i := 0; i < size; i++ {
		genes := g.cycledSeedOrRandom(rng, func() []T { return g.randomGenes(rng) })
		pop.Push(g.ChromosomeConstructor(genes))
	}
	return pop
}

func (g *MultiRange[T]) Genes(c *chromosome.Chromosome[T]) []T { return c.Genes }

func (g *MultiRange[T]) CloneChromosome(c *chromosome.Chromosome[T]) *chromosome.Chromosome[T] {
	return c.CloneOwned()
}

func (g *MultiRange[T]) FreeChromosome(*chromosome.Chromosome[T]) {}

func (g *MultiRange[T]) TruncatePopulation(pop *population.Population[T], keep int) {
	pop.Truncate(keep)
}

func (g *MultiRange[T]) MutateChromosomeGenes(n int, allowDuplicates bool, c *chromosome.Chromosome[T], scaleIndex int, rng *rand.Rand) {
	for _, i := range sampleIndexes(rng, g.genesSize, n, allowDuplicates) {
		r := g.ranges[i]
		c.Genes[i] = mutateRangeGene(rng, c.Genes[i], r.Min, r.Max, g.mutationType, scaleIndex)
	}
	g.ResetChromosome(c)
}

func (g *MultiRange[T]) ResetChromosome(c *chromosome.Chromosome[T]) {
	g.resetDerived(c, c.Genes)
}

func (g *MultiRange[T]) SaveBestGenes(c *chromosome.Chromosome[T]) {
	g.saveBestGenes(c.Genes)
}

func (g *MultiRange[T]) LoadBestGenes(c *chromosome.Chromosome[T]) {
	copy(c.Genes, g.bestGenes)
	g.ResetChromosome(c)
}

func (g *MultiRange[T]) HasCrossoverIndexes() bool { return true }
func (g *MultiRange[T]) HasCrossoverPoints() bool  { return true }

func (g *MultiRange[T]) CrossoverChromosomeGenes(n int, allowDuplicates bool, father, mother *chromosome.Chromosome[T], rng *rand.Rand) {
	crossoverGenesAt(rng, n, allowDuplicates, father.Genes, mother.Genes)
	g.ResetChromosome(father)
	g.ResetChromosome(mother)
}

func (g *MultiRange[T]) CrossoverChromosomePoints(n int, allowDuplicates bool, father, mother *chromosome.Chromosome[T], rng *rand.Rand) {
	crossoverPointsAt(rng, n, allowDuplicates, father.Genes, mother.Genes)
	g.ResetChromosome(father)
	g.ResetChromosome(mother)
}

func (g *MultiRange[T]) FillNeighbouringPopulation(c *chromosome.Chromosome[T], pop *population.Population[T], scaleIndex int, _ *rand.Rand) {
	for i, r := range g.ranges {
		bw := g.mutationType.neighbourBandwidth(r.Min, r.Max, scaleIndex)
		for _, offset := range [2]T{-bw, bw} {
			genes := gene.CloneGenes(c.Genes)
			genes[i] = clamp(genes[i]+offset, r.Min, r.Max)
			neighbour := g.ChromosomeConstructor(genes)
			neighbour.MarkOffspring()
			pop.Push(neighbour)
		}
	}
}

func (g *MultiRange[T]) NeighbouringPopulationSize() *big.Int {
	return big.NewInt(2 * int64(g.genesSize))
}

// MultiUniqueConfig configures a MultiUnique genotype: independent
// permutation segments concatenated into one chromosome.
type MultiUniqueConfig[A gene.Allele] struct {
	AlleleLists  [][]A
	GenesHashing bool
	SeedGenes    [][]A
}

// MultiUnique concatenates independent permutation segments. Mutation picks
// a segment with probability proportional to its length, keeping per-gene
// mutation probability equal across segments of different sizes, then swaps
// two distinct positions inside that segment.
type MultiUnique[A gene.Allele] struct {
	base[A]
	alleleLists [][]A
	offsets     []int // start offset of each segment in the flat gene view
}

func NewMultiUnique[A gene.Allele](cfg MultiUniqueConfig[A]) (*MultiUnique[A], error) {
	if len(cfg.AlleleLists) == 0 {
		return nil, errors.New(errors.InvalidInput, "multi unique genotype requires at least one allele list")
	}
	offsets := make([]int, len(cfg.AlleleLists))
	total := 0
	for i, list := range cfg.AlleleLists {
		if len(list) < 2 {
			return nil, errors.Newf(errors.InvalidInput, "multi unique genotype allele list %d needs at least two alleles to permute", i)
		}
		offsets[i] = total
		total += len(list)
	}
	for _, seed := range cfg.SeedGenes {
		if len(seed) != total {
			return nil, errors.Newf(errors.InvalidInput,
				"multi unique genotype seed genes length %d does not match genes size %d", len(seed), total)
		}
	}
	return &MultiUnique[A]{
		base: base[A]{
			genesSize:    total,
			seedGenes:    cfg.SeedGenes,
			genesHashing: cfg.GenesHashing,
			encoder:      gene.ValueEncoder[A],
		},
		alleleLists: cfg.AlleleLists,
		offsets:     offsets,
	}, nil
}

func (g *MultiUnique[A]) randomGenes(rng *rand.Rand) []A {
	genes := make([]A, 0, g.genesSize)
	for _, list := range g.alleleLists {
		segment := gene.CloneGenes(list)
		rng.Shuffle(len(segment), func(i, j int) {
			segment[i], segment[j] = segment[j], segment[i]
		})
		genes = append(genes, segment...)
	}
	return genes
}

func (g *MultiUnique[A]) ChromosomeConstructorRandom(rng *rand.Rand) *chromosome.Chromosome[A] {
	return g.ChromosomeConstructor(g.seedOrRandom(rng, func() []A { return g.randomGenes(rng) }))
}

func (g *MultiUnique[A]) ChromosomeConstructor(genes []A) *chromosome.Chromosome[A] {
	c := chromosome.New(genes)
	g.ResetChromosome(c)
	return c
}

func (g *MultiUnique[A]) PopulationConstructor(size int, rng *rand.Rand) *population.Population[A] {
	pop := population.New[A](size)
	for i := 0; i < size; i++ {
		genes := g.cycledSeedOrRandom(rng, func() []A { return g.randomGenes(rng) })
		pop.Push(g.ChromosomeConstructor(genes))
	}
	return pop
}

func (g *MultiUnique[A]) Genes(c *chromosome.Chromosome[A]) []A { return c.Genes }

func (g *MultiUnique[A]) CloneChromosome(c *chromosome.Chromosome[A]) *chromosome.Chromosome[A] {
	return c.CloneOwned()
}

func (g *MultiUnique[A]) FreeChromosome(*chromosome.Chromosome[A]) {}

func (g *MultiUnique[A]) TruncatePopulation(pop *population.Population[A], keep int) {
	pop.Truncate(keep)
}

// segmentForGene maps a flat gene position to its segment index.
func (g *MultiUnique[A]) segmentForGene(pos int) int {
	seg := len(g.offsets) - 1
	for seg > 0 && g.offsets[seg] > pos {
		seg--
	}
	return seg
}

func (g *MultiUnique[A]) swapWithinSegment(c *chromosome.Chromosome[A], seg, first int, rng *rand.Rand) {
	start := g.offsets[seg]
	size := len(g.alleleLists[seg])
	second := start + (first-start+1+rng.Intn(size-1))%size
	c.Genes[first], c.Genes[second] = c.Genes[second], c.Genes[first]
}

// MutateChromosomeGenes draws gene positions over the whole flat chromosome
// (giving each segment a length-proportional chance) and swaps each drawn
// position with a distinct partner inside its own segment.
func (g *MultiUnique[A]) MutateChromosomeGenes(n int, allowDuplicates bool, c *chromosome.Chromosome[A], _ int, rng *rand.Rand) {
	for _, pos := range sampleIndexes(rng, g.genesSize, n, allowDuplicates) {
		seg := g.segmentForGene(pos)
		g.swapWithinSegment(c, seg, pos, rng)
	}
	g.ResetChromosome(c)
}

func (g *MultiUnique[A]) ResetChromosome(c *chromosome.Chromosome[A]) {
	g.resetDerived(c, c.Genes)
}

func (g *MultiUnique[A]) SaveBestGenes(c *chromosome.Chromosome[A]) {
	g.saveBestGenes(c.Genes)
}

func (g *MultiUnique[A]) LoadBestGenes(c *chromosome.Chromosome[A]) {
	copy(c.Genes, g.bestGenes)
	g.ResetChromosome(c)
}

// HasCrossoverIndexes is false: exchange across parents duplicates values
// within a segment.
func (g *MultiUnique[A]) HasCrossoverIndexes() bool { return false }
func (g *MultiUnique[A]) HasCrossoverPoints() bool  { return false }

func (g *MultiUnique[A]) CrossoverChromosomeGenes(int, bool, *chromosome.Chromosome[A], *chromosome.Chromosome[A], *rand.Rand) {
	panic("genotype: multi unique genotype does not support gene crossover, check HasCrossoverIndexes before calling")
}

func (g *MultiUnique[A]) CrossoverChromosomePoints(int, bool, *chromosome.Chromosome[A], *chromosome.Chromosome[A], *rand.Rand) {
	panic("genotype: multi unique genotype does not support point crossover, check HasCrossoverPoints before calling")
}

// FillNeighbouringPopulation appends one variant per unordered position
// pair within each segment.
func (g *MultiUnique[A]) FillNeighbouringPopulation(c *chromosome.Chromosome[A], pop *population.Population[A], _ int, _ *rand.Rand) {
	for seg, list := range g.alleleLists {
		start := g.offsets[seg]
		for i := start; i < start+len(list); i++ {
			for j := i + 1; j < start+len(list); j++ {
				genes := gene.CloneGenes(c.Genes)
				genes[i], genes[j] = genes[j], genes[i]
				neighbour := g.ChromosomeConstructor(genes)
				neighbour.MarkOffspring()
				pop.Push(neighbour)
			}
		}
	}
}

func (g *MultiUnique[A]) NeighbouringPopulationSize() *big.Int {
	total := int64(0)
	for _, list := range g.alleleLists {
		n := int64(len(list))
		total += n * (n - 1) / 2
	}
	return big.NewInt(total)
}
