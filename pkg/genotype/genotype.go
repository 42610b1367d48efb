// Package genotype implements the encoding rules of the search space: how
// chromosomes of each representation are constructed, mutated, crossed over,
// enumerated as hill-climb neighbours and permuted for exhaustive search.
//
// Variants: Binary, Range, List, Unique, MultiList, MultiRange, MultiUnique,
// and the matrix-backed StaticMatrixRange/DynamicMatrixRange whose
// chromosomes reference rows of a genotype-owned matrix for cache-local bulk
// fitness evaluation.
//
// All stochastic operations take an explicit *rand.Rand; the package keeps
// no hidden random state. Genotypes are not safe for concurrent mutation:
// mutate, crossover and constructor calls assume exclusive single-threaded
// access. Parallel fitness evaluation is safe because it only reads gene
// data and writes each chromosome's own fitness score.
package genotype

import (
	"math/big"
	"math/rand"

	"iter"

	"github.com/XiaoConstantine/evolve-go/pkg/chromosome"
	"github.com/XiaoConstantine/evolve-go/pkg/gene"
	"github.com/XiaoConstantine/evolve-go/pkg/population"
)

// Genotype is the polymorphic core contract shared by every encoding.
type Genotype[A gene.Allele] interface {
	// GenesSize returns the configured chromosome length.
	GenesSize() int
	// GenesHashing reports whether chromosomes carry a content hash.
	GenesHashing() bool

	// ChromosomeConstructorRandom produces one chromosome with genes drawn
	// from the seed-genes list if non-empty (uniformly chosen), otherwise
	// at random within the configured bounds.
	ChromosomeConstructorRandom(rng *rand.Rand) *chromosome.Chromosome[A]
	// ChromosomeConstructor builds a chromosome around the given genes.
	// The caller's slice is copied for matrix genotypes and adopted by
	// owning genotypes.
	ChromosomeConstructor(genes []A) *chromosome.Chromosome[A]
	// PopulationConstructor builds size chromosomes. When seeds are
	// present it cycles through the seed list, guaranteeing reproducible
	// seeded runs.
	PopulationConstructor(size int, rng *rand.Rand) *population.Population[A]

	// Genes resolves a chromosome's gene view, either its owned buffer or
	// its matrix row.
	Genes(c *chromosome.Chromosome[A]) []A
	// CloneChromosome duplicates a chromosome. Matrix genotypes copy the
	// row into a freshly acquired row id; row ids are never aliased.
	CloneChromosome(c *chromosome.Chromosome[A]) *chromosome.Chromosome[A]
	// FreeChromosome returns a matrix chromosome's row to the arena.
	// No-op for owning chromosomes.
	FreeChromosome(c *chromosome.Chromosome[A])
	// TruncatePopulation keeps the first keep chromosomes, returning the
	// dropped rows to the arena for matrix genotypes.
	TruncatePopulation(pop *population.Population[A], keep int)

	// MutateChromosomeGenes mutates numberOfMutations gene positions.
	// With allowDuplicates the positions are drawn with replacement,
	// cheaper but possibly hitting the same gene twice; without, a true
	// k-subset. Derived state is invalidated and the hash recomputed
	// before returning.
	MutateChromosomeGenes(numberOfMutations int, allowDuplicates bool, c *chromosome.Chromosome[A], scaleIndex int, rng *rand.Rand)
	// ResetChromosome invalidates derived state and recomputes the genes
	// hash when hashing is enabled. Mandatory after every gene write.
	ResetChromosome(c *chromosome.Chromosome[A])

	// SaveBestGenes snapshots the chromosome's genes as the incumbent,
	// independent of the chromosome's own lifetime.
	SaveBestGenes(c *chromosome.Chromosome[A])
	// LoadBestGenes writes the incumbent snapshot into the chromosome.
	LoadBestGenes(c *chromosome.Chromosome[A])
	// BestGenes returns the incumbent snapshot.
	BestGenes() []A

	// MaxScaleIndex returns the last valid scale-index of the mutation
	// schedule, 0 for unscheduled genotypes.
	MaxScaleIndex() int
}

// EvolveGenotype extends Genotype with the crossover capability the Evolve
// strategy requires.
type EvolveGenotype[A gene.Allele] interface {
	Genotype[A]

	// CrossoverChromosomeGenes exchanges numberOfCrossovers individual
	// gene positions between father and mother. Both parents have derived
	// state invalidated and recomputed.
	CrossoverChromosomeGenes(numberOfCrossovers int, allowDuplicates bool, father, mother *chromosome.Chromosome[A], rng *rand.Rand)
	// CrossoverChromosomePoints exchanges whole contiguous segments
	// delimited by numberOfCrossovers sorted crossover points.
	CrossoverChromosomePoints(numberOfCrossovers int, allowDuplicates bool, father, mother *chromosome.Chromosome[A], rng *rand.Rand)
	// HasCrossoverIndexes reports whether gene-index crossover preserves
	// this genotype's invariants. Permutation genotypes return false.
	HasCrossoverIndexes() bool
	// HasCrossoverPoints reports whether point crossover preserves this
	// genotype's invariants.
	HasCrossoverPoints() bool
}

// HillClimbGenotype extends Genotype with neighbour enumeration.
type HillClimbGenotype[A gene.Allele] interface {
	Genotype[A]

	// FillNeighbouringPopulation appends one chromosome per atomic
	// neighbouring move of c.
	FillNeighbouringPopulation(c *chromosome.Chromosome[A], pop *population.Population[A], scaleIndex int, rng *rand.Rand)
	// NeighbouringPopulationSize returns the exact neighbour count so
	// callers can reason about cost before enumerating.
	NeighbouringPopulationSize() *big.Int
}

// PermutateGenotype extends Genotype with lazy exhaustive enumeration.
type PermutateGenotype[A gene.Allele] interface {
	Genotype[A]

	// ChromosomePermutationsIter lazily yields every reachable chromosome.
	// The sequence is finite and a fresh iterator is produced per call.
	ChromosomePermutationsIter(seed *chromosome.Chromosome[A], scaleIndex int) iter.Seq[*chromosome.Chromosome[A]]
	// ChromosomePermutationsSize returns the exact enumeration count at the
	// given scale index, matching what ChromosomePermutationsIter yields at
	// that index. Arbitrary precision since factorial counts overflow
	// fixed-width integers quickly.
	ChromosomePermutationsSize(scaleIndex int) *big.Int
	// MutationTypeAllowsPermutation reports whether an evenly spaced
	// discretization of the search space exists.
	MutationTypeAllowsPermutation() bool
}

// ChromosomeManager is the arena contract of matrix-backed genotypes. The
// genotype exclusively owns the backing matrix; chromosomes hold plain row
// indices with no ownership semantics.
type ChromosomeManager[A gene.Allele] interface {
	Genotype[A]

	// SetupChromosomes pre-allocates all row slots, seeding the free-list
	// as a stack so recently freed rows are reused first.
	SetupChromosomes()
	// FindOrCreateChromosome pops a free row id into a chromosome with
	// unspecified gene content. Panics on a static genotype when capacity
	// is exhausted: exceeding the configured population capacity is a
	// configuration bug, not a runtime condition to recover from.
	FindOrCreateChromosome() *chromosome.Chromosome[A]
	// CleanupChromosomes releases every row back to the free-list.
	CleanupChromosomes()
}

// base carries the state every variant shares.
type base[A gene.Allele] struct {
	genesSize    int
	seedGenes    [][]A
	genesHashing bool
	bestGenes    []A
	encoder      gene.Encoder[A]
	seedCursor   int
}

func (b *base[A]) GenesSize() int      { return b.genesSize }
func (b *base[A]) GenesHashing() bool  { return b.genesHashing }
func (b *base[A]) SeedGenes() [][]A    { return b.seedGenes }
func (b *base[A]) BestGenes() []A      { return b.bestGenes }
func (b *base[A]) MaxScaleIndex() int  { return 0 }

func (b *base[A]) hashGenes(genes []A) uint64 {
	return gene.HashGenes(genes, b.encoder)
}

// resetDerived invalidates derived state and recomputes the hash over the
// given gene view.
func (b *base[A]) resetDerived(c *chromosome.Chromosome[A], genes []A) {
	c.Invalidate()
	if b.genesHashing {
		c.SetGenesHash(b.hashGenes(genes))
	}
}

// seedOrRandom picks one seed uniformly when seeds exist, otherwise defers
// to the random constructor. The returned slice is freshly owned.
func (b *base[A]) seedOrRandom(rng *rand.Rand, random func() []A) []A {
	if len(b.seedGenes) > 0 {
		return gene.CloneGenes(b.seedGenes[rng.Intn(len(b.seedGenes))])
	}
	return random()
}

// cycledSeedOrRandom cycles the seed list round-robin for population
// construction.
func (b *base[A]) cycledSeedOrRandom(rng *rand.Rand, random func() []A) []A {
	if len(b.seedGenes) > 0 {
		genes := gene.CloneGenes(b.seedGenes[b.seedCursor%len(b.seedGenes)])
		b.seedCursor++
		return genes
	}
	return random()
}

func (b *base[A]) saveBestGenes(genes []A) {
	b.bestGenes = gene.CloneGenes(genes)
}

// sampleIndexes picks k positions in [0, n). With replacement the sampling
// is O(k); without, a true k-subset via a partial shuffle.
func sampleIndexes(rng *rand.Rand, n, k int, allowDuplicates bool) []int {
	if k <= 0 || n <= 0 {
		return nil
	}
	if allowDuplicates {
		out := make([]int, k)
		for i := range out {
			out[i] = rng.Intn(n)
		}
		return out
	}
	if k > n {
		k = n
	}
	return rng.Perm(n)[:k]
}

// crossoverGenesAt swaps k sampled gene positions between two parents.
func crossoverGenesAt[A gene.Allele](rng *rand.Rand, n int, allowDuplicates bool, father, mother []A) {
	for _, i := range sampleIndexes(rng, len(father), n, allowDuplicates) {
		father[i], mother[i] = mother[i], father[i]
	}
}

// crossoverPointsAt swaps alternate contiguous segments delimited by k
// sampled, sorted crossover points. Duplicate points yield empty segments.
func crossoverPointsAt[A gene.Allele](rng *rand.Rand, n int, allowDuplicates bool, father, mother []A) {
	points := sampleIndexes(rng, len(father), n, allowDuplicates)
	if len(points) == 0 {
		return
	}
	sortInts(points)
	for i := 0; i < len(points); i += 2 {
		start := points[i]
		end := len(father)
		if i+1 < len(points) {
			end = points[i+1]
		}
		for j := start; j < end; j++ {
			father[j], mother[j] = mother[j], father[j]
		}
	}
}

func sortInts(s []int) {
	// insertion sort; crossover point counts are tiny
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// odometer lazily enumerates the cartesian product of per-position counts,
// yielding position values through build. Shared by the Binary, List,
// MultiList and Range permutation iterators.
func odometer[A gene.Allele](counts []int, build func(digits []int) *chromosome.Chromosome[A]) iter.Seq[*chromosome.Chromosome[A]] {
	return func(yield func(*chromosome.Chromosome[A]) bool) {
		for _, c := range counts {
			if c <= 0 {
				return
			}
		}
		digits := make([]int, len(counts))
		for {
			if !yield(build(digits)) {
				return
			}
			pos := len(digits) - 1
			for pos >= 0 {
				digits[pos]++
				if digits[pos] < counts[pos] {
					break
				}
				digits[pos] = 0
				pos--
			}
			if pos < 0 {
				return
			}
		}
	}
}

// productSize returns the product of per-position counts as a big integer.
func productSize(counts []int) *big.Int {
	size := big.NewInt(1)
	for _, c := range counts {
		size.Mul(size, big.NewInt(int64(c)))
	}
	return size
}
