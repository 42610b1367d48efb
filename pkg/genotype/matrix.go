package genotype

import (
	"math/big"
	"math/rand"

	"github.com/XiaoConstantine/evolve-go/pkg/chromosome"
	"github.com/XiaoConstantine/evolve-go/pkg/errors"
	"github.com/XiaoConstantine/evolve-go/pkg/gene"
	"github.com/XiaoConstantine/evolve-go/pkg/population"
)

// rowMatrix is the gene arena of matrix-backed genotypes: one flat buffer
// holding rows of cols alleles each, plus a free-list stack of row ids. The
// free-list is seeded high-to-low and popped from the end, so row 0 is
// handed out first and freshly released rows are reused before cold ones.
type rowMatrix[T gene.NumericAllele] struct {
	data []T
	rows int
	cols int
	free []int
}

func newRowMatrix[T gene.NumericAllele](rows, cols int) *rowMatrix[T] {
	m := &rowMatrix[T]{
		data: make([]T, rows*cols),
		rows: rows,
		cols: cols,
		free: make([]int, 0, rows),
	}
	m.seedFreeList()
	return m
}

func (m *rowMatrix[T]) seedFreeList() {
	m.free = m.free[:0]
	for i := m.rows - 1; i >= 0; i-- {
		m.free = append(m.free, i)
	}
}

func (m *rowMatrix[T]) row(id int) []T {
	start := id * m.cols
	return m.data[start : start+m.cols : start+m.cols]
}

// acquire pops a free row id, or -1 when the arena is exhausted.
func (m *rowMatrix[T]) acquire() int {
	if len(m.free) == 0 {
		return -1
	}
	id := m.free[len(m.free)-1]
	m.free = m.free[:len(m.free)-1]
	return id
}

func (m *rowMatrix[T]) release(id int) {
	m.free = append(m.free, id)
}

// grow doubles the row capacity, preserving existing row content. Row views
// taken before a grow are stale; callers must re-resolve through row.
func (m *rowMatrix[T]) grow() {
	oldRows := m.rows
	m.rows *= 2
	data := make([]T, m.rows*m.cols)
	copy(data, m.data)
	m.data = data
	for i := m.rows - 1; i >= oldRows; i-- {
		m.free = append(m.free, i)
	}
}

// MatrixRangeConfig configures a matrix-backed numeric range genotype. Rows
// is the arena capacity: the static variant treats it as a hard ceiling, the
// dynamic variant as an initial size.
type MatrixRangeConfig[T gene.NumericAllele] struct {
	GenesSize    int
	Min, Max     T
	Rows         int
	MutationType MutationType[T]
	GenesHashing bool
	SeedGenes    [][]T
}

// matrixRange carries everything the static and dynamic variants share.
type matrixRange[T gene.NumericAllele] struct {
	base[T]
	matrix       *rowMatrix[T]
	min, max     T
	mutationType MutationType[T]
	dynamic      bool
}

func newMatrixRange[T gene.NumericAllele](cfg MatrixRangeConfig[T], dynamic bool) (*matrixRange[T], error) {
	if cfg.GenesSize <= 0 {
		return nil, errors.Newf(errors.InvalidInput, "matrix range genotype requires a positive genes size, got %d", cfg.GenesSize)
	}
	if cfg.Rows <= 0 {
		return nil, errors.Newf(errors.InvalidInput, "matrix range genotype requires a positive row capacity, got %d", cfg.Rows)
	}
	if cfg.Max < cfg.Min {
		return nil, errors.Newf(errors.InvalidInput, "matrix range genotype allele range is inverted: min %v > max %v", cfg.Min, cfg.Max)
	}
	if err := cfg.MutationType.Validate(); err != nil {
		return nil, err
	}
	for _, seed := range cfg.SeedGenes {
		if len(seed) != cfg.GenesSize {
			return nil, errors.Newf(errors.InvalidInput,
				"matrix range genotype seed genes length %d does not match genes size %d", len(seed), cfg.GenesSize)
		}
	}
	return &matrixRange[T]{
		base: base[T]{
			genesSize:    cfg.GenesSize,
			seedGenes:    cfg.SeedGenes,
			genesHashing: cfg.GenesHashing,
			encoder:      gene.NumericEncoder[T],
		},
		matrix:       newRowMatrix[T](cfg.Rows, cfg.GenesSize),
		min:          cfg.Min,
		max:          cfg.Max,
		mutationType: cfg.MutationType,
		dynamic:      dynamic,
	}, nil
}

func (g *matrixRange[T]) MaxScaleIndex() int { return g.mutationType.ScheduleLength() - 1 }

func (g *matrixRange[T]) SetupChromosomes() {
	g.matrix.seedFreeList()
}

func (g *matrixRange[T]) FindOrCreateChromosome() *chromosome.Chromosome[T] {
	id := g.matrix.acquire()
	if id < 0 {
		if !g.dynamic {
			panic("genotype: static matrix arena exhausted, population exceeds configured row capacity")
		}
		g.matrix.grow()
		id = g.matrix.acquire()
	}
	return chromosome.NewRow[T](id)
}

func (g *matrixRange[T]) CleanupChromosomes() {
	g.matrix.seedFreeList()
}

func (g *matrixRange[T]) randomGenes(genes []T, rng *rand.Rand) {
	for i := range genes {
		genes[i] = uniformInclusive(rng, g.min, g.max)
	}
}

func (g *matrixRange[T]) ChromosomeConstructorRandom(rng *rand.Rand) *chromosome.Chromosome[T] {
	c := g.FindOrCreateChromosome()
	row := g.matrix.row(c.Row)
	if len(g.seedGenes) > 0 {
		copy(row, g.seedGenes[rng.Intn(len(g.seedGenes))])
	} else {
		g.randomGenes(row, rng)
	}
	g.ResetChromosome(c)
	return c
}

func (g *matrixRange[T]) ChromosomeConstructor(genes []T) *chromosome.Chromosome[T] {
	c := g.FindOrCreateChromosome()
	copy(g.matrix.row(c.Row), genes)
	g.ResetChromosome(c)
	return c
}

func (g *matrixRange[T]) PopulationConstructor(size int, rng *rand.Rand) *population.Population[T] {
	pop := population.New[T](size)
	for i := 0; i < size; i++ {
		c := g.FindOrCreateChromosome()
		row := g.matrix.row(c.Row)
		if len(g.seedGenes) > 0 {
			copy(row, g.seedGenes[g.seedCursor%len(g.seedGenes)])
			g.seedCursor++
		} else {
			g.randomGenes(row, rng)
		}
		g.ResetChromosome(c)
		pop.Push(c)
	}
	return pop
}

func (g *matrixRange[T]) Genes(c *chromosome.Chromosome[T]) []T {
	return g.matrix.row(c.Row)
}

func (g *matrixRange[T]) CloneChromosome(c *chromosome.Chromosome[T]) *chromosome.Chromosome[T] {
	clone := g.FindOrCreateChromosome()
	copy(g.matrix.row(clone.Row), g.matrix.row(c.Row))
	clone.Age = c.Age
	clone.IsOffspring = c.IsOffspring
	if c.FitnessScore != nil {
		clone.SetFitnessScore(*c.FitnessScore)
	}
	if c.GenesHash != nil {
		clone.SetGenesHash(*c.GenesHash)
	}
	return clone
}

func (g *matrixRange[T]) FreeChromosome(c *chromosome.Chromosome[T]) {
	g.matrix.release(c.Row)
}

func (g *matrixRange[T]) TruncatePopulation(pop *population.Population[T], keep int) {
	for i := keep; i < pop.Size(); i++ {
		g.FreeChromosome(pop.Chromosomes[i])
	}
	pop.Truncate(keep)
}

func (g *matrixRange[T]) MutateChromosomeGenes(n int, allowDuplicates bool, c *chromosome.Chromosome[T], scaleIndex int, rng *rand.Rand) {
	row := g.matrix.row(c.Row)
	for _, i := range sampleIndexes(rng, g.genesSize, n, allowDuplicates) {
		row[i] = mutateRangeGene(rng, row[i], g.min, g.max, g.mutationType, scaleIndex)
	}
	g.ResetChromosome(c)
}

func (g *matrixRange[T]) ResetChromosome(c *chromosome.Chromosome[T]) {
	g.resetDerived(c, g.matrix.row(c.Row))
}

func (g *matrixRange[T]) SaveBestGenes(c *chromosome.Chromosome[T]) {
	g.saveBestGenes(g.matrix.row(c.Row))
}

func (g *matrixRange[T]) LoadBestGenes(c *chromosome.Chromosome[T]) {
	copy(g.matrix.row(c.Row), g.bestGenes)
	g.ResetChromosome(c)
}

func (g *matrixRange[T]) HasCrossoverIndexes() bool { return true }
func (g *matrixRange[T]) HasCrossoverPoints() bool  { return true }

func (g *matrixRange[T]) CrossoverChromosomeGenes(n int, allowDuplicates bool, father, mother *chromosome.Chromosome[T], rng *rand.Rand) {
	crossoverGenesAt(rng, n, allowDuplicates, g.matrix.row(father.Row), g.matrix.row(mother.Row))
	g.ResetChromosome(father)
	g.ResetChromosome(mother)
}

func (g *matrixRange[T]) CrossoverChromosomePoints(n int, allowDuplicates bool, father, mother *chromosome.Chromosome[T], rng *rand.Rand) {
	crossoverPointsAt(rng, n, allowDuplicates, g.matrix.row(father.Row), g.matrix.row(mother.Row))
	g.ResetChromosome(father)
	g.ResetChromosome(mother)
}

func (g *matrixRange[T]) FillNeighbouringPopulation(c *chromosome.Chromosome[T], pop *population.Population[T], scaleIndex int, _ *rand.Rand) {
	bw := g.mutationType.neighbourBandwidth(g.min, g.max, scaleIndex)
	for i := 0; i < g.genesSize; i++ {
		for _, offset := range [2]T{-bw, bw} {
			neighbour := g.FindOrCreateChromosome()
			// re-resolve both rows: a dynamic grow in FindOrCreateChromosome
			// invalidates previously taken views
			row := g.matrix.row(neighbour.Row)
			copy(row, g.matrix.row(c.Row))
			row[i] = clamp(row[i]+offset, g.min, g.max)
			g.ResetChromosome(neighbour)
			neighbour.MarkOffspring()
			pop.Push(neighbour)
		}
	}
}

func (g *matrixRange[T]) NeighbouringPopulationSize() *big.Int {
	return big.NewInt(2 * int64(g.genesSize))
}

// StaticMatrixRange is the fixed-capacity matrix-backed range genotype. Its
// arena never reallocates, so row views stay valid for the whole run, at the
// price of a hard panic when the configured capacity is exceeded.
type StaticMatrixRange[T gene.NumericAllele] struct {
	matrixRange[T]
}

func NewStaticMatrixRange[T gene.NumericAllele](cfg MatrixRangeConfig[T]) (*StaticMatrixRange[T], error) {
	m, err := newMatrixRange(cfg, false)
	if err != nil {
		return nil, err
	}
	return &StaticMatrixRange[T]{matrixRange: *m}, nil
}

// DynamicMatrixRange is the growable matrix-backed range genotype. The arena
// doubles when exhausted; callers must re-resolve gene views through Genes
// after any row acquisition.
type DynamicMatrixRange[T gene.NumericAllele] struct {
	matrixRange[T]
}

func NewDynamicMatrixRange[T gene.NumericAllele](cfg MatrixRangeConfig[T]) (*DynamicMatrixRange[T], error) {
	m, err := newMatrixRange(cfg, true)
	if err != nil {
		return nil, err
	}
	return &DynamicMatrixRange[T]{matrixRange: *m}, nil
}
