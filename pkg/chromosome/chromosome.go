// Package chromosome defines the candidate-solution container: a gene
// sequence plus the derived metadata (fitness score, genes hash, age) that
// selection and fitness caching depend on.
package chromosome

import (
	"github.com/XiaoConstantine/evolve-go/pkg/gene"
)

// NoRow marks a chromosome that owns its gene buffer directly rather than
// referencing a row in a genotype-owned matrix.
const NoRow = -1

// Chromosome represents one candidate solution.
//
// Two ownership models exist side by side: an owning chromosome holds its
// gene sequence in Genes, while a row-reference chromosome holds only a Row
// index into a matrix owned by its genotype. For row-reference chromosomes
// the genotype's arena is the sole authority on slot liveness; the Row field
// carries no ownership.
type Chromosome[A gene.Allele] struct {
	// Genes is the owned gene buffer; nil for row-reference chromosomes.
	Genes []A
	// Row is the backing matrix row id, or NoRow for owning chromosomes.
	Row int

	// FitnessScore is nil until fitness has been computed, and must be
	// reset to nil whenever genes change.
	FitnessScore *int
	// GenesHash is nil when hashing is disabled or pending recompute.
	GenesHash *uint64

	Age         uint32
	IsOffspring bool
}

// New creates an owning chromosome around the given gene buffer. The buffer
// is not copied; the chromosome takes ownership.
func New[A gene.Allele](genes []A) *Chromosome[A] {
	return &Chromosome[A]{Genes: genes, Row: NoRow}
}

// NewRow creates a row-reference chromosome pointing at a matrix row.
func NewRow[A gene.Allele](row int) *Chromosome[A] {
	return &Chromosome[A]{Row: row}
}

// OwnsGenes reports whether this chromosome holds its genes directly.
func (c *Chromosome[A]) OwnsGenes() bool {
	return c.Row == NoRow
}

// HasFitnessScore reports whether fitness has been computed since the last
// gene change.
func (c *Chromosome[A]) HasFitnessScore() bool {
	return c.FitnessScore != nil
}

// SetFitnessScore records a computed fitness score.
func (c *Chromosome[A]) SetFitnessScore(score int) {
	s := score
	c.FitnessScore = &s
}

// SetGenesHash records a computed content hash.
func (c *Chromosome[A]) SetGenesHash(hash uint64) {
	h := hash
	c.GenesHash = &h
}

// Invalidate clears all derived state. Callers mutate genes first, then
// invalidate; a chromosome with stale derived state must never reach
// selection or cache lookup.
func (c *Chromosome[A]) Invalidate() {
	c.FitnessScore = nil
	c.GenesHash = nil
}

// MarkOffspring resets age and flags the chromosome as freshly produced.
func (c *Chromosome[A]) MarkOffspring() {
	c.Age = 0
	c.IsOffspring = true
}

// IncrementAge advances the chromosome's generation age and clears the
// offspring flag.
func (c *Chromosome[A]) IncrementAge() {
	c.Age++
	c.IsOffspring = false
}

// CloneOwned deep-copies an owning chromosome, including derived state.
// Row-reference chromosomes are cloned through their genotype's arena, which
// must allocate a fresh row; calling CloneOwned on one is a programmer error.
func (c *Chromosome[A]) CloneOwned() *Chromosome[A] {
	if !c.OwnsGenes() {
		panic("chromosome: CloneOwned called on a row-reference chromosome")
	}
	out := &Chromosome[A]{
		Genes:       gene.CloneGenes(c.Genes),
		Row:         NoRow,
		Age:         c.Age,
		IsOffspring: c.IsOffspring,
	}
	if c.FitnessScore != nil {
		out.SetFitnessScore(*c.FitnessScore)
	}
	if c.GenesHash != nil {
		out.SetGenesHash(*c.GenesHash)
	}
	return out
}
