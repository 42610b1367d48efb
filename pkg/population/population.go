// Package population holds the ordered chromosome collection evaluated
// together in one generation, plus its aggregate queries: best-index
// selection, content-hash deduplication and sketch-based cardinality
// estimates.
package population

import (
	"sort"

	"github.com/axiomhq/hyperloglog"

	"github.com/XiaoConstantine/evolve-go/pkg/chromosome"
	"github.com/XiaoConstantine/evolve-go/pkg/gene"
)

// Ordering selects the direction of fitness comparison.
type Ordering int

const (
	Maximize Ordering = iota
	Minimize
)

func (o Ordering) String() string {
	if o == Minimize {
		return "minimize"
	}
	return "maximize"
}

// Population is an ordered sequence of chromosomes. Order is
// generation-significant for parent/offspring bookkeeping but carries no
// fitness meaning. Capacity is pre-reserved so that row-reference
// chromosomes never see their backing slices reallocated mid-generation.
type Population[A gene.Allele] struct {
	Chromosomes []*chromosome.Chromosome[A]
}

// New creates an empty population with pre-reserved capacity.
func New[A gene.Allele](capacity int) *Population[A] {
	return &Population[A]{Chromosomes: make([]*chromosome.Chromosome[A], 0, capacity)}
}

// Size returns the number of chromosomes.
func (p *Population[A]) Size() int {
	return len(p.Chromosomes)
}

// Push appends a chromosome.
func (p *Population[A]) Push(c *chromosome.Chromosome[A]) {
	p.Chromosomes = append(p.Chromosomes, c)
}

// Truncate keeps the first n chromosomes. Matrix-backed genotypes must
// release the dropped rows through their arena before truncating.
func (p *Population[A]) Truncate(n int) {
	if n < len(p.Chromosomes) {
		p.Chromosomes = p.Chromosomes[:n]
	}
}

// better reports whether chromosome a strictly beats chromosome b under the
// ordering. Both indices must refer to scored chromosomes.
func (p *Population[A]) better(a, b int, ordering Ordering) bool {
	sa := *p.Chromosomes[a].FitnessScore
	sb := *p.Chromosomes[b].FitnessScore
	if ordering == Minimize {
		return sa < sb
	}
	return sa > sb
}

// BestChromosomeIndex scans for the best scored chromosome. Chromosomes
// without a fitness score never win: a missing score must not be reported as
// the best solution under either ordering. Returns false when nothing is
// scored.
func (p *Population[A]) BestChromosomeIndex(ordering Ordering) (int, bool) {
	best := -1
	for i, c := range p.Chromosomes {
		if !c.HasFitnessScore() {
			continue
		}
		if best < 0 || p.better(i, best, ordering) {
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// BestChromosome returns the best scored chromosome.
func (p *Population[A]) BestChromosome(ordering Ordering) (*chromosome.Chromosome[A], bool) {
	i, ok := p.BestChromosomeIndex(ordering)
	if !ok {
		return nil, false
	}
	return p.Chromosomes[i], true
}

// BestChromosomeIndices extracts the top-amount scored chromosome indices
// using partial selection, O(n) average case, ordered best-first. Identical
// gene content is not deduplicated.
//
// Known quirk, kept for compatibility with the partial-selection algorithm:
// when amount meets or exceeds the number of scored chromosomes, the result
// holds one fewer index than that count.
func (p *Population[A]) BestChromosomeIndices(amount int, ordering Ordering) []int {
	idxs := p.scoredIndices()
	return p.selectBest(idxs, amount, ordering)
}

func (p *Population[A]) scoredIndices() []int {
	idxs := make([]int, 0, len(p.Chromosomes))
	for i, c := range p.Chromosomes {
		if c.HasFitnessScore() {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (p *Population[A]) selectBest(idxs []int, amount int, ordering Ordering) []int {
	n := len(idxs)
	if n == 0 || amount <= 0 {
		return nil
	}
	if amount >= n {
		amount = n - 1
	}
	if amount == 0 {
		return nil
	}
	p.partialSelect(idxs, amount, ordering)
	top := idxs[:amount]
	sort.Slice(top, func(i, j int) bool { return p.better(top[i], top[j], ordering) })
	return top
}

// partialSelect rearranges idxs so its first k entries are the k best under
// the ordering, in unspecified order. Hoare-partition quickselect.
func (p *Population[A]) partialSelect(idxs []int, k int, ordering Ordering) {
	lo, hi := 0, len(idxs)-1
	for lo < hi {
		pivot := idxs[(lo+hi)/2]
		i, j := lo, hi
		for i <= j {
			for p.better(idxs[i], pivot, ordering) {
				i++
			}
			for p.better(pivot, idxs[j], ordering) {
				j--
			}
			if i <= j {
				idxs[i], idxs[j] = idxs[j], idxs[i]
				i++
				j--
			}
		}
		switch {
		case k <= j:
			hi = j
		case k >= i:
			lo = i
		default:
			return
		}
	}
}

// UniqueChromosomeIndices deduplicates by genes hash, keeping the first-seen
// index per hash value in ascending index order. Chromosomes without a hash
// are skipped entirely, so the result is empty when hashing is disabled.
func (p *Population[A]) UniqueChromosomeIndices() []int {
	seen := make(map[uint64]struct{}, len(p.Chromosomes))
	var idxs []int
	for i, c := range p.Chromosomes {
		if c.GenesHash == nil {
			continue
		}
		if _, dup := seen[*c.GenesHash]; dup {
			continue
		}
		seen[*c.GenesHash] = struct{}{}
		idxs = append(idxs, i)
	}
	return idxs
}

// BestUniqueChromosomeIndices combines hash deduplication with top-amount
// selection. The partial-selection quirk of BestChromosomeIndices applies to
// the deduplicated, scored count.
func (p *Population[A]) BestUniqueChromosomeIndices(amount int, ordering Ordering) []int {
	unique := p.UniqueChromosomeIndices()
	idxs := unique[:0:0]
	for _, i := range unique {
		if p.Chromosomes[i].HasFitnessScore() {
			idxs = append(idxs, i)
		}
	}
	return p.selectBest(idxs, amount, ordering)
}

// FitnessScoreCardinality estimates the number of distinct fitness scores.
// Returns false when no chromosome is scored, never a misleading zero.
func (p *Population[A]) FitnessScoreCardinality() (uint64, bool) {
	sketch := hyperloglog.New14()
	seen := false
	for _, c := range p.Chromosomes {
		if c.FitnessScore == nil {
			continue
		}
		sketch.InsertHash(gene.HashScore(*c.FitnessScore))
		seen = true
	}
	if !seen {
		return 0, false
	}
	return sketch.Estimate(), true
}

// GenesCardinality estimates the number of distinct gene contents via the
// genes hashes. Returns false when no chromosome carries a hash.
func (p *Population[A]) GenesCardinality() (uint64, bool) {
	sketch := hyperloglog.New14()
	seen := false
	for _, c := range p.Chromosomes {
		if c.GenesHash == nil {
			continue
		}
		sketch.InsertHash(*c.GenesHash)
		seen = true
	}
	if !seen {
		return 0, false
	}
	return sketch.Estimate(), true
}
