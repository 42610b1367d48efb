// Package testutil holds test helpers shared across packages: deterministic
// random sources and ready-made fitness functions.
package testutil

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/XiaoConstantine/evolve-go/pkg/gene"
)

// NewRand returns a deterministic random source for tests.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// CountTrue scores a boolean gene sequence by its number of true genes.
// The canonical maximization objective for binary genotypes.
func CountTrue(_ context.Context, genes []bool) (int, bool) {
	count := 0
	for _, g := range genes {
		if g {
			count++
		}
	}
	return count, true
}

// Sum scores a numeric gene sequence by the truncated sum of its genes.
func Sum[T gene.NumericAllele](_ context.Context, genes []T) (int, bool) {
	var total T
	for _, g := range genes {
		total += g
	}
	return int(total), true
}

// StaticFitness always returns the same score; useful for exercising
// selection paths where fitness content is irrelevant.
func StaticFitness[A gene.Allele](score int) func(context.Context, []A) (int, bool) {
	return func(context.Context, []A) (int, bool) {
		return score, true
	}
}

// CountingFitness wraps an objective and counts its invocations, for
// asserting cache hits and evaluation bounds. Safe for concurrent use.
type CountingFitness[A gene.Allele] struct {
	fn    func(context.Context, []A) (int, bool)
	calls atomic.Int64

	mu   sync.Mutex
	seen [][]A
}

// NewCountingFitness wraps fn.
func NewCountingFitness[A gene.Allele](fn func(context.Context, []A) (int, bool)) *CountingFitness[A] {
	return &CountingFitness[A]{fn: fn}
}

func (f *CountingFitness[A]) CalculateForChromosome(ctx context.Context, genes []A) (int, bool) {
	f.calls.Add(1)
	f.mu.Lock()
	f.seen = append(f.seen, gene.CloneGenes(genes))
	f.mu.Unlock()
	return f.fn(ctx, genes)
}

// Calls reports how many times the objective ran.
func (f *CountingFitness[A]) Calls() int {
	return int(f.calls.Load())
}

// Seen returns a copy of every gene sequence the objective received.
func (f *CountingFitness[A]) Seen() [][]A {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]A, len(f.seen))
	copy(out, f.seen)
	return out
}
