// Package fitness defines the objective-function contract and the parallel
// population evaluator. Fitness is deliberately outside the genotype core:
// genotypes know how to vary gene sequences, fitness knows what a gene
// sequence is worth.
package fitness

import (
	"context"

	"github.com/XiaoConstantine/evolve-go/pkg/gene"
)

// Fitness scores gene sequences. Implementations receive a read-only gene
// view that may alias genotype-owned storage; they must not retain or
// mutate it. The boolean reports whether the sequence is scorable at all:
// unscorable chromosomes stay unscored and never reach selection.
type Fitness[A gene.Allele] interface {
	CalculateForChromosome(ctx context.Context, genes []A) (int, bool)
}

// Score is one outcome of a bulk evaluation. OK false marks the sequence as
// unscorable, mirroring the boolean of CalculateForChromosome.
type Score struct {
	Value int
	OK    bool
}

// PopulationFitness marks objectives that score whole batches in one call,
// for example vectorized objectives over matrix-backed gene rows. The result
// must hold exactly one Score per input sequence, index-aligned. The
// evaluator prefers this path whenever the objective implements it.
type PopulationFitness[A gene.Allele] interface {
	Fitness[A]

	CalculateForPopulation(ctx context.Context, genes [][]A) []Score
}

// Cloneable marks fitness functions carrying per-call mutable state, for
// example a scratch buffer the objective writes into. The evaluator gives
// every worker its own clone so implementations need no internal locking.
type Cloneable[A gene.Allele] interface {
	Fitness[A]

	CloneFitness() Fitness[A]
}

// Func adapts a plain function to the Fitness interface.
type Func[A gene.Allele] func(ctx context.Context, genes []A) (int, bool)

func (f Func[A]) CalculateForChromosome(ctx context.Context, genes []A) (int, bool) {
	return f(ctx, genes)
}
