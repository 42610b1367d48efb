// Package strategy implements the outer search loops driving a genotype
// through its contract: population-based stochastic search (Evolve),
// steepest-ascent local search (HillClimb) and exhaustive enumeration
// (Permutate). The loops own termination, generation counting and
// scale-index advancement; all gene-level semantics stay in pkg/genotype.
package strategy

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/XiaoConstantine/evolve-go/pkg/gene"
	"github.com/XiaoConstantine/evolve-go/pkg/logging"
	"github.com/XiaoConstantine/evolve-go/pkg/population"
)

// StopReason names why a run terminated.
type StopReason string

const (
	StopTargetReached  StopReason = "target_reached"
	StopMaxGenerations StopReason = "max_generations"
	StopStale          StopReason = "stale"
	StopExhausted      StopReason = "exhausted"
	StopCanceled       StopReason = "canceled"
)

// Result reports the outcome of one strategy run.
type Result[A gene.Allele] struct {
	// RunID is the identifier every log line of the run carried.
	RunID string

	// BestGenes is the incumbent gene sequence at termination.
	BestGenes []A

	// BestFitness is the incumbent's score.
	BestFitness int

	// Generations counts completed generations; for Permutate it counts
	// evaluated permutations instead.
	Generations int

	// Evaluations counts objective calls, cache hits excluded.
	Evaluations int

	Reason   StopReason
	Duration time.Duration
}

// betterScore reports whether a strictly beats b under the ordering.
func betterScore(a, b int, ordering population.Ordering) bool {
	if ordering == population.Minimize {
		return a < b
	}
	return a > b
}

// reachedTarget reports whether score meets or beats the target.
func reachedTarget(score int, target *int, ordering population.Ordering) bool {
	if target == nil {
		return false
	}
	if ordering == population.Minimize {
		return score <= *target
	}
	return score >= *target
}

// newRun allocates a run id, attaches it to the context and returns both.
func newRun(ctx context.Context) (context.Context, string) {
	runID := uuid.New().String()
	return logging.WithRunID(ctx, runID), runID
}

// defaultRNG returns rng, or a time-seeded source when nil.
func defaultRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
