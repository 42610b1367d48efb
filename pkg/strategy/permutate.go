package strategy

import (
	"context"
	"math/rand"
	"time"

	"github.com/XiaoConstantine/evolve-go/pkg/errors"
	"github.com/XiaoConstantine/evolve-go/pkg/fitness"
	"github.com/XiaoConstantine/evolve-go/pkg/gene"
	"github.com/XiaoConstantine/evolve-go/pkg/genotype"
	"github.com/XiaoConstantine/evolve-go/pkg/logging"
	"github.com/XiaoConstantine/evolve-go/pkg/population"
)

// PermutateConfig configures an exhaustive enumeration run.
type PermutateConfig[A gene.Allele] struct {
	// Genotype supplies the lazy permutation iterator. Required.
	Genotype genotype.PermutateGenotype[A]

	// Evaluator scores permutations as they stream. Required.
	Evaluator *fitness.Evaluator[A]

	Ordering population.Ordering

	// ScaleIndex selects the discretization phase for Range-family
	// genotypes; ignored by genotypes with a single phase.
	ScaleIndex int

	// RNG seeds the enumeration's starting chromosome; nil means
	// time-seeded.
	RNG *rand.Rand
}

// Permutate is the exhaustive search strategy: every reachable chromosome
// is streamed through the genotype's lazy iterator and scored, never
// materializing the full search space. Only viable for small or coarsely
// discretized spaces; ChromosomePermutationsSize tells callers what they
// are in for.
type Permutate[A gene.Allele] struct {
	cfg PermutateConfig[A]
}

// NewPermutate validates the configuration and builds the strategy. The
// permutation capability gate is checked here: a Range-family genotype
// under a Random mutation type has no even discretization to enumerate.
func NewPermutate[A gene.Allele](cfg PermutateConfig[A]) (*Permutate[A], error) {
	if cfg.Genotype == nil {
		return nil, errors.New(errors.InvalidInput, "permutate requires a genotype")
	}
	if cfg.Evaluator == nil {
		return nil, errors.New(errors.InvalidInput, "permutate requires an evaluator")
	}
	if !cfg.Genotype.MutationTypeAllowsPermutation() {
		return nil, errors.New(errors.UnsupportedOperation,
			"genotype's mutation type does not define a finite permutation space")
	}
	if cfg.ScaleIndex < 0 || cfg.ScaleIndex > cfg.Genotype.MaxScaleIndex() {
		return nil, errors.Newf(errors.InvalidInput,
			"permutate scale index %d outside schedule [0, %d]", cfg.ScaleIndex, cfg.Genotype.MaxScaleIndex())
	}
	return &Permutate[A]{cfg: cfg}, nil
}

// Run streams and scores every permutation. Result.Generations counts the
// permutations consumed; on cancellation the incumbent so far is returned
// with StopCanceled.
func (p *Permutate[A]) Run(ctx context.Context) (*Result[A], error) {
	start := time.Now()
	ctx, runID := newRun(ctx)
	log := logging.GetLogger()
	g := p.cfg.Genotype
	rng := defaultRNG(p.cfg.RNG)

	if cm, ok := g.(genotype.ChromosomeManager[A]); ok {
		cm.SetupChromosomes()
		defer cm.CleanupChromosomes()
	}

	result := &Result[A]{RunID: runID, Reason: StopExhausted}
	log.Info(ctx, "permutate started: permutations=%s ordering=%s",
		g.ChromosomePermutationsSize(p.cfg.ScaleIndex).String(), p.cfg.Ordering)

	seed := g.ChromosomeConstructorRandom(rng)
	bestScore := 0
	haveBest := false
	var runErr error

	for c := range g.ChromosomePermutationsIter(seed, p.cfg.ScaleIndex) {
		if err := errors.CheckContext(ctx); err != nil {
			g.FreeChromosome(c)
			result.Reason = StopCanceled
			runErr = err
			break
		}
		result.Generations++

		scored, err := p.cfg.Evaluator.EvaluateChromosome(ctx, g, c)
		result.Evaluations++
		if err != nil {
			g.FreeChromosome(c)
			result.Reason = StopCanceled
			runErr = err
			break
		}
		if scored && (!haveBest || betterScore(*c.FitnessScore, bestScore, p.cfg.Ordering)) {
			bestScore = *c.FitnessScore
			haveBest = true
			g.SaveBestGenes(c)
		}
		g.FreeChromosome(c)
	}
	g.FreeChromosome(seed)

	if haveBest {
		result.BestGenes = gene.CloneGenes(g.BestGenes())
		result.BestFitness = bestScore
	}
	result.Duration = time.Since(start)
	log.Info(ctx, "permutate finished: reason=%s permutations=%d best=%d",
		result.Reason, result.Generations, result.BestFitness)
	return result, runErr
}
