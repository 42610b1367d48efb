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

// HillClimbConfig configures a steepest-ascent local search run.
type HillClimbConfig[A gene.Allele] struct {
	// Genotype supplies construction and neighbour enumeration. Required.
	Genotype genotype.HillClimbGenotype[A]

	// Evaluator scores neighbouring populations. Required.
	Evaluator *fitness.Evaluator[A]

	Ordering population.Ordering

	// MaxGenerations bounds the number of neighbourhood sweeps. Default 1000.
	MaxGenerations int

	// TargetFitness stops the climb once the incumbent meets it.
	TargetFitness *int

	// RNG is the run's random source; nil means time-seeded.
	RNG *rand.Rand
}

// HillClimb is the steepest-ascent local search strategy: evaluate every
// neighbour of the incumbent, move to the best improving one, and advance
// the mutation schedule's scale index when no neighbour improves, shrinking
// the neighbourhood radius phase by phase. The climb terminates when the
// last phase has no improving neighbour.
type HillClimb[A gene.Allele] struct {
	cfg HillClimbConfig[A]
}

// NewHillClimb validates the configuration and builds the strategy.
func NewHillClimb[A gene.Allele](cfg HillClimbConfig[A]) (*HillClimb[A], error) {
	if cfg.Genotype == nil {
		return nil, errors.New(errors.InvalidInput, "hill climb requires a genotype")
	}
	if cfg.Evaluator == nil {
		return nil, errors.New(errors.InvalidInput, "hill climb requires an evaluator")
	}
	if cfg.MaxGenerations == 0 {
		cfg.MaxGenerations = 1000
	}
	return &HillClimb[A]{cfg: cfg}, nil
}

// Run executes the climb from a random start.
func (h *HillClimb[A]) Run(ctx context.Context) (*Result[A], error) {
	start := time.Now()
	ctx, runID := newRun(ctx)
	log := logging.GetLogger()
	g := h.cfg.Genotype
	rng := defaultRNG(h.cfg.RNG)

	if cm, ok := g.(genotype.ChromosomeManager[A]); ok {
		cm.SetupChromosomes()
		defer cm.CleanupChromosomes()
	}

	result := &Result[A]{RunID: runID, Reason: StopMaxGenerations}

	current := g.ChromosomeConstructorRandom(rng)
	ok, err := h.cfg.Evaluator.EvaluateChromosome(ctx, g, current)
	result.Evaluations++
	if err != nil {
		result.Reason = StopCanceled
		result.Duration = time.Since(start)
		return result, err
	}
	if !ok {
		result.Duration = time.Since(start)
		return result, errors.New(errors.EvaluationFailed, "hill climb start chromosome is not scorable")
	}
	g.SaveBestGenes(current)
	bestScore := *current.FitnessScore
	log.Info(ctx, "hill climb started: neighbourhood=%s ordering=%s",
		g.NeighbouringPopulationSize().String(), h.cfg.Ordering)

	scaleIndex := 0

	for generation := 1; generation <= h.cfg.MaxGenerations; generation++ {
		gctx := logging.WithGeneration(ctx, generation)
		if err := errors.CheckContext(ctx); err != nil {
			result.Reason = StopCanceled
			h.finish(result, g, bestScore)
			result.Duration = time.Since(start)
			return result, err
		}
		result.Generations = generation

		neighbours := population.New[A](int(g.NeighbouringPopulationSize().Int64()))
		g.FillNeighbouringPopulation(current, neighbours, scaleIndex, rng)
		calls, err := h.cfg.Evaluator.EvaluatePopulation(gctx, g, neighbours)
		result.Evaluations += calls
		if err != nil {
			for _, c := range neighbours.Chromosomes {
				g.FreeChromosome(c)
			}
			result.Reason = StopCanceled
			h.finish(result, g, bestScore)
			result.Duration = time.Since(start)
			return result, err
		}

		moved := false
		if i, found := neighbours.BestChromosomeIndex(h.cfg.Ordering); found {
			best := neighbours.Chromosomes[i]
			if betterScore(*best.FitnessScore, bestScore, h.cfg.Ordering) {
				g.FreeChromosome(current)
				current = best
				bestScore = *best.FitnessScore
				g.SaveBestGenes(current)
				moved = true
				log.Debug(gctx, "moved to neighbour: fitness=%d scale_index=%d", bestScore, scaleIndex)
			}
		}
		for _, c := range neighbours.Chromosomes {
			if c != current {
				g.FreeChromosome(c)
			}
		}

		if reachedTarget(bestScore, h.cfg.TargetFitness, h.cfg.Ordering) {
			result.Reason = StopTargetReached
			break
		}
		if !moved {
			if scaleIndex < g.MaxScaleIndex() {
				scaleIndex++
				log.Debug(gctx, "local optimum, scale advance: scale_index=%d", scaleIndex)
				continue
			}
			result.Reason = StopExhausted
			break
		}
	}

	g.FreeChromosome(current)
	h.finish(result, g, bestScore)
	result.Duration = time.Since(start)
	log.Info(ctx, "hill climb finished: reason=%s generations=%d evaluations=%d best=%d",
		result.Reason, result.Generations, result.Evaluations, result.BestFitness)
	return result, nil
}

func (h *HillClimb[A]) finish(result *Result[A], g genotype.HillClimbGenotype[A], bestScore int) {
	result.BestGenes = gene.CloneGenes(g.BestGenes())
	result.BestFitness = bestScore
}
