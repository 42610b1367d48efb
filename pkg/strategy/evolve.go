package strategy

import (
	"context"
	"math/rand"
	"time"

	"github.com/XiaoConstantine/evolve-go/pkg/chromosome"
	"github.com/XiaoConstantine/evolve-go/pkg/errors"
	"github.com/XiaoConstantine/evolve-go/pkg/fitness"
	"github.com/XiaoConstantine/evolve-go/pkg/gene"
	"github.com/XiaoConstantine/evolve-go/pkg/genotype"
	"github.com/XiaoConstantine/evolve-go/pkg/logging"
	"github.com/XiaoConstantine/evolve-go/pkg/population"
)

// CrossoverKind selects the recombination operator of an Evolve run.
type CrossoverKind int

const (
	// CrossoverNone disables recombination; offspring vary by mutation only.
	CrossoverNone CrossoverKind = iota
	// CrossoverGenes exchanges individual sampled gene positions.
	CrossoverGenes
	// CrossoverPoints exchanges contiguous segments between sorted points.
	CrossoverPoints
)

// ScaleAdvance selects how the mutation schedule's scale index moves.
type ScaleAdvance int

const (
	// ScaleOnStagnation advances one phase after every ScaleStaleGenerations
	// generations without improvement, clamped at the last phase. The stale
	// counter resets only on improvement, so a long stagnation advances the
	// phase again every ScaleStaleGenerations generations until the schedule
	// is exhausted. Matches the Scaled mutation kinds.
	ScaleOnStagnation ScaleAdvance = iota
	// ScalePerGeneration cycles through the schedule once per generation.
	// Matches the Generational mutation kinds.
	ScalePerGeneration
)

// EvolveConfig configures a population-based stochastic search run.
type EvolveConfig[A gene.Allele] struct {
	// Genotype supplies construction, mutation and crossover. Required.
	Genotype genotype.EvolveGenotype[A]

	// Evaluator scores populations. Required.
	Evaluator *fitness.Evaluator[A]

	Ordering population.Ordering

	// PopulationSize is the surviving population per generation. Default 100.
	PopulationSize int

	// Elitism is the number of best chromosomes carried over unchanged each
	// generation. Default 1.
	Elitism int

	// TournamentSize is the selection tournament arity. Default 3.
	TournamentSize int

	// Crossover picks the recombination operator. The builder rejects a
	// recombining config when the genotype's capability query denies it.
	Crossover CrossoverKind

	// NumberOfCrossovers is the sampled position or point count. Default 1.
	NumberOfCrossovers int

	// NumberOfMutations is the gene positions mutated per offspring.
	// Default 1.
	NumberOfMutations int

	// AllowDuplicateMutations draws mutation positions with replacement.
	AllowDuplicateMutations bool

	// ScaleAdvance selects the schedule traversal mode.
	ScaleAdvance ScaleAdvance

	// ScaleStaleGenerations is the stagnation span before a scale advance
	// under ScaleOnStagnation. Default 5.
	ScaleStaleGenerations int

	// MassExtinctionStaleGenerations re-randomizes everything but the elites
	// after this many stale generations. Zero disables.
	MassExtinctionStaleGenerations int

	// MaxGenerations bounds the run. Default 1000.
	MaxGenerations int

	// MaxStaleGenerations stops the run after this many generations without
	// improvement. Zero disables.
	MaxStaleGenerations int

	// TargetFitness stops the run once the incumbent meets it.
	TargetFitness *int

	// RNG is the run's random source; nil means time-seeded.
	RNG *rand.Rand
}

// Evolve is the population-based stochastic search strategy: tournament
// selection, optional crossover, mutation, elitist survival.
type Evolve[A gene.Allele] struct {
	cfg EvolveConfig[A]
}

// NewEvolve validates the configuration, merges defaults and builds the
// strategy. Crossover-bearing configs on genotypes whose capability queries
// deny the operator are rejected here, not discovered mid-run.
func NewEvolve[A gene.Allele](cfg EvolveConfig[A]) (*Evolve[A], error) {
	if cfg.Genotype == nil {
		return nil, errors.New(errors.InvalidInput, "evolve requires a genotype")
	}
	if cfg.Evaluator == nil {
		return nil, errors.New(errors.InvalidInput, "evolve requires an evaluator")
	}
	if cfg.PopulationSize == 0 {
		cfg.PopulationSize = 100
	}
	if cfg.PopulationSize < 2 {
		return nil, errors.Newf(errors.InvalidInput, "evolve population size must be at least 2, got %d", cfg.PopulationSize)
	}
	if cfg.Elitism == 0 {
		cfg.Elitism = 1
	}
	if cfg.Elitism < 0 || cfg.Elitism >= cfg.PopulationSize {
		return nil, errors.Newf(errors.InvalidInput,
			"evolve elitism must lie in [0, population size), got %d for size %d", cfg.Elitism, cfg.PopulationSize)
	}
	if cfg.TournamentSize == 0 {
		cfg.TournamentSize = 3
	}
	if cfg.TournamentSize < 1 {
		return nil, errors.Newf(errors.InvalidInput, "evolve tournament size must be positive, got %d", cfg.TournamentSize)
	}
	if cfg.NumberOfCrossovers == 0 {
		cfg.NumberOfCrossovers = 1
	}
	if cfg.NumberOfMutations == 0 {
		cfg.NumberOfMutations = 1
	}
	if cfg.ScaleStaleGenerations == 0 {
		cfg.ScaleStaleGenerations = 5
	}
	if cfg.MaxGenerations == 0 {
		cfg.MaxGenerations = 1000
	}
	switch cfg.Crossover {
	case CrossoverGenes:
		if !cfg.Genotype.HasCrossoverIndexes() {
			return nil, errors.New(errors.ValidationFailed, "genotype does not support gene crossover")
		}
	case CrossoverPoints:
		if !cfg.Genotype.HasCrossoverPoints() {
			return nil, errors.New(errors.ValidationFailed, "genotype does not support point crossover")
		}
	}
	return &Evolve[A]{cfg: cfg}, nil
}

// Run executes the search until a termination condition fires. A canceled
// context still yields the incumbent found so far, with StopCanceled.
func (e *Evolve[A]) Run(ctx context.Context) (*Result[A], error) {
	start := time.Now()
	ctx, runID := newRun(ctx)
	log := logging.GetLogger()
	g := e.cfg.Genotype
	rng := defaultRNG(e.cfg.RNG)

	if cm, ok := g.(genotype.ChromosomeManager[A]); ok {
		cm.SetupChromosomes()
		defer cm.CleanupChromosomes()
	}

	result := &Result[A]{RunID: runID, Reason: StopMaxGenerations}

	pop := g.PopulationConstructor(e.cfg.PopulationSize, rng)
	calls, err := e.cfg.Evaluator.EvaluatePopulation(ctx, g, pop)
	result.Evaluations += calls
	if err != nil {
		result.Reason = StopCanceled
		result.Duration = time.Since(start)
		return result, err
	}

	bestScore := 0
	haveBest := false
	if c, ok := pop.BestChromosome(e.cfg.Ordering); ok {
		bestScore = *c.FitnessScore
		haveBest = true
		g.SaveBestGenes(c)
	}
	log.Info(ctx, "evolve started: population=%d ordering=%s", e.cfg.PopulationSize, e.cfg.Ordering)

	scaleIndex := 0
	stale := 0

	for generation := 1; generation <= e.cfg.MaxGenerations; generation++ {
		gctx := logging.WithGeneration(ctx, generation)
		if err := errors.CheckContext(ctx); err != nil {
			result.Reason = StopCanceled
			result.Duration = time.Since(start)
			e.finish(result, g, bestScore, haveBest)
			return result, err
		}
		result.Generations = generation

		if e.cfg.ScaleAdvance == ScalePerGeneration {
			// first generation runs phase 0, then the schedule cycles
			scaleIndex = (generation - 1) % (g.MaxScaleIndex() + 1)
		}

		pop, calls, err = e.step(gctx, pop, scaleIndex, rng)
		result.Evaluations += calls
		if err != nil {
			result.Reason = StopCanceled
			result.Duration = time.Since(start)
			e.finish(result, g, bestScore, haveBest)
			return result, err
		}

		improved := false
		if c, ok := pop.BestChromosome(e.cfg.Ordering); ok {
			if !haveBest || betterScore(*c.FitnessScore, bestScore, e.cfg.Ordering) {
				bestScore = *c.FitnessScore
				haveBest = true
				improved = true
				g.SaveBestGenes(c)
				log.Debug(gctx, "new incumbent: fitness=%d", bestScore)
			}
		}
		if improved {
			stale = 0
		} else {
			stale++
			if e.cfg.ScaleAdvance == ScaleOnStagnation &&
				stale%e.cfg.ScaleStaleGenerations == 0 && scaleIndex < g.MaxScaleIndex() {
				scaleIndex++
				log.Debug(gctx, "stagnation scale advance: scale_index=%d", scaleIndex)
			}
		}

		if haveBest && reachedTarget(bestScore, e.cfg.TargetFitness, e.cfg.Ordering) {
			result.Reason = StopTargetReached
			break
		}
		if e.cfg.MaxStaleGenerations > 0 && stale >= e.cfg.MaxStaleGenerations {
			result.Reason = StopStale
			break
		}
		if e.cfg.MassExtinctionStaleGenerations > 0 && stale >= e.cfg.MassExtinctionStaleGenerations {
			pop = e.massExtinction(gctx, pop, rng)
			calls, err = e.cfg.Evaluator.EvaluatePopulation(gctx, g, pop)
			result.Evaluations += calls
			if err != nil {
				result.Reason = StopCanceled
				result.Duration = time.Since(start)
				e.finish(result, g, bestScore, haveBest)
				return result, err
			}
			stale = 0
		}
	}

	e.finish(result, g, bestScore, haveBest)
	result.Duration = time.Since(start)
	log.Info(ctx, "evolve finished: reason=%s generations=%d evaluations=%d best=%d",
		result.Reason, result.Generations, result.Evaluations, result.BestFitness)
	return result, nil
}

func (e *Evolve[A]) finish(result *Result[A], g genotype.EvolveGenotype[A], bestScore int, haveBest bool) {
	if haveBest {
		result.BestGenes = gene.CloneGenes(g.BestGenes())
		result.BestFitness = bestScore
	}
}

// step produces the next generation: elites survive unchanged, the rest of
// the population is replaced by mutated (and optionally recombined)
// tournament offspring. Dropped chromosomes are returned to the genotype.
func (e *Evolve[A]) step(ctx context.Context, pop *population.Population[A], scaleIndex int, rng *rand.Rand) (*population.Population[A], int, error) {
	g := e.cfg.Genotype

	next := population.New[A](e.cfg.PopulationSize)
	elite := make(map[int]bool, e.cfg.Elitism)
	for _, i := range pop.BestChromosomeIndices(e.cfg.Elitism, e.cfg.Ordering) {
		elite[i] = true
		c := pop.Chromosomes[i]
		c.IncrementAge()
		next.Push(c)
	}

	offspring := population.New[A](e.cfg.PopulationSize - next.Size())
	for offspring.Size() < e.cfg.PopulationSize-next.Size() {
		father := g.CloneChromosome(pop.Chromosomes[e.tournament(pop, rng)])
		mother := g.CloneChromosome(pop.Chromosomes[e.tournament(pop, rng)])

		switch e.cfg.Crossover {
		case CrossoverGenes:
			g.CrossoverChromosomeGenes(e.cfg.NumberOfCrossovers, e.cfg.AllowDuplicateMutations, father, mother, rng)
		case CrossoverPoints:
			g.CrossoverChromosomePoints(e.cfg.NumberOfCrossovers, e.cfg.AllowDuplicateMutations, father, mother, rng)
		}

		for _, c := range [2]*chromosome.Chromosome[A]{father, mother} {
			g.MutateChromosomeGenes(e.cfg.NumberOfMutations, e.cfg.AllowDuplicateMutations, c, scaleIndex, rng)
			c.MarkOffspring()
			if offspring.Size() < e.cfg.PopulationSize-next.Size() {
				offspring.Push(c)
			} else {
				g.FreeChromosome(c)
			}
		}
	}

	calls, err := e.cfg.Evaluator.EvaluatePopulation(ctx, g, offspring)
	if err != nil {
		return pop, calls, err
	}

	for _, c := range offspring.Chromosomes {
		next.Push(c)
	}
	for i, c := range pop.Chromosomes {
		if !elite[i] {
			g.FreeChromosome(c)
		}
	}
	return next, calls, nil
}

// tournament picks the best of TournamentSize uniformly drawn chromosomes,
// falling back to a uniform pick when no drawn chromosome is scored.
func (e *Evolve[A]) tournament(pop *population.Population[A], rng *rand.Rand) int {
	best := -1
	for i := 0; i < e.cfg.TournamentSize; i++ {
		j := rng.Intn(pop.Size())
		c := pop.Chromosomes[j]
		if !c.HasFitnessScore() {
			continue
		}
		if best < 0 || betterScore(*c.FitnessScore, *pop.Chromosomes[best].FitnessScore, e.cfg.Ordering) {
			best = j
		}
	}
	if best < 0 {
		return rng.Intn(pop.Size())
	}
	return best
}

// massExtinction keeps the elites and replaces everything else with fresh
// random chromosomes, restoring diversity after prolonged stagnation.
func (e *Evolve[A]) massExtinction(ctx context.Context, pop *population.Population[A], rng *rand.Rand) *population.Population[A] {
	g := e.cfg.Genotype
	logging.GetLogger().Info(ctx, "mass extinction: replacing %d of %d chromosomes",
		pop.Size()-e.cfg.Elitism, pop.Size())

	next := population.New[A](e.cfg.PopulationSize)
	elite := make(map[int]bool, e.cfg.Elitism)
	for _, i := range pop.BestChromosomeIndices(e.cfg.Elitism, e.cfg.Ordering) {
		elite[i] = true
		next.Push(pop.Chromosomes[i])
	}
	for i, c := range pop.Chromosomes {
		if !elite[i] {
			g.FreeChromosome(c)
		}
	}
	for next.Size() < e.cfg.PopulationSize {
		c := g.ChromosomeConstructorRandom(rng)
		c.MarkOffspring()
		next.Push(c)
	}
	return next
}
