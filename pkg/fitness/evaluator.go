package fitness

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/XiaoConstantine/evolve-go/pkg/cache"
	"github.com/XiaoConstantine/evolve-go/pkg/chromosome"
	"github.com/XiaoConstantine/evolve-go/pkg/errors"
	"github.com/XiaoConstantine/evolve-go/pkg/gene"
	"github.com/XiaoConstantine/evolve-go/pkg/genotype"
	"github.com/XiaoConstantine/evolve-go/pkg/logging"
	"github.com/XiaoConstantine/evolve-go/pkg/population"
)

// EvaluatorConfig configures the parallel population evaluator.
type EvaluatorConfig[A gene.Allele] struct {
	// Fitness is the objective function. Required.
	Fitness Fitness[A]

	// Concurrency bounds the evaluation workers. Zero means NumCPU.
	Concurrency int

	// Cache is the optional score store consulted by genes hash before
	// computing. It only helps on genotypes with hashing enabled.
	Cache cache.Cache

	// CacheNamespace isolates this objective's scores in a shared store.
	CacheNamespace string

	// CacheTTL is the per-entry lifetime; zero defers to the store default.
	CacheTTL time.Duration
}

// Evaluator scores the unscored chromosomes of a population in parallel.
// Gene data is only read and each worker writes to its own chromosome's
// score, so evaluation is safe to parallelize even over matrix genotypes.
type Evaluator[A gene.Allele] struct {
	fitness     Fitness[A]
	concurrency int
	cache       cache.Cache
	keys        *cache.KeyGenerator
	cacheTTL    time.Duration
}

// NewEvaluator creates an evaluator from the given configuration.
func NewEvaluator[A gene.Allele](cfg EvaluatorConfig[A]) (*Evaluator[A], error) {
	if cfg.Fitness == nil {
		return nil, errors.New(errors.InvalidInput, "evaluator requires a fitness function")
	}
	if cfg.Concurrency < 0 {
		return nil, errors.Newf(errors.InvalidInput, "evaluator concurrency must not be negative, got %d", cfg.Concurrency)
	}
	concurrency := cfg.Concurrency
	if concurrency == 0 {
		concurrency = runtime.NumCPU()
	}
	e := &Evaluator[A]{
		fitness:     cfg.Fitness,
		concurrency: concurrency,
		cache:       cfg.Cache,
		cacheTTL:    cfg.CacheTTL,
	}
	if cfg.Cache != nil {
		e.keys = cache.NewKeyGenerator(cfg.CacheNamespace)
	}
	return e, nil
}

// workerFitness hands each worker its own fitness instance when the
// objective declares per-call state.
func (e *Evaluator[A]) workerFitness() func() Fitness[A] {
	cloneable, ok := e.fitness.(Cloneable[A])
	if !ok {
		return func() Fitness[A] { return e.fitness }
	}
	var mu sync.Mutex
	return func() Fitness[A] {
		mu.Lock()
		defer mu.Unlock()
		return cloneable.CloneFitness()
	}
}

// EvaluatePopulation scores every chromosome that lacks a fitness score,
// returning the number of chromosomes put through the objective. Objectives
// implementing PopulationFitness are called once per worker batch instead of
// once per chromosome. Cached hits never reach the objective.
func (e *Evaluator[A]) EvaluatePopulation(ctx context.Context, g genotype.Genotype[A], pop *population.Population[A]) (int, error) {
	if err := errors.CheckContext(ctx); err != nil {
		return 0, err
	}

	pending := make([]*chromosome.Chromosome[A], 0, pop.Size())
	for _, c := range pop.Chromosomes {
		if !c.HasFitnessScore() {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	pending, hits := e.resolveFromCache(ctx, pending)
	if hits > 0 {
		logging.GetLogger().Debug(ctx, "fitness cache resolved %d of %d pending chromosomes", hits, hits+len(pending))
	}
	if len(pending) == 0 {
		return 0, nil
	}

	var calls int
	if _, ok := e.fitness.(PopulationFitness[A]); ok {
		calls = e.evaluateBatches(ctx, g, pending)
	} else {
		calls = e.evaluateEach(ctx, g, pending)
	}

	if err := errors.CheckContext(ctx); err != nil {
		return calls, err
	}

	e.storeToCache(ctx, pending)

	return calls, nil
}

// evaluateEach scores pending chromosomes one objective call at a time,
// strided across workers.
func (e *Evaluator[A]) evaluateEach(ctx context.Context, g genotype.Genotype[A], pending []*chromosome.Chromosome[A]) int {
	newFitness := e.workerFitness()
	calls := 0
	var callsMu sync.Mutex

	p := pool.New().WithMaxGoroutines(e.concurrency)
	workers := e.concurrency
	if workers > len(pending) {
		workers = len(pending)
	}
	for w := 0; w < workers; w++ {
		w := w
		p.Go(func() {
			f := newFitness()
			n := 0
			for i := w; i < len(pending); i += workers {
				if errors.CheckContext(ctx) != nil {
					break
				}
				c := pending[i]
				score, ok := f.CalculateForChromosome(ctx, g.Genes(c))
				n++
				if ok {
					c.SetFitnessScore(score)
				}
			}
			callsMu.Lock()
			calls += n
			callsMu.Unlock()
		})
	}
	p.Wait()
	return calls
}

// evaluateBatches hands each worker one contiguous chunk of the pending
// chromosomes and scores it with a single bulk objective call. The returned
// count stays in chromosomes, not bulk calls, so Result.Evaluations means
// the same thing on both paths.
func (e *Evaluator[A]) evaluateBatches(ctx context.Context, g genotype.Genotype[A], pending []*chromosome.Chromosome[A]) int {
	bulk := e.fitness.(PopulationFitness[A])
	newFitness := e.workerFitness()
	calls := 0
	var callsMu sync.Mutex

	workers := e.concurrency
	if workers > len(pending) {
		workers = len(pending)
	}
	chunk := (len(pending) + workers - 1) / workers

	p := pool.New().WithMaxGoroutines(e.concurrency)
	for start := 0; start < len(pending); start += chunk {
		end := start + chunk
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]
		p.Go(func() {
			if errors.CheckContext(ctx) != nil {
				return
			}
			f, ok := newFitness().(PopulationFitness[A])
			if !ok {
				f = bulk
			}
			genes := make([][]A, len(batch))
			for i, c := range batch {
				genes[i] = g.Genes(c)
			}
			scores := f.CalculateForPopulation(ctx, genes)
			if len(scores) != len(batch) {
				logging.GetLogger().Warn(ctx, "bulk fitness returned %d scores for %d sequences, batch dropped", len(scores), len(batch))
				return
			}
			for i, s := range scores {
				if s.OK {
					batch[i].SetFitnessScore(s.Value)
				}
			}
			callsMu.Lock()
			calls += len(batch)
			callsMu.Unlock()
		})
	}
	p.Wait()
	return calls
}

// EvaluateChromosome scores a single chromosome, bypassing the worker pool.
func (e *Evaluator[A]) EvaluateChromosome(ctx context.Context, g genotype.Genotype[A], c *chromosome.Chromosome[A]) (bool, error) {
	if err := errors.CheckContext(ctx); err != nil {
		return false, err
	}
	if c.HasFitnessScore() {
		return true, nil
	}
	if score, ok := e.lookupCached(ctx, c); ok {
		c.SetFitnessScore(score)
		return true, nil
	}
	score, ok := e.fitness.CalculateForChromosome(ctx, g.Genes(c))
	if !ok {
		return false, nil
	}
	c.SetFitnessScore(score)
	e.storeCached(ctx, c)
	return true, nil
}

// resolveFromCache fills scores for chromosomes whose genes hash is already
// in the store and returns the still-pending remainder.
func (e *Evaluator[A]) resolveFromCache(ctx context.Context, pending []*chromosome.Chromosome[A]) ([]*chromosome.Chromosome[A], int) {
	if e.cache == nil {
		return pending, 0
	}
	remaining := pending[:0]
	hits := 0
	for _, c := range pending {
		if score, ok := e.lookupCached(ctx, c); ok {
			c.SetFitnessScore(score)
			hits++
			continue
		}
		remaining = append(remaining, c)
	}
	return remaining, hits
}

func (e *Evaluator[A]) lookupCached(ctx context.Context, c *chromosome.Chromosome[A]) (int, bool) {
	if e.cache == nil || c.GenesHash == nil {
		return 0, false
	}
	value, found, err := e.cache.Get(ctx, e.keys.ScoreKey(*c.GenesHash))
	if err != nil {
		logging.GetLogger().Warn(ctx, "fitness cache lookup failed: %v", err)
		return 0, false
	}
	if !found {
		return 0, false
	}
	return cache.DecodeScore(value)
}

func (e *Evaluator[A]) storeToCache(ctx context.Context, evaluated []*chromosome.Chromosome[A]) {
	if e.cache == nil {
		return
	}
	for _, c := range evaluated {
		e.storeCached(ctx, c)
	}
}

func (e *Evaluator[A]) storeCached(ctx context.Context, c *chromosome.Chromosome[A]) {
	if e.cache == nil || c.GenesHash == nil || !c.HasFitnessScore() {
		return
	}
	key := e.keys.ScoreKey(*c.GenesHash)
	if err := e.cache.Set(ctx, key, cache.EncodeScore(*c.FitnessScore), e.cacheTTL); err != nil {
		logging.GetLogger().Warn(ctx, "fitness cache store failed: %v", err)
	}
}
