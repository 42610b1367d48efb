package fitness

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/evolve-go/internal/testutil"
	"github.com/XiaoConstantine/evolve-go/pkg/cache"
	"github.com/XiaoConstantine/evolve-go/pkg/errors"
	"github.com/XiaoConstantine/evolve-go/pkg/genotype"
)

func newBinaryGenotype(t *testing.T, size int, hashing bool) *genotype.Binary {
	t.Helper()
	g, err := genotype.NewBinary(genotype.BinaryConfig{GenesSize: size, GenesHashing: hashing})
	require.NoError(t, err)
	return g
}

func TestNewEvaluatorValidation(t *testing.T) {
	_, err := NewEvaluator(EvaluatorConfig[bool]{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.InvalidInput))

	_, err = NewEvaluator(EvaluatorConfig[bool]{Fitness: Func[bool](testutil.CountTrue), Concurrency: -1})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.InvalidInput))

	e, err := NewEvaluator(EvaluatorConfig[bool]{Fitness: Func[bool](testutil.CountTrue)})
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestEvaluatePopulationScoresOnlyUnscored(t *testing.T) {
	g := newBinaryGenotype(t, 4, false)
	counting := testutil.NewCountingFitness(testutil.CountTrue)
	e, err := NewEvaluator(EvaluatorConfig[bool]{Fitness: counting, Concurrency: 2})
	require.NoError(t, err)

	pop := g.PopulationConstructor(6, testutil.NewRand(1))
	pop.Chromosomes[0].SetFitnessScore(99)
	pop.Chromosomes[3].SetFitnessScore(99)

	calls, err := e.EvaluatePopulation(context.Background(), g, pop)
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, counting.Calls())

	for _, c := range pop.Chromosomes {
		require.True(t, c.HasFitnessScore())
	}
	// pre-scored chromosomes keep their scores
	assert.Equal(t, 99, *pop.Chromosomes[0].FitnessScore)

	// a second pass finds nothing to do
	calls, err = e.EvaluatePopulation(context.Background(), g, pop)
	require.NoError(t, err)
	assert.Zero(t, calls)
	assert.Equal(t, 4, counting.Calls())
}

func TestEvaluatePopulationUnscorableStaysUnscored(t *testing.T) {
	g := newBinaryGenotype(t, 3, false)
	partial := Func[bool](func(_ context.Context, genes []bool) (int, bool) {
		if genes[0] {
			return 0, false
		}
		return 1, true
	})
	e, err := NewEvaluator(EvaluatorConfig[bool]{Fitness: partial, Concurrency: 1})
	require.NoError(t, err)

	pop := g.PopulationConstructor(0, testutil.NewRand(1))
	bad := g.ChromosomeConstructor([]bool{true, false, false})
	good := g.ChromosomeConstructor([]bool{false, false, false})
	pop.Push(bad)
	pop.Push(good)

	calls, err := e.EvaluatePopulation(context.Background(), g, pop)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.False(t, bad.HasFitnessScore())
	assert.True(t, good.HasFitnessScore())
}

func TestEvaluatePopulationCacheHits(t *testing.T) {
	g := newBinaryGenotype(t, 5, true)
	store, err := cache.NewMemoryCache(cache.Config{})
	require.NoError(t, err)
	defer store.Close()

	counting := testutil.NewCountingFitness(testutil.CountTrue)
	e, err := NewEvaluator(EvaluatorConfig[bool]{
		Fitness:        counting,
		Concurrency:    2,
		Cache:          store,
		CacheNamespace: "count-true",
	})
	require.NoError(t, err)

	genes := []bool{true, false, true, false, true}
	first := g.ChromosomeConstructor(genes)
	firstPop := g.PopulationConstructor(0, testutil.NewRand(1))
	firstPop.Push(first)

	calls, err := e.EvaluatePopulation(context.Background(), g, firstPop)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, *first.FitnessScore)

	// identical gene content resolves from the store without an objective call
	second := g.ChromosomeConstructor(genes)
	secondPop := g.PopulationConstructor(0, testutil.NewRand(1))
	secondPop.Push(second)

	calls, err = e.EvaluatePopulation(context.Background(), g, secondPop)
	require.NoError(t, err)
	assert.Zero(t, calls)
	assert.Equal(t, 1, counting.Calls())
	require.True(t, second.HasFitnessScore())
	assert.Equal(t, 3, *second.FitnessScore)
}

type bulkCountTrue struct {
	batches atomic.Int64
}

func (f *bulkCountTrue) CalculateForChromosome(_ context.Context, genes []bool) (int, bool) {
	n := 0
	for _, v := range genes {
		if v {
			n++
		}
	}
	return n, true
}

func (f *bulkCountTrue) CalculateForPopulation(ctx context.Context, genes [][]bool) []Score {
	f.batches.Add(1)
	scores := make([]Score, len(genes))
	for i, g := range genes {
		if len(g) > 0 && !g[0] {
			// sequences starting false are unscorable in this objective
			continue
		}
		v, ok := f.CalculateForChromosome(ctx, g)
		scores[i] = Score{Value: v, OK: ok}
	}
	return scores
}

func TestEvaluatePopulationPrefersBulkFitness(t *testing.T) {
	g := newBinaryGenotype(t, 3, false)
	bulk := &bulkCountTrue{}
	e, err := NewEvaluator(EvaluatorConfig[bool]{Fitness: bulk, Concurrency: 2})
	require.NoError(t, err)

	pop := g.PopulationConstructor(0, testutil.NewRand(4))
	for i := 0; i < 10; i++ {
		pop.Push(g.ChromosomeConstructor([]bool{true, i%2 == 0, true}))
	}

	calls, err := e.EvaluatePopulation(context.Background(), g, pop)
	require.NoError(t, err)

	// one batch per worker, counted in chromosomes
	assert.Equal(t, 10, calls)
	assert.Equal(t, int64(2), bulk.batches.Load())
	for _, c := range pop.Chromosomes {
		require.True(t, c.HasFitnessScore())
		assert.GreaterOrEqual(t, *c.FitnessScore, 2)
	}
}

func TestEvaluatePopulationBulkUnscorableStaysUnscored(t *testing.T) {
	g := newBinaryGenotype(t, 2, false)
	e, err := NewEvaluator(EvaluatorConfig[bool]{Fitness: &bulkCountTrue{}, Concurrency: 1})
	require.NoError(t, err)

	pop := g.PopulationConstructor(0, testutil.NewRand(5))
	bad := g.ChromosomeConstructor([]bool{false, true})
	good := g.ChromosomeConstructor([]bool{true, true})
	pop.Push(bad)
	pop.Push(good)

	calls, err := e.EvaluatePopulation(context.Background(), g, pop)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.False(t, bad.HasFitnessScore())
	require.True(t, good.HasFitnessScore())
	assert.Equal(t, 2, *good.FitnessScore)
}

type cloneCountingFitness struct {
	clones *atomic.Int64
}

func (f *cloneCountingFitness) CalculateForChromosome(_ context.Context, genes []bool) (int, bool) {
	return len(genes), true
}

func (f *cloneCountingFitness) CloneFitness() Fitness[bool] {
	f.clones.Add(1)
	return &cloneCountingFitness{clones: f.clones}
}

func TestEvaluatePopulationClonesStatefulFitness(t *testing.T) {
	g := newBinaryGenotype(t, 3, false)
	var clones atomic.Int64
	e, err := NewEvaluator(EvaluatorConfig[bool]{
		Fitness:     &cloneCountingFitness{clones: &clones},
		Concurrency: 3,
	})
	require.NoError(t, err)

	pop := g.PopulationConstructor(9, testutil.NewRand(2))
	_, err = e.EvaluatePopulation(context.Background(), g, pop)
	require.NoError(t, err)

	// one clone per worker
	assert.Equal(t, int64(3), clones.Load())
	for _, c := range pop.Chromosomes {
		assert.True(t, c.HasFitnessScore())
	}
}

func TestEvaluatePopulationCanceledContext(t *testing.T) {
	g := newBinaryGenotype(t, 3, false)
	e, err := NewEvaluator(EvaluatorConfig[bool]{Fitness: Func[bool](testutil.CountTrue)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pop := g.PopulationConstructor(4, testutil.NewRand(3))
	_, err = e.EvaluatePopulation(ctx, g, pop)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.Canceled))
}

func TestEvaluateChromosome(t *testing.T) {
	g := newBinaryGenotype(t, 4, true)
	counting := testutil.NewCountingFitness(testutil.CountTrue)
	store, err := cache.NewMemoryCache(cache.Config{})
	require.NoError(t, err)
	defer store.Close()

	e, err := NewEvaluator(EvaluatorConfig[bool]{Fitness: counting, Cache: store})
	require.NoError(t, err)

	c := g.ChromosomeConstructor([]bool{true, true, false, false})
	ok, err := e.EvaluateChromosome(context.Background(), g, c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, *c.FitnessScore)
	assert.Equal(t, 1, counting.Calls())

	// already scored short-circuits
	ok, err = e.EvaluateChromosome(context.Background(), g, c)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, counting.Calls())

	// same genes, fresh chromosome: resolved from the store
	twin := g.ChromosomeConstructor([]bool{true, true, false, false})
	ok, err = e.EvaluateChromosome(context.Background(), g, twin)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, counting.Calls())
}

func TestEvaluateChromosomeUnscorable(t *testing.T) {
	g := newBinaryGenotype(t, 2, false)
	never := Func[bool](func(context.Context, []bool) (int, bool) { return 0, false })
	e, err := NewEvaluator(EvaluatorConfig[bool]{Fitness: never})
	require.NoError(t, err)

	c := g.ChromosomeConstructor([]bool{true, false})
	ok, err := e.EvaluateChromosome(context.Background(), g, c)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, c.HasFitnessScore())
}
