package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/evolve-go/internal/testutil"
	"github.com/XiaoConstantine/evolve-go/pkg/errors"
	"github.com/XiaoConstantine/evolve-go/pkg/fitness"
	"github.com/XiaoConstantine/evolve-go/pkg/genotype"
	"github.com/XiaoConstantine/evolve-go/pkg/population"
)

func TestNewHillClimbValidation(t *testing.T) {
	g := countOnesGenotype(t, 4)
	e := countTrueEvaluator(t)

	_, err := NewHillClimb(HillClimbConfig[bool]{Evaluator: e})
	assert.True(t, errors.IsCode(err, errors.InvalidInput))

	_, err = NewHillClimb(HillClimbConfig[bool]{Genotype: g})
	assert.True(t, errors.IsCode(err, errors.InvalidInput))

	s, err := NewHillClimb(HillClimbConfig[bool]{Genotype: g, Evaluator: e})
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestHillClimbCountOnes(t *testing.T) {
	g := countOnesGenotype(t, 10)
	s, err := NewHillClimb(HillClimbConfig[bool]{
		Genotype:  g,
		Evaluator: countTrueEvaluator(t),
		Ordering:  population.Maximize,
		RNG:       testutil.NewRand(17),
	})
	require.NoError(t, err)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	// count-ones has no local optima under bit-flip neighbourhoods: the
	// climb always ends at the global maximum
	assert.Equal(t, StopExhausted, result.Reason)
	assert.Equal(t, 10, result.BestFitness)
	assert.Equal(t, []bool{true, true, true, true, true, true, true, true, true, true}, result.BestGenes)
	assert.NotEmpty(t, result.RunID)
	// at most one improving sweep per missing bit, plus the final sweep
	assert.LessOrEqual(t, result.Generations, 11)
}

func TestHillClimbTargetFitness(t *testing.T) {
	g := countOnesGenotype(t, 10)
	target := 5
	s, err := NewHillClimb(HillClimbConfig[bool]{
		Genotype:      g,
		Evaluator:     countTrueEvaluator(t),
		Ordering:      population.Maximize,
		TargetFitness: &target,
		RNG:           testutil.NewRand(18),
	})
	require.NoError(t, err)

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopTargetReached, result.Reason)
	assert.GreaterOrEqual(t, result.BestFitness, 5)
}

func TestHillClimbScaleAdvance(t *testing.T) {
	// two-phase step schedule: coarse steps of 4, then steps of 1. The climb
	// reaches per-gene maxima at the coarse phase through clamping, finds no
	// improving neighbour, advances the phase, still finds none, and stops
	// exhausted at the true maximum.
	g, err := genotype.NewRange(genotype.RangeConfig[int]{
		GenesSize:    3,
		Min:          0,
		Max:          12,
		MutationType: genotype.StepScaledMutation(4, 1),
	})
	require.NoError(t, err)
	e, err := fitness.NewEvaluator(fitness.EvaluatorConfig[int]{Fitness: fitness.Func[int](testutil.Sum[int])})
	require.NoError(t, err)

	s, err := NewHillClimb(HillClimbConfig[int]{
		Genotype:  g,
		Evaluator: e,
		Ordering:  population.Maximize,
		RNG:       testutil.NewRand(19),
	})
	require.NoError(t, err)

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopExhausted, result.Reason)
	assert.Equal(t, 36, result.BestFitness)
	assert.Equal(t, []int{12, 12, 12}, result.BestGenes)
}

func TestHillClimbMinimize(t *testing.T) {
	g := countOnesGenotype(t, 6)
	s, err := NewHillClimb(HillClimbConfig[bool]{
		Genotype:  g,
		Evaluator: countTrueEvaluator(t),
		Ordering:  population.Minimize,
		RNG:       testutil.NewRand(20),
	})
	require.NoError(t, err)

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopExhausted, result.Reason)
	assert.Equal(t, 0, result.BestFitness)
	assert.Equal(t, make([]bool, 6), result.BestGenes)
}

func TestHillClimbOnMatrixGenotype(t *testing.T) {
	g, err := genotype.NewStaticMatrixRange(genotype.MatrixRangeConfig[int]{
		GenesSize:    3,
		Min:          0,
		Max:          10,
		Rows:         16,
		MutationType: genotype.StepMutation(1),
		GenesHashing: true,
	})
	require.NoError(t, err)
	e, err := fitness.NewEvaluator(fitness.EvaluatorConfig[int]{Fitness: fitness.Func[int](testutil.Sum[int])})
	require.NoError(t, err)

	s, err := NewHillClimb(HillClimbConfig[int]{
		Genotype:  g,
		Evaluator: e,
		Ordering:  population.Maximize,
		RNG:       testutil.NewRand(21),
	})
	require.NoError(t, err)

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopExhausted, result.Reason)
	assert.Equal(t, []int{10, 10, 10}, result.BestGenes)
	assert.Equal(t, 30, result.BestFitness)
}

func TestHillClimbUnscorableStart(t *testing.T) {
	g := countOnesGenotype(t, 4)
	never, err := fitness.NewEvaluator(fitness.EvaluatorConfig[bool]{
		Fitness: fitness.Func[bool](func(context.Context, []bool) (int, bool) { return 0, false }),
	})
	require.NoError(t, err)

	s, err := NewHillClimb(HillClimbConfig[bool]{Genotype: g, Evaluator: never})
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.EvaluationFailed))
}

func TestHillClimbCanceledContext(t *testing.T) {
	g := countOnesGenotype(t, 4)
	s, err := NewHillClimb(HillClimbConfig[bool]{Genotype: g, Evaluator: countTrueEvaluator(t)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.Canceled))
	assert.Equal(t, StopCanceled, result.Reason)
}
