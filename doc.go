// Package evolve is a genetic-algorithm optimization toolkit for Go: given a
// fitness function and an encoding of candidate solutions, it searches for
// high- or low-fitness solutions using population-based stochastic search,
// steepest-ascent local search, or exhaustive enumeration.
//
// Key Components:
//
//   - Gene/Chromosome/Population (pkg/gene, pkg/chromosome, pkg/population):
//     the candidate-solution data model. Chromosomes carry derived state
//     (fitness score, content hash) that is invalidated and recomputed on
//     every gene change; populations answer best-index, deduplication and
//     cardinality queries.
//
//   - Genotype (pkg/genotype): the polymorphic encoding core. Variants:
//     * Binary: fixed-length boolean sequences
//     * Range: numeric genes in [min, max] with scheduled mutation phases
//     * List: categorical genes drawn from one allele list
//     * Unique: permutations, mutation by position swap
//     * MultiList / MultiRange / MultiUnique: per-position composites
//     * StaticMatrixRange / DynamicMatrixRange: chromosomes referencing
//     rows of a genotype-owned matrix for cache-local bulk evaluation
//
//   - Strategies (pkg/strategy): Evolve (tournament selection, optional
//     crossover, elitist survival, mass extinction on stagnation), HillClimb
//     (steepest ascent over the neighbouring population, schedule advance at
//     local optima) and Permutate (streamed exhaustive search over the lazy
//     permutation iterator).
//
//   - Fitness (pkg/fitness): the objective contract plus a bounded parallel
//     evaluator; scores can persist in an in-memory LRU or SQLite cache
//     (pkg/cache) keyed by the chromosome's genes hash.
//
// Simple Example:
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//	    "math/rand"
//
//	    "github.com/XiaoConstantine/evolve-go/pkg/fitness"
//	    "github.com/XiaoConstantine/evolve-go/pkg/genotype"
//	    "github.com/XiaoConstantine/evolve-go/pkg/population"
//	    "github.com/XiaoConstantine/evolve-go/pkg/strategy"
//	)
//
//	func main() {
//	    g, err := genotype.NewBinary(genotype.BinaryConfig{
//	        GenesSize:    10,
//	        GenesHashing: true,
//	    })
//	    if err != nil {
//	        log.Fatalf("failed to build genotype: %v", err)
//	    }
//
//	    countOnes := fitness.Func[bool](func(_ context.Context, genes []bool) (int, bool) {
//	        score := 0
//	        for _, b := range genes {
//	            if b {
//	                score++
//	            }
//	        }
//	        return score, true
//	    })
//	    eval, err := fitness.NewEvaluator(fitness.EvaluatorConfig[bool]{Fitness: countOnes})
//	    if err != nil {
//	        log.Fatalf("failed to build evaluator: %v", err)
//	    }
//
//	    target := 10
//	    search, err := strategy.NewEvolve(strategy.EvolveConfig[bool]{
//	        Genotype:      g,
//	        Evaluator:     eval,
//	        Ordering:      population.Maximize,
//	        Crossover:     strategy.CrossoverPoints,
//	        TargetFitness: &target,
//	        RNG:           rand.New(rand.NewSource(0)),
//	    })
//	    if err != nil {
//	        log.Fatalf("failed to build strategy: %v", err)
//	    }
//
//	    result, err := search.Run(context.Background())
//	    if err != nil {
//	        log.Fatalf("run failed: %v", err)
//	    }
//	    fmt.Printf("best fitness %d with genes %v\n", result.BestFitness, result.BestGenes)
//	}
//
// Deterministic runs: every stochastic operation takes an explicit
// *rand.Rand, so two runs with identically seeded sources produce identical
// gene sequences.
//
// For more examples and detailed documentation, visit:
// https://github.com/XiaoConstantine/evolve-go
//
// evolve-go is released under the MIT License.
package evolve
