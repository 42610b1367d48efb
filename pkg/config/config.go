// Package config loads and validates the YAML run configuration: which
// strategy to run, its termination and operator parameters, the evaluator's
// concurrency and cache settings, and logging severity. Genotype and fitness
// construction stay in code; the file covers everything that is a plain
// parameter.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/XiaoConstantine/evolve-go/pkg/cache"
	"github.com/XiaoConstantine/evolve-go/pkg/errors"
	"github.com/XiaoConstantine/evolve-go/pkg/logging"
	"github.com/XiaoConstantine/evolve-go/pkg/population"
)

// Config is the root of the YAML run configuration.
type Config struct {
	// Strategy selects the search loop.
	Strategy string `yaml:"strategy" validate:"required,oneof=evolve hill_climb permutate"`

	// Ordering is the fitness comparison direction.
	Ordering string `yaml:"ordering" validate:"omitempty,oneof=maximize minimize"`

	// Seed fixes the run's random source; zero means time-seeded.
	Seed int64 `yaml:"seed"`

	Logging   LoggingConfig   `yaml:"logging"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Evolve    EvolveConfig    `yaml:"evolve"`
	HillClimb HillClimbConfig `yaml:"hill_climb"`
	Permutate PermutateConfig `yaml:"permutate"`
}

// LoggingConfig controls the run's log output.
type LoggingConfig struct {
	Severity string `yaml:"severity" validate:"omitempty,oneof=debug info warn error fatal"`
	File     string `yaml:"file"`
	Color    bool   `yaml:"color"`
}

// EvaluatorConfig controls parallel evaluation and the fitness cache.
type EvaluatorConfig struct {
	Concurrency    int          `yaml:"concurrency" validate:"min=0"`
	CacheNamespace string       `yaml:"cache_namespace"`
	Cache          cache.Config `yaml:"cache"`
	CacheEnabled   bool         `yaml:"cache_enabled"`
}

// EvolveConfig holds the population-search parameters.
type EvolveConfig struct {
	PopulationSize                 int    `yaml:"population_size" validate:"min=0"`
	Elitism                        int    `yaml:"elitism" validate:"min=0"`
	TournamentSize                 int    `yaml:"tournament_size" validate:"min=0"`
	Crossover                      string `yaml:"crossover" validate:"omitempty,oneof=none genes points"`
	NumberOfCrossovers             int    `yaml:"number_of_crossovers" validate:"min=0"`
	NumberOfMutations              int    `yaml:"number_of_mutations" validate:"min=0"`
	AllowDuplicateMutations        bool   `yaml:"allow_duplicate_mutations"`
	ScaleAdvance                   string `yaml:"scale_advance" validate:"omitempty,oneof=stagnation generation"`
	ScaleStaleGenerations          int    `yaml:"scale_stale_generations" validate:"min=0"`
	MassExtinctionStaleGenerations int    `yaml:"mass_extinction_stale_generations" validate:"min=0"`
	MaxGenerations                 int    `yaml:"max_generations" validate:"min=0"`
	MaxStaleGenerations            int    `yaml:"max_stale_generations" validate:"min=0"`
	TargetFitness                  *int   `yaml:"target_fitness"`
}

// HillClimbConfig holds the local-search parameters.
type HillClimbConfig struct {
	MaxGenerations int  `yaml:"max_generations" validate:"min=0"`
	TargetFitness  *int `yaml:"target_fitness"`
}

// PermutateConfig holds the exhaustive-search parameters.
type PermutateConfig struct {
	ScaleIndex int `yaml:"scale_index" validate:"min=0"`
}

// Load reads, parses and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ResourceNotFound, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses and validates YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.InvalidInput, "failed to parse config file")
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PopulationOrdering resolves the configured ordering, defaulting to
// maximize.
func (c *Config) PopulationOrdering() population.Ordering {
	if c.Ordering == "minimize" {
		return population.Minimize
	}
	return population.Maximize
}

// LogSeverity resolves the configured severity, defaulting to info.
func (c *LoggingConfig) LogSeverity() logging.Severity {
	switch c.Severity {
	case "debug":
		return logging.DEBUG
	case "warn":
		return logging.WARN
	case "error":
		return logging.ERROR
	case "fatal":
		return logging.FATAL
	default:
		return logging.INFO
	}
}
