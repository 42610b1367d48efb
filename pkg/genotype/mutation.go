package genotype

import (
	"math"
	"math/rand"

	"github.com/XiaoConstantine/evolve-go/pkg/errors"
	"github.com/XiaoConstantine/evolve-go/pkg/gene"
)

// MutationKind tags the numeric mutation policy of Range-family genotypes.
type MutationKind int

const (
	// MutationRandom replaces the gene with a fresh uniform sample over
	// the full allele range. Undersamples the exact boundary values, an
	// accepted bias.
	MutationRandom MutationKind = iota
	// MutationRange offsets the gene by a uniform sample within a fixed
	// bandwidth, post-clamped so fine local search can reach exact
	// boundary values.
	MutationRange
	// MutationStep moves the gene one step up or down with 50/50
	// probability, clamped.
	MutationStep
	// MutationRangeScaled selects a bandwidth by scale index; the phase
	// is advanced externally on stagnation.
	MutationRangeScaled
	// MutationRangeGenerational selects a bandwidth by scale index; the
	// phase advances purely with elapsed generation count.
	MutationRangeGenerational
	// MutationStepScaled selects a step size by scale index, advanced on
	// stagnation.
	MutationStepScaled
	// MutationStepGenerational selects a step size by generation count.
	MutationStepGenerational
	// MutationDiscrete floors samples to integer buckets. Meant for
	// composite multi-range genotypes with mixed categorical/continuous
	// chromosomes; when all genes are discrete a List genotype serves
	// better. Advisory, not enforced.
	MutationDiscrete
)

func (k MutationKind) String() string {
	switch k {
	case MutationRandom:
		return "random"
	case MutationRange:
		return "range"
	case MutationStep:
		return "step"
	case MutationRangeScaled:
		return "range_scaled"
	case MutationRangeGenerational:
		return "range_generational"
	case MutationStepScaled:
		return "step_scaled"
	case MutationStepGenerational:
		return "step_generational"
	case MutationDiscrete:
		return "discrete"
	default:
		return "unknown"
	}
}

// MutationType describes the numeric mutation policy consumed by
// Range-family genotypes. The genotype never decides when a phased schedule
// advances, only what bandwidth applies at phase k.
type MutationType[T gene.NumericAllele] struct {
	Kind       MutationKind
	Bandwidth  T   // MutationRange
	StepSize   T   // MutationStep
	Bandwidths []T // MutationRangeScaled / MutationRangeGenerational
	StepSizes  []T // MutationStepScaled / MutationStepGenerational
}

func RandomMutation[T gene.NumericAllele]() MutationType[T] {
	return MutationType[T]{Kind: MutationRandom}
}

func RangeMutation[T gene.NumericAllele](bandwidth T) MutationType[T] {
	return MutationType[T]{Kind: MutationRange, Bandwidth: bandwidth}
}

func StepMutation[T gene.NumericAllele](size T) MutationType[T] {
	return MutationType[T]{Kind: MutationStep, StepSize: size}
}

func RangeScaledMutation[T gene.NumericAllele](bandwidths ...T) MutationType[T] {
	return MutationType[T]{Kind: MutationRangeScaled, Bandwidths: bandwidths}
}

func RangeGenerationalMutation[T gene.NumericAllele](bandwidths ...T) MutationType[T] {
	return MutationType[T]{Kind: MutationRangeGenerational, Bandwidths: bandwidths}
}

func StepScaledMutation[T gene.NumericAllele](sizes ...T) MutationType[T] {
	return MutationType[T]{Kind: MutationStepScaled, StepSizes: sizes}
}

func StepGenerationalMutation[T gene.NumericAllele](sizes ...T) MutationType[T] {
	return MutationType[T]{Kind: MutationStepGenerational, StepSizes: sizes}
}

func DiscreteMutation[T gene.NumericAllele]() MutationType[T] {
	return MutationType[T]{Kind: MutationDiscrete}
}

// Validate checks the policy is internally consistent. Surfaced at genotype
// build time.
func (m MutationType[T]) Validate() error {
	var zero T
	switch m.Kind {
	case MutationRange:
		if m.Bandwidth <= zero {
			return errors.New(errors.ValidationFailed, "range mutation requires a positive bandwidth")
		}
	case MutationStep:
		if m.StepSize <= zero {
			return errors.New(errors.ValidationFailed, "step mutation requires a positive step size")
		}
	case MutationRangeScaled, MutationRangeGenerational:
		if len(m.Bandwidths) == 0 {
			return errors.New(errors.ValidationFailed, "scaled range mutation requires a bandwidth schedule")
		}
		for _, bw := range m.Bandwidths {
			if bw <= zero {
				return errors.New(errors.ValidationFailed, "scaled range mutation bandwidths must be positive")
			}
		}
	case MutationStepScaled, MutationStepGenerational:
		if len(m.StepSizes) == 0 {
			return errors.New(errors.ValidationFailed, "scaled step mutation requires a step-size schedule")
		}
		for _, sz := range m.StepSizes {
			if sz <= zero {
				return errors.New(errors.ValidationFailed, "scaled step mutation sizes must be positive")
			}
		}
	}
	return nil
}

// IsScaled reports whether the phase advances on externally signalled
// stagnation.
func (m MutationType[T]) IsScaled() bool {
	return m.Kind == MutationRangeScaled || m.Kind == MutationStepScaled
}

// IsGenerational reports whether the phase advances with generation count.
func (m MutationType[T]) IsGenerational() bool {
	return m.Kind == MutationRangeGenerational || m.Kind == MutationStepGenerational
}

// ScheduleLength returns the number of phases, 1 for unphased kinds.
func (m MutationType[T]) ScheduleLength() int {
	switch m.Kind {
	case MutationRangeScaled, MutationRangeGenerational:
		return len(m.Bandwidths)
	case MutationStepScaled, MutationStepGenerational:
		return len(m.StepSizes)
	default:
		return 1
	}
}

// AllowsPermutation reports whether an evenly spaced discretization of the
// allele range exists, the precondition for exhaustive enumeration.
func (m MutationType[T]) AllowsPermutation() bool {
	switch m.Kind {
	case MutationStep, MutationStepScaled, MutationStepGenerational,
		MutationRangeScaled, MutationRangeGenerational:
		return true
	default:
		return false
	}
}

// permutationSpacing returns the discretization spacing at the given scale
// index. Only valid when AllowsPermutation.
func (m MutationType[T]) permutationSpacing(scaleIndex int) T {
	switch m.Kind {
	case MutationStep:
		return m.StepSize
	case MutationStepScaled, MutationStepGenerational:
		v, _ := scheduleValue(m.StepSizes, scaleIndex)
		return v
	case MutationRangeScaled, MutationRangeGenerational:
		v, _ := scheduleValue(m.Bandwidths, scaleIndex)
		return v
	default:
		var zero T
		return zero
	}
}

// scheduleValue indexes a phased schedule, clamping past-the-end indices to
// the last phase. Reports whether the resolved phase is the last one, which
// switches range mutation from pre- to post-clamping.
func scheduleValue[T gene.NumericAllele](schedule []T, scaleIndex int) (T, bool) {
	if len(schedule) == 0 {
		var zero T
		return zero, true
	}
	if scaleIndex < 0 {
		scaleIndex = 0
	}
	if scaleIndex >= len(schedule) {
		scaleIndex = len(schedule) - 1
	}
	return schedule[scaleIndex], scaleIndex == len(schedule)-1
}

func isFloatAllele[T gene.NumericAllele]() bool {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return true
	default:
		return false
	}
}

// uniformInclusive samples uniformly over [lo, hi]. Integer alleles sample
// the closed interval exactly; float alleles sample the half-open interval,
// which is why post-clamping is the only way to reach exact float
// boundaries.
func uniformInclusive[T gene.NumericAllele](rng *rand.Rand, lo, hi T) T {
	if hi <= lo {
		return lo
	}
	if isFloatAllele[T]() {
		return lo + T(rng.Float64()*float64(hi-lo))
	}
	return lo + T(rng.Int63n(int64(hi-lo)+1))
}

func clamp[T gene.NumericAllele](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floorAllele[T gene.NumericAllele](v T) T {
	if isFloatAllele[T]() {
		return T(math.Floor(float64(v)))
	}
	return v
}

// mutateRangeGene applies the mutation policy to one gene value. Clamping
// order per kind: static range and the last scaled phase post-clamp (samples
// may push past the boundary, then clamp back onto it, slightly oversampling
// boundaries to make them reachable); earlier scaled phases pre-clamp (the
// sampling interval itself is intersected with [min,max] first, avoiding
// boundary oversampling during broad exploration).
func mutateRangeGene[T gene.NumericAllele](rng *rand.Rand, v, min, max T, m MutationType[T], scaleIndex int) T {
	switch m.Kind {
	case MutationRandom:
		return uniformInclusive(rng, min, max)
	case MutationRange:
		return clamp(v+uniformInclusive(rng, -m.Bandwidth, m.Bandwidth), min, max)
	case MutationStep:
		if rng.Intn(2) == 0 {
			return clamp(v-m.StepSize, min, max)
		}
		return clamp(v+m.StepSize, min, max)
	case MutationRangeScaled, MutationRangeGenerational:
		bw, last := scheduleValue(m.Bandwidths, scaleIndex)
		if last {
			return clamp(v+uniformInclusive(rng, -bw, bw), min, max)
		}
		lo := v - bw
		if lo < min {
			lo = min
		}
		hi := v + bw
		if hi > max {
			hi = max
		}
		return uniformInclusive(rng, lo, hi)
	case MutationStepScaled, MutationStepGenerational:
		sz, _ := scheduleValue(m.StepSizes, scaleIndex)
		if rng.Intn(2) == 0 {
			return clamp(v-sz, min, max)
		}
		return clamp(v+sz, min, max)
	case MutationDiscrete:
		return clamp(floorAllele(uniformInclusive(rng, min, max)), min, max)
	default:
		return v
	}
}

// neighbourBandwidth returns the offset used for hill-climb neighbour
// variants at the given scale index. Random mutation has no bandwidth, so
// the full range width is used.
func (m MutationType[T]) neighbourBandwidth(min, max T, scaleIndex int) T {
	switch m.Kind {
	case MutationRange:
		return m.Bandwidth
	case MutationStep:
		return m.StepSize
	case MutationRangeScaled, MutationRangeGenerational:
		v, _ := scheduleValue(m.Bandwidths, scaleIndex)
		return v
	case MutationStepScaled, MutationStepGenerational:
		v, _ := scheduleValue(m.StepSizes, scaleIndex)
		return v
	default:
		return max - min
	}
}
