// Package gene defines the allele value types genes are made of, plus the
// deterministic encoding and hashing used for chromosome deduplication and
// fitness-cache keys.
package gene

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/zeebo/xxh3"
	"golang.org/x/exp/constraints"
)

// Allele is the capability tag for a gene's value type. Any comparable value
// works; numeric genotypes additionally require NumericAllele.
type Allele interface {
	comparable
}

// NumericAllele covers the allele types usable by Range-family genotypes,
// which need ordering and bounded arithmetic for bandwidth mutation.
// Unsigned types are excluded: bandwidth sampling needs negative offsets.
type NumericAllele interface {
	constraints.Signed | constraints.Float
}

// Encoder appends a deterministic byte encoding of one allele to dst.
// Encodings must be stable across process restarts so persisted fitness-cache
// keys remain valid.
type Encoder[A Allele] func(dst []byte, a A) []byte

// BoolEncoder encodes a binary allele as a single byte.
func BoolEncoder(dst []byte, a bool) []byte {
	if a {
		return append(dst, 1)
	}
	return append(dst, 0)
}

// NumericEncoder encodes a numeric allele as the little-endian bits of its
// float64 value. Integer alleles above 2^53 lose precision in the encoding;
// range genotypes operate well below that.
func NumericEncoder[T NumericAllele](dst []byte, v T) []byte {
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(float64(v)))
}

// ValueEncoder encodes any comparable allele via its printed form. Slower
// than the specialized encoders; used by List/Unique genotypes whose alleles
// may be strings or other non-numeric values.
func ValueEncoder[A Allele](dst []byte, a A) []byte {
	dst = fmt.Appendf(dst, "%v", a)
	return append(dst, 0x1f) // unit separator, keeps "ab","c" distinct from "a","bc"
}

// HashGenes computes the xxh3 content hash of a gene sequence using the
// given per-allele encoder.
func HashGenes[A Allele](genes []A, enc Encoder[A]) uint64 {
	buf := make([]byte, 0, len(genes)*8)
	for _, g := range genes {
		buf = enc(buf, g)
	}
	return xxh3.Hash(buf)
}

// HashScore hashes a fitness score for cardinality sketching.
func HashScore(score int) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(score))
	return xxh3.Hash(buf[:])
}

// CloneGenes returns an independent copy of a gene sequence.
func CloneGenes[A Allele](genes []A) []A {
	if genes == nil {
		return nil
	}
	out := make([]A, len(genes))
	copy(out, genes)
	return out
}
