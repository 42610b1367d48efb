package cache

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// KeyGenerator builds deterministic cache keys from genes hashes. The
// namespace isolates different fitness functions sharing one store: the same
// gene sequence scores differently under different objectives, so keys carry
// the namespace ahead of the hash.
type KeyGenerator struct {
	namespace string
}

// NewKeyGenerator creates a key generator for the given fitness namespace.
func NewKeyGenerator(namespace string) *KeyGenerator {
	if namespace == "" {
		namespace = "fitness"
	}
	return &KeyGenerator{namespace: namespace}
}

// ScoreKey creates the cache key for a chromosome's genes hash.
func (g *KeyGenerator) ScoreKey(genesHash uint64) string {
	var b strings.Builder
	b.Grow(len(g.namespace) + 1 + 16)
	b.WriteString(g.namespace)
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(genesHash, 16))
	return b.String()
}

// EncodeScore serializes a fitness score for storage.
func EncodeScore(score int) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(score)))
	return buf[:]
}

// DecodeScore deserializes a stored fitness score. Reports false for
// malformed values, which callers treat as a cache miss.
func DecodeScore(value []byte) (int, bool) {
	if len(value) != 8 {
		return 0, false
	}
	return int(int64(binary.LittleEndian.Uint64(value))), true
}
