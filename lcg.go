package flexsearch

import "hash/fnv"

// lcg decorrelates hot keys across keystore shards. Grounded on
// original_source/services/inversearch/src/keystore/mod.rs's crc(key) =
// lcg(key.to_string(), bit) sharding function: a linear-congruential step
// seeded from a cheap string hash, then folded down to `bits` bits. No
// pack repository imports a non-cryptographic string-hash library for this
// purpose, so this stays on the standard library's hash/fnv plus a small
// hand-rolled LCG step, matching the source's own custom (non-library) LCG.
const (
	lcgMultiplier uint64 = 6364136223846793005
	lcgIncrement  uint64 = 1442695040888963407
)

// lcg returns a value in [0, 2^bits) derived from key.
func lcg(key string, bits uint) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	seed := h.Sum64()
	seed = seed*lcgMultiplier + lcgIncrement
	if bits >= 64 {
		return seed
	}
	return seed >> (64 - bits)
}
