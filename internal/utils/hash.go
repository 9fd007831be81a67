package utils

import "hash/fnv"

// StableHash gives a deterministic 64-bit hash for tie-breaking and
// pseudo-random-but-reproducible decisions. Not for security.
func StableHash(parts ...string) uint64 {
	h := fnv.New64a()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{'|'})
		}
		_, _ = h.Write([]byte(p))
	}
	return h.Sum64()
}
