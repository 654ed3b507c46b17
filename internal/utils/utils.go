package utils

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// NewRand returns a PCG-backed source. A zero seed means "seed from the clock",
// so runs are not reproducible unless a seed is given.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		now := uint64(time.Now().UnixNano())
		return rand.New(rand.NewPCG(now, now>>7^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Pick returns a uniformly chosen element of items. items must not be empty.
func Pick[T any](r *rand.Rand, items []T) T {
	return items[r.IntN(len(items))]
}

// IntRange returns a uniform int in [lo, hi], both inclusive.
func IntRange(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

// Int64Range returns a uniform int64 in [lo, hi], both inclusive.
func Int64Range(r *rand.Rand, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + r.Int64N(hi-lo+1)
}

// RandIPv4 returns a dotted IPv4 address with a unicast first octet (1-223).
func RandIPv4(r *rand.Rand) string {
	var b strings.Builder
	b.Grow(15)
	b.WriteString(strconv.Itoa(IntRange(r, 1, 223)))
	for i := 0; i < 3; i++ {
		b.WriteByte('.')
		b.WriteString(strconv.Itoa(r.IntN(256)))
	}
	return b.String()
}
