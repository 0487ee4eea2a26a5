package action

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand/v2"
	"sync"
)

// Rand is the randomness deciders draw from. *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// NewSeed returns a random seed from crypto/rand.
func NewSeed() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// NewRand returns a deterministic source for seed, safe for concurrent use.
func NewRand(seed uint64) Rand {
	return &lockedRand{r: mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type lockedRand struct {
	mu sync.Mutex
	r  *mathrand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// roll returns a value in [lo, hi]. An empty range returns lo.
func roll(r Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}
