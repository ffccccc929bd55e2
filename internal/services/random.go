package services

import (
	"math/rand/v2"
	"sync"
)

// LockedRandom is a RandomSource safe for use by concurrent observation
// starts.
type LockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewLockedRandom(seed1, seed2 uint64) *LockedRandom {
	return &LockedRandom{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

func (r *LockedRandom) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng.Shuffle(n, swap)
}
