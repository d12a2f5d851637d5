package http

import (
	"math/rand"
	"sync"
)

// RNGPool hands out per-request *rand.Rand sources derived from one
// mutex-protected root generator, rather than sharing a single *rand.Rand
// across goroutines (unsafe) or paying a crypto/rand syscall per request.
// Per spec §5 / §9: the production path is runtime-seeded; tests substitute
// a fixed seed (LLMSIM_SEED) for reproducible sampling and injection.
type RNGPool struct {
	mu   sync.Mutex
	root *rand.Rand
}

// NewRNGPool builds a pool rooted at seed.
func NewRNGPool(seed int64) *RNGPool {
	return &RNGPool{root: rand.New(rand.NewSource(seed))}
}

// Next returns a fresh *rand.Rand seeded from the pool's root source. The
// root is advanced under a short lock; the returned source is then free for
// exclusive use by the calling request's goroutine.
func (p *RNGPool) Next() *rand.Rand {
	p.mu.Lock()
	seed := p.root.Int63()
	p.mu.Unlock()
	return rand.New(rand.NewSource(seed))
}
