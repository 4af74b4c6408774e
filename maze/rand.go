package maze

import (
	"math/rand"
	"sync"
)

// RandSource returns the random stream used for one maze. It is called once per
// generation, possibly from many goroutines at once.
type RandSource func() *rand.Rand

// RandomSource gives every maze its own freshly seeded stream.
func RandomSource() RandSource {
	return func() *rand.Rand {
		return rand.New(rand.NewSource(rand.Int63()))
	}
}

// SeededSource shares one mutex-guarded stream seeded with seed between all mazes.
// Sequential generations are reproducible from the seed.
func SeededSource(seed int64) RandSource {
	shared := rand.New(&lockedSource{src: rand.NewSource(seed).(rand.Source64)})
	return func() *rand.Rand {
		return shared
	}
}

// FixedSource restarts the stream from seed for every maze, so every maze of a given
// size is identical.
func FixedSource(seed int64) RandSource {
	return func() *rand.Rand {
		return rand.New(rand.NewSource(seed))
	}
}

// lockedSource serialises access to a source shared between goroutines.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}
