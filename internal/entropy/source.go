package entropy

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
	"sync"
)

// Seeded is a reproducible source backed by math/rand.
// Safe for concurrent use, though a session normally owns its own instance.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a Source that yields the same sequence for the same seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewSource(seed))}
}

// Float implements Source.
func (s *Seeded) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// DeriveSeed mixes seed with key into a new seed. The same seed and key
// always derive the same value; different keys derive unrelated streams.
func DeriveSeed(seed int64, key string) int64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	h.Write(buf[:])
	h.Write([]byte(key))
	return int64(h.Sum64())
}

// Sequence replays a fixed list of draws, cycling when exhausted.
// Used to pin down branches in tests.
type Sequence struct {
	values []float64
	next   int
}

// NewSequence returns a Sequence over values. An empty list always yields 0.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

// Float implements Source.
func (s *Sequence) Float() float64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Draws reports how many values have been consumed.
func (s *Sequence) Draws() int {
	return s.next
}

// Options selects which source New builds.
type Options struct {
	Seed         int64  // non-zero pins a reproducible math/rand stream
	RandomOrgKey string // enables the random.org pool when Seed is zero
}

// New picks a Source: seeded when a seed is given, random.org when a key is
// configured, crypto/rand otherwise.
func New(opts Options) Source {
	if opts.Seed != 0 {
		return NewSeeded(opts.Seed)
	}
	if c := NewClient(opts.RandomOrgKey); c.Enabled() {
		return c
	}
	return Crypto{}
}
