package combat

import (
	"math/rand"
	"sync"

	"github.com/AustinNewburry/DavisDefenseBot/internal/rules"
)

// Rand is the uniform source every resolution draws from.
type Rand interface {
	// Intn returns a value in [0, n).
	Intn(n int) int
	// Float64 returns a value in [0, 1).
	Float64() float64
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine safe source seeded with seed.
func NewRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Between draws an integer uniformly from the inclusive range [lo, hi].
func Between(rnd Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rnd.Intn(hi-lo+1)
}

// Roll draws from an inclusive rules.Range.
func Roll(rnd Rand, r rules.Range) int {
	return Between(rnd, r.Min, r.Max)
}

// RollFunc adapts rnd for formula evaluation.
func RollFunc(rnd Rand) rules.RollFunc {
	return func(lo, hi int) int { return Between(rnd, lo, hi) }
}

// Scripted replays queued values in order, for deterministic tests. Once a
// queue is drained it returns the lowest possible value.
type Scripted struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
	draws  int
}

// NewScripted queues the Intn results. Queue Float64 results with Floats.
func NewScripted(ints ...int) *Scripted {
	return &Scripted{ints: ints}
}

// Floats appends Float64 results to the queue.
func (s *Scripted) Floats(fs ...float64) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.floats = append(s.floats, fs...)
	return s
}

// Intn returns the next queued int, clamped into [0, n).
func (s *Scripted) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draws++
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// Float64 returns the next queued float.
func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draws++
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

// Draws is the number of values handed out so far.
func (s *Scripted) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}
