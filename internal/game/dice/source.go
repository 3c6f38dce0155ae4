package dice

import (
	"crypto/rand"
	"math/big"
	"sync"
)

// cryptoSource implements Source using crypto/rand.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is uniformly distributed in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// SequenceSource is a deterministic Source that replays a fixed list of die
// results. It exists so combat tests can assert exact initiative orders and
// damage totals.
//
// The scripted values are 1-based die faces, not raw Intn outputs: a script
// value of 5 makes RollDie(src, sides) return 5. Values are clamped into
// [1, sides] so one script works across differently-sized dice. When the
// script is exhausted the source wraps around.
type SequenceSource struct {
	mu    sync.Mutex
	rolls []int
	next  int
}

// NewSequenceSource creates a SequenceSource replaying the given die faces.
//
// Precondition: len(rolls) > 0 and every value >= 1.
func NewSequenceSource(rolls ...int) *SequenceSource {
	if len(rolls) == 0 {
		panic("dice: NewSequenceSource requires at least one roll")
	}
	for _, r := range rolls {
		if r < 1 {
			panic("dice: SequenceSource rolls must be >= 1")
		}
	}
	cp := make([]int, len(rolls))
	copy(cp, rolls)
	return &SequenceSource{rolls: cp}
}

// Intn returns the next scripted face minus one, clamped to [0, n).
//
// Precondition: n > 0.
func (s *SequenceSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	face := s.rolls[s.next%len(s.rolls)]
	s.next++
	if face > n {
		face = n
	}
	return face - 1
}

// Remaining returns how many scripted rolls are left before the source wraps.
func (s *SequenceSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.rolls) {
		return 0
	}
	return len(s.rolls) - s.next
}
