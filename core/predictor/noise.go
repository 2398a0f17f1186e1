package predictor

import (
	"math/rand/v2"
	"sync"
)

// DefaultJitterStdDev is the spread of the noise added to every score.
// Scores are deliberately not repeatable; use NoNoise for deterministic output.
const DefaultJitterStdDev = 0.05

// Noise produces the zero-mean perturbation added to a score
type Noise interface {
	Jitter() float64
}

// NoNoise disables jitter
type NoNoise struct{}

func (NoNoise) Jitter() float64 { return 0 }

// FixedNoise always returns the same offset
type FixedNoise float64

func (n FixedNoise) Jitter() float64 { return float64(n) }

// GaussianNoise draws from N(0, StdDev²)
type GaussianNoise struct {
	StdDev float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGaussianNoise returns a noise source backed by the global generator
func NewGaussianNoise(stdDev float64) *GaussianNoise {
	return &GaussianNoise{StdDev: stdDev}
}

// NewSeededGaussianNoise returns a reproducible noise source
func NewSeededGaussianNoise(stdDev float64, seed uint64) *GaussianNoise {
	return &GaussianNoise{
		StdDev: stdDev,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (g *GaussianNoise) Jitter() float64 {
	if g.rng == nil {
		return rand.NormFloat64() * g.StdDev
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.NormFloat64() * g.StdDev
}
