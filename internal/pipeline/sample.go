package pipeline

import (
	"math/rand/v2"
	"sync"

	"github.com/seenimoa/newspulse/pkg/models"
)

// DefaultSampleSize bounds the number of articles enriched per run.
const DefaultSampleSize = 50

// Sampler draws a uniform random subset of a batch without replacement.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a sampler over rng. A nil rng uses an entropy-seeded source.
func NewSampler(rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Sampler{rng: rng}
}

// NewSeededSampler returns a sampler whose output is reproducible for seed.
func NewSeededSampler(seed uint64) *Sampler {
	return NewSampler(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Sample returns a shuffled copy of articles truncated to at most n elements.
// The input is always shuffled, even when it already fits. n <= 0 means
// DefaultSampleSize.
func (s *Sampler) Sample(articles []models.RawArticle, n int) []models.RawArticle {
	if n <= 0 {
		n = DefaultSampleSize
	}
	out := make([]models.RawArticle, len(articles))
	copy(out, articles)

	s.mu.Lock()
	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	s.mu.Unlock()

	if len(out) > n {
		out = out[:n]
	}
	return out
}
