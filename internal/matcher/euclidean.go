package matcher

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// DefaultThreshold is the maximum embedding distance for a positive match,
// matching the distance cutoff the enrollment pipeline was calibrated with.
const DefaultThreshold = 0.6

// Euclidean matches embeddings against enrolled descriptors by L2 distance.
// Enrollment is rebuilt from the roster whenever it changes; Match is
// read-only and safe for concurrent use.
type Euclidean struct {
	mu        sync.RWMutex
	enrolled  map[string][]float32 // label -> descriptor
	threshold float64
}

// NewEuclidean constructs an empty euclidean matcher. A non-positive
// threshold falls back to DefaultThreshold.
func NewEuclidean(threshold float64) *Euclidean {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Euclidean{
		enrolled:  make(map[string][]float32),
		threshold: threshold,
	}
}

// Enroll replaces the descriptor set. Labels with nil descriptors are skipped.
func (e *Euclidean) Enroll(descriptors map[string][]float32) {
	next := make(map[string][]float32, len(descriptors))
	for label, descriptor := range descriptors {
		if len(descriptor) == 0 {
			continue
		}
		next[label] = append([]float32(nil), descriptor...)
	}
	e.mu.Lock()
	e.enrolled = next
	e.mu.Unlock()
}

// Match returns the closest enrolled label within the threshold, or unknown.
func (e *Euclidean) Match(_ context.Context, embedding []float32) (Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	best := Result{Label: LabelUnknown, Distance: math.Inf(1)}
	for label, descriptor := range e.enrolled {
		d, err := distance(embedding, descriptor)
		if err != nil {
			return Result{}, err
		}
		if d < best.Distance {
			best = Result{Label: label, Distance: d}
		}
	}
	if best.Label == LabelUnknown || best.Distance > e.threshold {
		return Result{Label: LabelUnknown}, nil
	}
	return best, nil
}

func distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

var _ Matcher = (*Euclidean)(nil)
