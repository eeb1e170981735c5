package telemetry

import "sync"

// ring is a fixed-capacity sample buffer. Once full, the oldest sample
// is overwritten; recent history is all the daemon keeps.
type ring struct {
	mu      sync.Mutex
	samples []Sample
	next    int
	full    bool
}

func newRing(capacity int) *ring {
	return &ring{
		samples: make([]Sample, capacity),
	}
}

func (r *ring) record(sample Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.samples[r.next] = sample
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

// snapshot returns a most-recent-first copy of the buffered samples.
func (r *ring) snapshot() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.full {
		count = len(r.samples)
	}

	out := make([]Sample, 0, count)
	for i := 1; i <= count; i++ {
		index := r.next - i
		if index < 0 {
			index += len(r.samples)
		}
		out = append(out, r.samples[index])
	}

	return out
}
