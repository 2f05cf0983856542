package logging

// ProgressSampler thins progress log lines to one per step-sized bucket. A
// record's progress only moves forward, so each bucket logs at most once.
type ProgressSampler struct {
	step int
	last int
}

// NewProgressSampler samples every step percent; non-positive steps mean 10.
func NewProgressSampler(step int) *ProgressSampler {
	if step <= 0 {
		step = 10
	}
	return &ProgressSampler{step: step, last: -1}
}

// Allow reports whether percent reached a bucket not logged yet. A nil
// sampler allows everything.
func (s *ProgressSampler) Allow(percent int) bool {
	if s == nil {
		return true
	}
	bucket := min(max(percent, 0), 100) / s.step
	if bucket <= s.last {
		return false
	}
	s.last = bucket
	return true
}
