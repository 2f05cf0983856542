package logging

import "testing"

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	steps := []struct {
		percent int
		want    bool
	}{
		{10, true},
		{12, false},
		{19, false},
		{25, true},
		{50, true},
		{75, true},
		{90, true},
		{99, false},
		{100, true},
		{100, false},
	}
	for i, step := range steps {
		if got := s.Allow(step.percent); got != step.want {
			t.Fatalf("step %d (%d%%): got %v want %v", i, step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerDefaultsAndNil(t *testing.T) {
	if s := NewProgressSampler(0); s.step != 10 {
		t.Fatalf("expected default step 10, got %d", s.step)
	}
	var s *ProgressSampler
	if !s.Allow(42) {
		t.Fatal("nil sampler should allow every line")
	}
	coarse := NewProgressSampler(50)
	if !coarse.Allow(0) || coarse.Allow(49) || !coarse.Allow(50) {
		t.Fatal("unexpected coarse sampling")
	}
}
