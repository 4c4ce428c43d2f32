package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"zero falls back", 0, 10},
		{"negative falls back", -3, 10},
		{"custom", 25, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Fatalf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
		})
	}
}

func TestProgressSamplerNilAlwaysEmits(t *testing.T) {
	var s *ProgressSampler
	if !s.Observe("download", 12) {
		t.Fatal("nil sampler should always emit")
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	steps := []struct {
		stage   string
		percent float64
		want    bool
	}{
		{"download", 0.5, true},
		{"download", 4.2, false},
		{"download", 10.1, true},
		{"download", 19.9, false},
		{"download", 55, true},
		{"download", 140, true},
		{"download", 100, false},
		{"separate", -1, true},
		{"separate", -1, false},
	}
	for i, step := range steps {
		if got := s.Observe(step.stage, step.percent); got != step.want {
			t.Fatalf("step %d (%s %.1f): got %v want %v", i, step.stage, step.percent, got, step.want)
		}
	}
}
