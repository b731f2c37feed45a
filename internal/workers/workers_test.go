package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")
	available := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{name: "cpu bound", multiplier: 1.0, limit: 0, minExpect: 1, maxExpect: available},
		{name: "io bound", multiplier: 2.0, limit: 0, minExpect: 1, maxExpect: available * 2},
		{name: "limit lower than computed", multiplier: 2.0, limit: 1, minExpect: 1, maxExpect: 1},
		{name: "very low multiplier", multiplier: 0.01, limit: 0, minExpect: 1, maxExpect: max(1, available/100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, want in [%d, %d]", tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestCount_Override(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		limit int
		want  int
	}{
		{name: "override", env: "7", limit: 0, want: 7},
		{name: "override capped by limit", env: "7", limit: 3, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.env)
			if got := Count(2.0, tt.limit); got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}

	t.Run("invalid override is ignored", func(t *testing.T) {
		t.Setenv(EnvOverride, "lots")
		if got := ForCPU(0); got != runtime.GOMAXPROCS(0) {
			t.Errorf("ForCPU() = %d, want %d", got, runtime.GOMAXPROCS(0))
		}
	})
}

func TestForIO(t *testing.T) {
	t.Setenv(EnvOverride, "")
	if got, want := ForIO(0), runtime.GOMAXPROCS(0)*2; got != want {
		t.Errorf("ForIO(0) = %d, want %d", got, want)
	}
}
