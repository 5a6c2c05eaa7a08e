package models

import (
	"math"
	"testing"
)

func TestClampScore(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		def      float64
		expected float64
	}{
		{
			name:     "in range",
			value:    42,
			def:      75,
			expected: 42,
		},
		{
			name:     "below range",
			value:    -10,
			def:      75,
			expected: 0,
		},
		{
			name:     "above range",
			value:    150,
			def:      75,
			expected: 100,
		},
		{
			name:     "NaN falls back to default",
			value:    math.NaN(),
			def:      75,
			expected: 75,
		},
		{
			name:     "positive infinity falls back to default",
			value:    math.Inf(1),
			def:      80,
			expected: 80,
		},
		{
			name:     "boundary zero",
			value:    0,
			def:      75,
			expected: 0,
		},
		{
			name:     "boundary hundred",
			value:    100,
			def:      75,
			expected: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ClampScore(tt.value, tt.def)
			if result != tt.expected {
				t.Errorf("ClampScore(%v, %v) = %v, want %v", tt.value, tt.def, result, tt.expected)
			}
		})
	}
}

func TestClamp01(t *testing.T) {
	if got := Clamp01(1.7, 0.5); got != 1 {
		t.Errorf("Clamp01(1.7) = %v, want 1", got)
	}
	if got := Clamp01(-0.2, 0.5); got != 0 {
		t.Errorf("Clamp01(-0.2) = %v, want 0", got)
	}
	if got := Clamp01(math.NaN(), 0.5); got != 0.5 {
		t.Errorf("Clamp01(NaN) = %v, want 0.5", got)
	}
}

func TestClampSigned(t *testing.T) {
	if got := ClampSigned(-3, 0); got != -1 {
		t.Errorf("ClampSigned(-3) = %v, want -1", got)
	}
	if got := ClampSigned(0.4, 0); got != 0.4 {
		t.Errorf("ClampSigned(0.4) = %v, want 0.4", got)
	}
	if got := ClampSigned(math.Inf(-1), 0); got != 0 {
		t.Errorf("ClampSigned(-Inf) = %v, want 0", got)
	}
}

func TestIsValidScore(t *testing.T) {
	if IsValidScore(math.NaN()) {
		t.Error("IsValidScore(NaN) should be false")
	}
	if IsValidScore(101) {
		t.Error("IsValidScore(101) should be false")
	}
	if !IsValidScore(0) || !IsValidScore(100) || !IsValidScore(55.5) {
		t.Error("valid scores reported invalid")
	}
}
