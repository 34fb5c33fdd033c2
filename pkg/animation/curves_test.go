package animation

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestCurveEndpoints(t *testing.T) {
	curves := map[string]Curve{
		"Step":           Step,
		"Linear":         Linear,
		"EaseIn":         EaseIn,
		"EaseOut":        EaseOut,
		"EaseInOut":      EaseInOut,
		"Slerp":          Slerp,
		"CubicEaseIn":    CubicEaseIn,
		"CubicEaseOut":   CubicEaseOut,
		"CubicEaseInOut": CubicEaseInOut,
	}
	for name, curve := range curves {
		if got := curve(0); !almostEqual(got, 0) {
			t.Errorf("%s(0) = %v, want 0", name, got)
		}
		if got := curve(1); !almostEqual(got, 1) {
			t.Errorf("%s(1) = %v, want 1", name, got)
		}
	}
}

func TestStepHoldsUntilCompletion(t *testing.T) {
	for _, progress := range []float64{0, 0.25, 0.5, 0.99} {
		if Step(progress) != 0 {
			t.Errorf("Step(%v) should hold at 0", progress)
		}
	}
	if Step(1) != 1 {
		t.Error("Step(1) should snap to 1")
	}
}

func TestQuadraticEasing(t *testing.T) {
	if got := EaseIn(0.5); !almostEqual(got, 0.25) {
		t.Errorf("EaseIn(0.5) = %v, want 0.25", got)
	}
	if got := EaseOut(0.5); !almostEqual(got, 0.75) {
		t.Errorf("EaseOut(0.5) = %v, want 0.75", got)
	}
	if got := EaseInOut(0.5); !almostEqual(got, 0.5) {
		t.Errorf("EaseInOut(0.5) = %v, want 0.5", got)
	}
}

func TestSlerpMidpoint(t *testing.T) {
	if got := Slerp(0.5); !almostEqual(got, 0.5) {
		t.Errorf("Slerp(0.5) = %v, want 0.5", got)
	}
	// Sinusoidal: slower than linear near the edges.
	if Slerp(0.1) >= 0.1 {
		t.Error("Slerp should lag linear near t=0")
	}
	if Slerp(0.9) <= 0.9 {
		t.Error("Slerp should lead linear near t=1")
	}
}

func TestCubicBezierMonotonic(t *testing.T) {
	curve := CubicBezier(0.4, 0.0, 0.2, 1.0)
	prev := curve(0)
	for i := 1; i <= 100; i++ {
		progress := float64(i) / 100
		value := curve(progress)
		if value < prev-1e-9 {
			t.Fatalf("curve not monotonic at t=%v: %v < %v", progress, value, prev)
		}
		prev = value
	}
}

func TestCubicBezierLinearControlPoints(t *testing.T) {
	// Control points on the diagonal reproduce linear easing.
	curve := CubicBezier(0.25, 0.25, 0.75, 0.75)
	for _, progress := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		if got := curve(progress); math.Abs(got-progress) > 1e-4 {
			t.Errorf("diagonal bezier(%v) = %v, want ~%v", progress, got, progress)
		}
	}
}

func TestCurveClampsOutOfRange(t *testing.T) {
	if got := EaseIn(-0.5); got != 0 {
		t.Errorf("EaseIn(-0.5) = %v, want 0", got)
	}
	if got := EaseOut(1.5); got != 1 {
		t.Errorf("EaseOut(1.5) = %v, want 1", got)
	}
}
