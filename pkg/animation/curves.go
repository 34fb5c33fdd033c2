package animation

import "math"

// Easing curves transform linear animation progress into natural-feeling
// motion.
//
// Each curve is a function that takes a value t in [0, 1] and returns a
// transformed value. Curves are selected per animated property, either at
// registration time (the property's default) or per deferred write.
//
// Standard curves: [Step], [Linear], [EaseIn], [EaseOut], [EaseInOut],
// [CubicEaseIn], [CubicEaseOut], [CubicEaseInOut], [Slerp].
// Use [CubicBezier] to create custom curves matching CSS cubic-bezier().

// Curve maps linear progress in [0, 1] to eased progress.
type Curve func(t float64) float64

// Step holds the start value until completion, then snaps to the target.
func Step(t float64) float64 {
	if t >= 1 {
		return 1
	}
	return 0
}

// Linear returns linear progress (no easing).
func Linear(t float64) float64 {
	return t
}

// EaseIn starts slowly and accelerates (quadratic).
func EaseIn(t float64) float64 {
	t = clampUnit(t)
	return t * t
}

// EaseOut starts quickly and decelerates (quadratic).
func EaseOut(t float64) float64 {
	t = clampUnit(t)
	return t * (2 - t)
}

// EaseInOut starts and ends slowly with acceleration in the middle
// (quadratic).
func EaseInOut(t float64) float64 {
	t = clampUnit(t)
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

// Slerp is a sinusoidal curve matching constant-speed spherical
// interpolation when applied to angular properties.
func Slerp(t float64) float64 {
	t = clampUnit(t)
	return 0.5 - 0.5*math.Cos(t*math.Pi)
}

// CubicEaseIn is a cubic bezier curve that starts slowly and accelerates.
// Equivalent to CSS ease-in.
var CubicEaseIn = CubicBezier(0.4, 0.0, 1.0, 1.0)

// CubicEaseOut is a cubic bezier curve that starts quickly and decelerates.
// Equivalent to CSS ease-out.
var CubicEaseOut = CubicBezier(0.0, 0.0, 0.2, 1.0)

// CubicEaseInOut is a cubic bezier curve that starts and ends slowly.
// Equivalent to CSS ease-in-out.
var CubicEaseInOut = CubicBezier(0.4, 0.0, 0.2, 1.0)

// CubicBezier returns a cubic-bezier easing function matching CSS
// cubic-bezier(). The parameters define the two control points (x1,y1) and
// (x2,y2) of the curve. The curve starts at (0,0) and ends at (1,1).
func CubicBezier(x1, y1, x2, y2 float64) Curve {
	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}

		u := t
		// Newton-Raphson converges quickly for most values.
		for range 8 {
			x := sampleCurve(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				return sampleCurve(y1, y2, clampUnit(u))
			}
			dx := sampleCurveDerivative(x1, x2, u)
			if math.Abs(dx) < 1e-7 {
				break
			}
			u -= x / dx
		}

		// Fallback to bisection to guarantee a stable solution in [0,1].
		lo, hi := 0.0, 1.0
		u = clampUnit(u)
		for range 12 {
			x := sampleCurve(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				break
			}
			if x > 0 {
				hi = u
			} else {
				lo = u
			}
			u = (lo + hi) * 0.5
		}

		return sampleCurve(y1, y2, u)
	}
}

func sampleCurve(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*t*a + 3*inv*t*t*b + t*t*t
}

func sampleCurveDerivative(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*a + 6*inv*t*(b-a) + 3*t*t*(1-b)
}

func clampUnit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
