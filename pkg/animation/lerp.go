package animation

import (
	"image/color"
	"math"
)

// Lerp interpolates between two values of the same dynamic type at eased
// progress t in [0, 1].
//
// Numeric kinds interpolate arithmetically (integers round to nearest).
// [color.RGBA] interpolates per channel. [Angle] interpolates along the
// shortest arc. Any other type holds the start value until t reaches 1,
// matching [Step] semantics.
func Lerp(start, target any, t float64) any {
	if t >= 1 {
		return target
	}
	if t <= 0 {
		return start
	}
	switch a := start.(type) {
	case float64:
		if b, ok := target.(float64); ok {
			return a + (b-a)*t
		}
	case float32:
		if b, ok := target.(float32); ok {
			return a + float32(float64(b-a)*t)
		}
	case int:
		if b, ok := target.(int); ok {
			return int(math.Round(float64(a) + float64(b-a)*t))
		}
	case int64:
		if b, ok := target.(int64); ok {
			return int64(math.Round(float64(a) + float64(b-a)*t))
		}
	case Angle:
		if b, ok := target.(Angle); ok {
			return lerpAngle(a, b, t)
		}
	case color.RGBA:
		if b, ok := target.(color.RGBA); ok {
			return lerpRGBA(a, b, t)
		}
	}
	return start
}

// Angle is a rotational value in radians. Interpolation between two Angles
// follows the shortest arc, so animating from 350° to 10° sweeps 20°, not
// 340°.
type Angle float64

// Radians returns the angle as a plain float64.
func (a Angle) Radians() float64 {
	return float64(a)
}

func lerpAngle(a, b Angle, t float64) Angle {
	delta := math.Mod(float64(b-a), 2*math.Pi)
	if delta > math.Pi {
		delta -= 2 * math.Pi
	} else if delta < -math.Pi {
		delta += 2 * math.Pi
	}
	return Angle(float64(a) + delta*t)
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	lerp8 := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{
		R: lerp8(a.R, b.R),
		G: lerp8(a.G, b.G),
		B: lerp8(a.B, b.B),
		A: lerp8(a.A, b.A),
	}
}
