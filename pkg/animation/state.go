package animation

import "time"

// State is one in-flight deferred property update: where the value started,
// where it is heading, and how far along it is.
//
// A State advances only when [State.Advance] is called from the frame pass;
// nothing about it is wall-clock driven. A zero Duration completes on the
// first Advance, which is how "deferred but instant" writes are modeled —
// even an instant write only becomes visible at the next flush.
type State struct {
	// Start is the value the property held when the update was recorded.
	Start any
	// Target is the value committed when the animation completes.
	Target any
	// Elapsed is the animation time consumed so far.
	Elapsed time.Duration
	// Duration is the total animation time. Zero completes immediately.
	Duration time.Duration
	// Curve eases the progress. Nil means Linear.
	Curve Curve
}

// Advance steps the animation by dt and returns the value to commit for
// this tick. done reports completion; once done, the returned value is
// exactly Target with no residual interpolation error, and the State must
// be discarded.
func (s *State) Advance(dt time.Duration) (value any, done bool) {
	s.Elapsed += dt
	if s.Duration <= 0 || s.Elapsed >= s.Duration {
		return s.Target, true
	}
	progress := float64(s.Elapsed) / float64(s.Duration)
	curve := s.Curve
	if curve == nil {
		curve = Linear
	}
	return Lerp(s.Start, s.Target, curve(progress)), false
}

// Retarget points an in-flight update at a new target. The interpolation
// restarts from the current committed value: elapsed resets and the last
// write wins.
func (s *State) Retarget(current, target any) {
	s.Start = current
	s.Target = target
	s.Elapsed = 0
}
