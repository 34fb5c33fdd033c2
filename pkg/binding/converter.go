package binding

import (
	"fmt"
	"strconv"
	"strings"
)

// Converter transforms values as they cross a binding. Convert runs on the
// source-to-target path; ConvertBack runs target-to-source for two-way
// bindings. A converter that cannot reverse its transform returns an error
// from ConvertBack.
//
// Converters run strictly before the destination write. A converter error
// (or panic) skips that cycle's update and leaves the old destination value
// in place; it never unresolves the binding.
type Converter interface {
	Convert(value any) (any, error)
	ConvertBack(value any) (any, error)
}

// Scale multiplies numeric values by Factor on the forward path and divides
// on the way back.
type Scale struct {
	Factor float64
}

func (s Scale) Convert(value any) (any, error) {
	f, err := toFloat(value)
	if err != nil {
		return nil, err
	}
	return f * s.Factor, nil
}

func (s Scale) ConvertBack(value any) (any, error) {
	f, err := toFloat(value)
	if err != nil {
		return nil, err
	}
	if s.Factor == 0 {
		return nil, fmt.Errorf("binding: cannot invert scale by zero")
	}
	return f / s.Factor, nil
}

// Percent renders a ratio in [0, 1] as a percentage string ("42%") and
// parses one back into a ratio.
type Percent struct {
	// Decimals is the number of fractional digits in the formatted string.
	Decimals int
}

func (p Percent) Convert(value any) (any, error) {
	f, err := toFloat(value)
	if err != nil {
		return nil, err
	}
	return strconv.FormatFloat(f*100, 'f', p.Decimals, 64) + "%", nil
}

func (p Percent) ConvertBack(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("binding: percent expects a string, got %T", value)
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return nil, err
	}
	return f / 100, nil
}

// Format renders any value through a fmt verb, e.g. "%.2f" or "score: %d".
// Format is one-way; ConvertBack always fails.
type Format struct {
	Verb string
}

func (f Format) Convert(value any) (any, error) {
	return fmt.Sprintf(f.Verb, value), nil
}

func (f Format) ConvertBack(value any) (any, error) {
	return nil, fmt.Errorf("binding: format %q is one-way", f.Verb)
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("binding: expected a number, got %T", value)
	}
}
