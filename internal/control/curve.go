package control

import (
	"sort"

	"codeberg.org/mutker/fwectl/internal/errors"
)

const (
	ErrCurveTooShort = errors.ErrorCode("curve_too_short")
	ErrCurveBadPoint = errors.ErrorCode("curve_bad_point")
)

// Point maps a temperature to a fan duty percentage.
type Point struct {
	TempC   float64
	DutyPct float64
}

// Curve is a piecewise-linear temperature-to-duty mapping, sorted
// ascending by temperature. Duty values are taken as given: a
// user-edited curve may be temporarily non-monotonic in duty, and the
// interpolation below is well-defined either way.
type Curve []Point

// NewCurve builds a normalized curve from [temperature, duty] pairs.
func NewCurve(pairs [][]float64) (Curve, error) {
	errFactory := errors.New()

	if len(pairs) < 2 {
		return nil, errFactory.WithData(ErrCurveTooShort, len(pairs))
	}

	curve := make(Curve, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			return nil, errFactory.WithData(ErrCurveBadPoint, pair)
		}
		curve = append(curve, Point{TempC: pair[0], DutyPct: pair[1]})
	}

	sort.Slice(curve, func(i, j int) bool {
		return curve[i].TempC < curve[j].TempC
	})

	return curve, nil
}

// Interpolate returns the duty for temperature t: clamped to the first
// point's duty below the curve, to the last point's duty above it, and
// linearly interpolated between the bracketing points otherwise. A
// temperature exactly on a point returns that point's duty exactly.
func (c Curve) Interpolate(t float64) float64 {
	if t <= c[0].TempC {
		return c[0].DutyPct
	}
	if t >= c[len(c)-1].TempC {
		return c[len(c)-1].DutyPct
	}

	for i := 1; i < len(c); i++ {
		if t > c[i].TempC {
			continue
		}

		lo, hi := c[i-1], c[i]
		if hi.TempC == lo.TempC {
			return hi.DutyPct
		}

		return lo.DutyPct + (hi.DutyPct-lo.DutyPct)*(t-lo.TempC)/(hi.TempC-lo.TempC)
	}

	return c[len(c)-1].DutyPct
}
