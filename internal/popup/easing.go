package popup

const (
	backC1 = 1.70158
	backC3 = backC1 + 1
)

// EaseOutCubic decelerates to 1 without overshoot.
func EaseOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}

// EaseInCubic accelerates from 0.
func EaseInCubic(t float64) float64 {
	return t * t * t
}

// EaseOutBack overshoots past 1 before settling on exactly 1 at t=1.
func EaseOutBack(t float64) float64 {
	u := t - 1
	return 1 + backC3*u*u*u + backC1*u*u
}

func clamp01(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t > 1:
		return 1
	default:
		return t
	}
}
