package runner

import "math"

// Ease maps raw progress in [0, 1] to eased progress. Implementations
// must be pure and fix the endpoints: Ease(0) == 0 and Ease(1) == 1.
type Ease func(pos float64) float64

const (
	backC1 = 1.70158
	backC3 = backC1 + 1
)

// Linear returns progress unchanged.
func Linear(p float64) float64 { return p }

func QuadIn(p float64) float64  { return p * p }
func QuadOut(p float64) float64 { return 1 - (1-p)*(1-p) }

func QuadInOut(p float64) float64 {
	if p < 0.5 {
		return 2 * p * p
	}
	q := -2*p + 2
	return 1 - q*q/2
}

func CubicIn(p float64) float64 { return p * p * p }

func CubicOut(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}

func CubicInOut(p float64) float64 {
	if p < 0.5 {
		return 4 * p * p * p
	}
	q := -2*p + 2
	return 1 - q*q*q/2
}

func SineIn(p float64) float64    { return 1 - math.Cos(p*math.Pi/2) }
func SineOut(p float64) float64   { return math.Sin(p * math.Pi / 2) }
func SineInOut(p float64) float64 { return -(math.Cos(math.Pi*p) - 1) / 2 }

func ExpoIn(p float64) float64 {
	if p == 0 {
		return 0
	}
	return math.Pow(2, 10*p-10)
}

func ExpoOut(p float64) float64 {
	if p == 1 {
		return 1
	}
	return 1 - math.Pow(2, -10*p)
}

func BackIn(p float64) float64 {
	return backC3*p*p*p - backC1*p*p
}

func BackOut(p float64) float64 {
	q := p - 1
	return 1 + backC3*q*q*q + backC1*q*q
}

func BounceOut(p float64) float64 {
	const n1 = 7.5625
	const d1 = 2.75
	switch {
	case p < 1/d1:
		return n1 * p * p
	case p < 2/d1:
		p -= 1.5 / d1
		return n1*p*p + 0.75
	case p < 2.5/d1:
		p -= 2.25 / d1
		return n1*p*p + 0.9375
	default:
		p -= 2.625 / d1
		return n1*p*p + 0.984375
	}
}

var eases = map[string]Ease{
	"linear":       Linear,
	"quad-in":      QuadIn,
	"quad-out":     QuadOut,
	"quad-in-out":  QuadInOut,
	"cubic-in":     CubicIn,
	"cubic-out":    CubicOut,
	"cubic-in-out": CubicInOut,
	"sine-in":      SineIn,
	"sine-out":     SineOut,
	"sine-in-out":  SineInOut,
	"expo-in":      ExpoIn,
	"expo-out":     ExpoOut,
	"back-in":      BackIn,
	"back-out":     BackOut,
	"bounce-out":   BounceOut,
}

// EaseByName resolves a named easing function. The empty name resolves
// to Linear.
func EaseByName(name string) (Ease, bool) {
	if name == "" {
		return Linear, true
	}
	e, ok := eases[name]
	return e, ok
}

// EaseNames returns the registered easing names, unsorted.
func EaseNames() []string {
	names := make([]string, 0, len(eases))
	for name := range eases {
		names = append(names, name)
	}
	return names
}
