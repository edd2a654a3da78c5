package pulse

import "github.com/talgya/undercurrent/internal/entropy"

// Record is a pulse record addressable by its field enum.
type Record[F ~string, R any] interface {
	Value(F) (float64, bool)
	WithValue(F, float64) R
}

// ApplyDeltas adds each delta to its field and clamps the result to the
// field's bound. Fields the record does not know are skipped.
func ApplyDeltas[F ~string, R Record[F, R]](r R, deltas map[F]float64) R {
	for f, d := range deltas {
		cur, ok := r.Value(f)
		if !ok {
			continue
		}
		r = r.WithValue(f, cur+d)
	}
	return r
}

// ScaleDeltas returns a copy of deltas with every value multiplied by k.
func ScaleDeltas[F ~string](deltas map[F]float64, k float64) map[F]float64 {
	out := make(map[F]float64, len(deltas))
	for f, d := range deltas {
		out[f] = d * k
	}
	return out
}

// Drift moves current by a centred random step of width span, pushed by
// bias (in units of span), then clamps to b.
func Drift(current, span, bias float64, b Bound, rng entropy.Source) float64 {
	return b.Clamp(current + (rng.Float()-0.5+bias)*span)
}
