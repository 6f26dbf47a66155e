package similarity

// ScoreFunc computes the similarity of two texts in [0,1].
type ScoreFunc func(a, b string) float64

// Ratio returns the matching-blocks similarity of a and b in [0,1].
//
// Both empty gives 1.0, exactly one empty gives 0.0. Comparison is per rune and
// sensitive to case and whitespace. The operands are put in a canonical order
// before matching so Ratio(a, b) == Ratio(b, a) holds exactly.
func Ratio(a, b string) float64 {
	return RatioWith(a, b)
}

// RatioWith is Ratio with matcher options.
func RatioWith(a, b string, opts ...Option) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}
	a, b = canonical(a, b)
	return NewMatcher(a, b, opts...).Ratio()
}

// Scorer returns a ScoreFunc bound to the given options.
func Scorer(opts ...Option) ScoreFunc {
	return func(a, b string) float64 {
		return RatioWith(a, b, opts...)
	}
}

// canonical orders two texts shorter first, then lexically.
func canonical(a, b string) (string, string) {
	if len(a) > len(b) || (len(a) == len(b) && a > b) {
		return b, a
	}
	return a, b
}
