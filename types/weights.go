package types

// TierWeight is the share of a topic's partitions given to one priority class.
type TierWeight struct {
	Priority Priority `json:"priority" yaml:"priority"`

	// Fraction is the share in [0, 1]. The last tier in a Weights sequence
	// absorbs the rounding remainder regardless of its own fraction.
	Fraction float64 `json:"fraction" yaml:"fraction"`
}

// Weights is the ordered tier weight sequence. Order determines layout: the
// first entry owns the lowest partition indices.
type Weights []TierWeight

// DefaultWeights returns the process default layout: High 0.5, Medium 0.3,
// Low 0.2.
func DefaultWeights() Weights {
	return Weights{
		{Priority: PriorityHigh, Fraction: 0.5},
		{Priority: PriorityMedium, Fraction: 0.3},
		{Priority: PriorityLow, Fraction: 0.2},
	}
}

// Sum returns the total of all fractions.
func (w Weights) Sum() float64 {
	var sum float64
	for _, tw := range w {
		sum += tw.Fraction
	}

	return sum
}

// Fraction returns the fraction configured for p.
//
// Returns:
//   - float64: Configured fraction
//   - bool: false if p is not part of the sequence
func (w Weights) Fraction(p Priority) (float64, bool) {
	for _, tw := range w {
		if tw.Priority == p {
			return tw.Fraction, true
		}
	}

	return 0, false
}

// Clone returns a copy that can be modified without affecting w.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	copy(out, w)

	return out
}
