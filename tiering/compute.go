package tiering

import (
	"fmt"
	"math"

	"github.com/no0law1/kafka-prioritization/types"
)

// sumEpsilon tolerates float error when weights like 0.5+0.3+0.2 are summed.
const sumEpsilon = 1e-9

// Compute lays the configured tiers out over a topic's partitions.
//
// Tiers are processed in the given order starting at partition 0. Every tier
// except the last gets floor(total*fraction) partitions; the last tier takes
// everything from the cursor to total, absorbing the rounding remainder. A
// non-last tier may come out empty for small totals.
//
// Parameters:
//   - total: Partition count of the topic (must be positive)
//   - weights: Ordered tier weights (no duplicates, fractions in [0,1], sum <= 1)
//
// Returns:
//   - []types.TierRange: One range per weight, in weight order, contiguous,
//     disjoint and covering [0, total)
//   - error: ErrConfiguration (wrapped) for invalid input
//
// Example:
//
//	ranges, _ := tiering.Compute(18, types.DefaultWeights())
//	// High [0,9) Medium [9,14) Low [14,18)
func Compute(total int, weights types.Weights) ([]types.TierRange, error) {
	if err := validateInput(total, weights); err != nil {
		return nil, err
	}

	ranges := make([]types.TierRange, 0, len(weights))
	cursor := 0
	last := len(weights) - 1
	for i, w := range weights {
		end := total
		if i != last {
			n := int(math.Floor(float64(total) * w.Fraction))
			end = min(cursor+n, total)
		}
		ranges = append(ranges, types.TierRange{
			Priority: w.Priority,
			Range:    types.PartitionRange{Start: cursor, End: end},
		})
		cursor = end
	}

	return ranges, nil
}

func validateInput(total int, weights types.Weights) error {
	if total <= 0 {
		return fmt.Errorf("%w: total partitions must be positive, got %d", types.ErrConfiguration, total)
	}
	if len(weights) == 0 {
		return fmt.Errorf("%w: no tier weights configured", types.ErrConfiguration)
	}

	seen := make(map[types.Priority]struct{}, len(weights))
	var sum float64
	for _, w := range weights {
		if !w.Priority.Valid() {
			return fmt.Errorf("%w: unrecognized priority %d in weights", types.ErrConfiguration, int(w.Priority))
		}
		if _, dup := seen[w.Priority]; dup {
			return fmt.Errorf("%w: duplicate weight for %s", types.ErrConfiguration, w.Priority)
		}
		seen[w.Priority] = struct{}{}

		if math.IsNaN(w.Fraction) || w.Fraction < 0 || w.Fraction > 1 {
			return fmt.Errorf("%w: fraction for %s must be in [0,1], got %v", types.ErrConfiguration, w.Priority, w.Fraction)
		}
		sum += w.Fraction
	}

	if sum > 1+sumEpsilon {
		return fmt.Errorf("%w: tier fractions sum to %v, must not exceed 1", types.ErrConfiguration, sum)
	}

	return nil
}
