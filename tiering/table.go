package tiering

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/no0law1/kafka-prioritization/types"
)

// Table is the partition tier table for one partition count.
//
// A Table is immutable after construction and safe to share between
// goroutines without locking.
type Table struct {
	total       int
	ranges      []types.TierRange
	version     int64
	fingerprint uint64
}

// New computes and validates a table.
//
// The returned table has version 0; tables obtained through a Registry carry
// the version the registry stamped.
//
// Parameters:
//   - total: Partition count of the topic
//   - weights: Ordered tier weights
//
// Returns:
//   - *Table: Validated table
//   - error: ErrConfiguration (wrapped) for invalid input
func New(total int, weights types.Weights) (*Table, error) {
	ranges, err := Compute(total, weights)
	if err != nil {
		return nil, err
	}

	t := &Table{total: total, ranges: ranges}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.fingerprint = fingerprint(total, ranges)

	return t, nil
}

// Validate checks the layout invariant: ranges are contiguous in order,
// start at 0, end at the total, and never overlap.
//
// Returns:
//   - error: ErrConfiguration (wrapped) describing the first violation
func (t *Table) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil table", types.ErrConfiguration)
	}
	if t.total <= 0 {
		return fmt.Errorf("%w: total partitions must be positive, got %d", types.ErrConfiguration, t.total)
	}
	if len(t.ranges) == 0 {
		return fmt.Errorf("%w: table has no tiers", types.ErrConfiguration)
	}

	cursor := 0
	for _, tr := range t.ranges {
		if tr.Range.Start != cursor {
			return fmt.Errorf("%w: tier %s starts at %d, expected %d", types.ErrConfiguration, tr.Priority, tr.Range.Start, cursor)
		}
		if tr.Range.End < tr.Range.Start || tr.Range.End > t.total {
			return fmt.Errorf("%w: tier %s range %s out of bounds [0,%d)", types.ErrConfiguration, tr.Priority, tr.Range, t.total)
		}
		cursor = tr.Range.End
	}
	if cursor != t.total {
		return fmt.Errorf("%w: tiers cover [0,%d), expected [0,%d)", types.ErrConfiguration, cursor, t.total)
	}

	return nil
}

// Range returns the partition range owned by p.
//
// Returns:
//   - types.PartitionRange: The tier's range (may be empty)
//   - error: ErrInvalidPriority (wrapped) if p has no tier in this table
func (t *Table) Range(p types.Priority) (types.PartitionRange, error) {
	for _, tr := range t.ranges {
		if tr.Priority == p {
			return tr.Range, nil
		}
	}

	return types.PartitionRange{}, fmt.Errorf("%w: no tier for priority %s", types.ErrInvalidPriority, p)
}

// PriorityOf returns the tier that owns partition.
//
// Returns:
//   - types.Priority: Owning tier
//   - bool: false if partition is outside [0, total)
func (t *Table) PriorityOf(partition int) (types.Priority, bool) {
	for _, tr := range t.ranges {
		if tr.Range.Contains(partition) {
			return tr.Priority, true
		}
	}

	return 0, false
}

// Ranges returns a copy of the ordered tier ranges.
func (t *Table) Ranges() []types.TierRange {
	out := make([]types.TierRange, len(t.ranges))
	copy(out, t.ranges)

	return out
}

// EmptyTiers returns the priorities whose range owns no partitions.
func (t *Table) EmptyTiers() []types.Priority {
	var out []types.Priority
	for _, tr := range t.ranges {
		if tr.Range.Empty() {
			out = append(out, tr.Priority)
		}
	}

	return out
}

// TotalPartitions returns the partition count the table covers.
func (t *Table) TotalPartitions() int {
	return t.total
}

// Version returns the registry-assigned version (0 for standalone tables).
func (t *Table) Version() int64 {
	return t.version
}

// Fingerprint returns an xxh3 hash over the total and the ordered ranges.
//
// Two processes computing the same layout get the same fingerprint
// regardless of version.
func (t *Table) Fingerprint() uint64 {
	return t.fingerprint
}

// String renders the table, e.g. "High[0,9) Medium[9,14) Low[14,18)".
func (t *Table) String() string {
	var sb strings.Builder
	for i, tr := range t.ranges {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(tr.Priority.String())
		sb.WriteString(tr.Range.String())
	}

	return sb.String()
}

// withVersion returns a copy of t stamped with v.
func (t *Table) withVersion(v int64) *Table {
	cp := *t
	cp.version = v

	return &cp
}

func fingerprint(total int, ranges []types.TierRange) uint64 {
	buf := make([]byte, 0, 8+len(ranges)*24)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(total)) //nolint:gosec
	for _, tr := range ranges {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(tr.Priority))    //nolint:gosec
		buf = binary.LittleEndian.AppendUint64(buf, uint64(tr.Range.Start)) //nolint:gosec
		buf = binary.LittleEndian.AppendUint64(buf, uint64(tr.Range.End))   //nolint:gosec
	}

	return xxh3.Hash(buf)
}

// Descriptor is the serializable form of a table, exchanged between
// processes to detect desynchronised layouts.
type Descriptor struct {
	TotalPartitions int               `json:"totalPartitions"`
	Ranges          []types.TierRange `json:"ranges"`
	Fingerprint     uint64            `json:"fingerprint"`
	Version         int64             `json:"version"`
}

// Descriptor returns the serializable form of t.
func (t *Table) Descriptor() Descriptor {
	return Descriptor{
		TotalPartitions: t.total,
		Ranges:          t.Ranges(),
		Fingerprint:     t.fingerprint,
		Version:         t.version,
	}
}

// Matches reports whether d describes the same layout as t.
func (d Descriptor) Matches(t *Table) bool {
	return t != nil && d.TotalPartitions == t.total && d.Fingerprint == t.fingerprint
}
