package types

import (
	"fmt"
	"strings"
)

// Priority is the urgency class carried by every routed message.
//
// The set is closed and ordered by descending urgency:
//
//	PriorityHigh → PriorityMedium → PriorityLow
//
// The numeric order is also the order in which tiers are laid out over the
// topic's partitions, so High always owns the lowest partition indices.
type Priority int

const (
	// PriorityHigh is the most urgent class.
	PriorityHigh Priority = iota

	// PriorityMedium is the intermediate class.
	PriorityMedium

	// PriorityLow is the least urgent class. As the last tier it absorbs any
	// partitions left over by floor rounding.
	PriorityLow
)

// priorityNames maps each class to its canonical wire name.
var priorityNames = [...]string{
	PriorityHigh:   "High",
	PriorityMedium: "Medium",
	PriorityLow:    "Low",
}

// AllPriorities returns every priority class in tier layout order.
//
// Returns:
//   - []Priority: High, Medium, Low (fresh slice, safe to modify)
func AllPriorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// Valid reports whether p is one of the recognized priority classes.
func (p Priority) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

// String returns the canonical name of the priority ("High", "Medium", "Low").
func (p Priority) String() string {
	if !p.Valid() {
		return "Unknown"
	}

	return priorityNames[p]
}

// Key returns the message key encoding of the priority.
//
// The key is the canonical name as UTF-8 bytes, which is what the producer
// partitioner decodes on the publish path.
//
// Returns:
//   - []byte: Encoded key (nil for an unrecognized priority)
func (p Priority) Key() []byte {
	if !p.Valid() {
		return nil
	}

	return []byte(priorityNames[p])
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, int(p))
	}

	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed

	return nil
}

// ParsePriority decodes a priority label.
//
// Matching is case-insensitive and ignores surrounding whitespace. Numeric
// labels are rejected: only the three class names are accepted.
//
// Parameters:
//   - s: Label to decode (e.g., "high", "Medium", " LOW ")
//
// Returns:
//   - Priority: Decoded class
//   - error: ErrInvalidPriority (wrapped) if s is not a recognized label
func ParsePriority(s string) (Priority, error) {
	label := strings.TrimSpace(s)
	for i, name := range priorityNames {
		if strings.EqualFold(label, name) {
			return Priority(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// DecodeKey decodes a message key produced by Priority.Key.
//
// Parameters:
//   - key: Raw key bytes (nil or empty keys are rejected)
//
// Returns:
//   - Priority: Decoded class
//   - error: ErrInvalidPriority (wrapped) if the key is missing or unrecognized
func DecodeKey(key []byte) (Priority, error) {
	if len(key) == 0 {
		return 0, fmt.Errorf("%w: empty message key", ErrInvalidPriority)
	}

	return ParsePriority(string(key))
}
