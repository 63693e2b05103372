package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriorityString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "High", PriorityHigh.String())
	require.Equal(t, "Medium", PriorityMedium.String())
	require.Equal(t, "Low", PriorityLow.String())
	require.Equal(t, "Unknown", Priority(7).String())
	require.Equal(t, "Unknown", Priority(-1).String())
}

func TestParsePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"High", PriorityHigh, false},
		{"high", PriorityHigh, false},
		{" MEDIUM ", PriorityMedium, false},
		{"low", PriorityLow, false},
		{"urgent", 0, true},
		{"", 0, true},
		{"0", 0, true},
		{"Highest", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPriority)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestPriorityKeyRoundTrip(t *testing.T) {
	t.Parallel()

	for _, p := range AllPriorities() {
		got, err := DecodeKey(p.Key())
		require.NoError(t, err)
		require.Equal(t, p, got)
	}

	require.Nil(t, Priority(9).Key())

	_, err := DecodeKey(nil)
	require.ErrorIs(t, err, ErrInvalidPriority)
}

func TestPriorityText(t *testing.T) {
	t.Parallel()

	b, err := PriorityMedium.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "Medium", string(b))

	_, err = Priority(5).MarshalText()
	require.ErrorIs(t, err, ErrInvalidPriority)

	var p Priority
	require.NoError(t, p.UnmarshalText([]byte("low")))
	require.Equal(t, PriorityLow, p)
	require.ErrorIs(t, p.UnmarshalText([]byte("nope")), ErrInvalidPriority)
}

func TestAllPrioritiesOrder(t *testing.T) {
	t.Parallel()

	all := AllPriorities()
	require.Equal(t, []Priority{PriorityHigh, PriorityMedium, PriorityLow}, all)

	all[0] = PriorityLow
	require.Equal(t, PriorityHigh, AllPriorities()[0])
}
