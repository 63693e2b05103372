package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/no0law1/kafka-prioritization/types"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want inputLine
		skip bool
	}{
		{name: "blank", line: "   ", skip: true},
		{name: "exit", line: "exit", want: inputLine{exit: true}},
		{name: "exit any case", line: " EXIT ", want: inputLine{exit: true}},
		{
			name: "label only uses label as message",
			line: "high",
			want: inputLine{priority: types.PriorityHigh, label: "high", message: "high"},
		},
		{
			name: "label and message",
			line: "Medium  rebuild search index ",
			want: inputLine{priority: types.PriorityMedium, label: "Medium", message: "rebuild search index"},
		},
		{
			name: "unknown falls back to low",
			line: "urgent page oncall",
			want: inputLine{priority: types.PriorityLow, label: "urgent", message: "page oncall", fallback: true},
		},
		{
			name: "numeric label is not a priority",
			line: "0",
			want: inputLine{priority: types.PriorityLow, label: "0", message: "low", fallback: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, skip := parseLine(tt.line)
			require.Equal(t, tt.skip, skip)
			require.Equal(t, tt.want, got)
		})
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(t.Context())

	return out.String(), err
}

func TestRangesCommand(t *testing.T) {
	out, err := execute(t, "ranges")
	require.NoError(t, err)
	require.Contains(t, out, "topic communications, 18 partitions")
	require.Contains(t, out, "[0,9)")
	require.Contains(t, out, "[9,14)")
	require.Contains(t, out, "[14,18)")
	require.NotContains(t, out, "warning")
}

func TestRangesCommand_EmptyTier(t *testing.T) {
	out, err := execute(t, "ranges", "--partitions", "2")
	require.NoError(t, err)
	require.Contains(t, out, "topic communications, 2 partitions")
	require.Contains(t, out, "owns no partitions")
}

func TestRangesCommand_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`topic: alerts
totalPartitions: 10
weights:
  high: 0.2
  medium: 0.3
  low: 0.5
`), 0o600))

	out, err := execute(t, "--config", path, "ranges")
	require.NoError(t, err)
	require.Contains(t, out, "topic alerts, 10 partitions")
	require.Contains(t, out, "[0,2)")
	require.Contains(t, out, "[2,5)")
	require.Contains(t, out, "[5,10)")
}

func TestRangesCommand_Live(t *testing.T) {
	out, err := execute(t, "--substrate", "memory", "ranges", "--live")
	require.NoError(t, err)
	require.Contains(t, out, "18 partitions")
}

func TestUnknownSubstrate(t *testing.T) {
	_, err := execute(t, "--substrate", "carrier-pigeon", "produce", "high")
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestProduceCommand(t *testing.T) {
	out, err := execute(t, "--substrate", "memory", "produce", "high", "disk", "full")
	require.NoError(t, err)
	require.Contains(t, out, "published High message to communications partition")

	_, err = execute(t, "--substrate", "memory", "produce", "urgent")
	require.ErrorIs(t, err, types.ErrInvalidPriority)
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of the tier
// workers and reads of the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestRunInteractive_Memory(t *testing.T) {
	in, stdin := io.Pipe()
	out := &syncBuffer{}
	opts := &globalOptions{substrate: substrateMemory, logLevel: "error"}

	done := make(chan error, 1)
	go func() {
		done <- runInteractive(t.Context(), opts, in, out)
	}()

	write := func(line string) {
		_, err := io.WriteString(stdin, line+"\n")
		assert.NoError(t, err)
	}

	write("high db-1 down")
	write("medium")
	write("whatever nightly report")

	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "[High] consumed message: db-1 down on partition") &&
			strings.Contains(s, "[Medium] consumed message: medium on partition") &&
			strings.Contains(s, "[Low] consumed message: nightly report on partition")
	}, 5*time.Second, 10*time.Millisecond)
	require.Contains(t, out.String(), `Invalid priority "whatever". Setting priority to "low".`)

	write("exit")
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after exit")
	}
	require.NoError(t, stdin.Close())
}

func TestRunInteractive_EOF(t *testing.T) {
	opts := &globalOptions{substrate: substrateMemory, logLevel: "error"}
	out := &syncBuffer{}

	require.NoError(t, runInteractive(t.Context(), opts, strings.NewReader(""), out))
	require.Contains(t, out.String(), "tier table: High[0,9) Medium[9,14) Low[14,18)")
}
