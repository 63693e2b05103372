package testing

import (
	"testing"

	"github.com/no0law1/kafka-prioritization/internal/logger"
	"github.com/no0law1/kafka-prioritization/types"
)

// NewTestLogger creates a logger that writes to the test log.
// Entries logged after the test has finished are dropped.
func NewTestLogger(t testing.TB) types.Logger {
	return logger.NewTest(t)
}
