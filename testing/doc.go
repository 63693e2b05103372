// Package testing provides test utilities for the prioritization module.
//
// It offers embedded NATS servers with JetStream for integration tests and
// helpers that lay out streams the way the JetStream substrate expects, in
// the spirit of net/http/httptest.
//
// Key utilities:
//   - StartEmbeddedNATS / StartEmbeddedJetStream: single in-process server
//   - CreateTopicStream: partitioned topic stream (<topic>.<index> subjects)
//   - CreateJetStreamKV: KV bucket for table store tests
//   - NewTestLogger: types.Logger writing to the test log
//
// Example usage:
//
//	import (
//	    "testing"
//	    priotest "github.com/no0law1/kafka-prioritization/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := priotest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
