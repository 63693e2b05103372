package testing

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StartEmbeddedNATS starts an embedded NATS server with JetStream enabled for testing.
//
// The server runs in-process, listens on a random port and stores data in a
// temporary directory removed when the test completes.
//
// Parameters:
//   - t: Testing context for logging and cleanup
//
// Returns:
//   - *server.Server: The embedded NATS server instance
//   - *nats.Conn: Connected NATS client (closed automatically on test completion)
//
// Example:
//
//	func TestPublish(t *testing.T) {
//	    _, nc := priotest.StartEmbeddedNATS(t)
//	    js, _ := jetstream.New(nc)
//	    // ...
//	}
func StartEmbeddedNATS(t testing.TB) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create embedded NATS server: %v", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		t.Fatal("Embedded NATS server not ready within timeout")
	}

	nc, err := nats.Connect(ns.ClientURL(),
		nats.Timeout(2*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(3),
	)
	if err != nil {
		ns.Shutdown()
		t.Fatalf("Failed to connect to embedded NATS server: %v", err)
	}

	// executed in reverse order
	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	return ns, nc
}

// StartEmbeddedJetStream is StartEmbeddedNATS returning a JetStream context.
func StartEmbeddedJetStream(t testing.TB) (*nats.Conn, jetstream.JetStream) {
	t.Helper()

	_, nc := StartEmbeddedNATS(t)
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("Failed to get JetStream context: %v", err)
	}

	return nc, js
}

// CreateTopicStream creates a memory-backed stream laid out as a partitioned
// topic: subjects <topic>.<index> and the partition count in its metadata.
//
// Parameters:
//   - t: Testing context
//   - js: JetStream context
//   - topic: Topic (stream) name
//   - partitions: Partition count recorded in the stream metadata
//
// Returns:
//   - jetstream.Stream: The created stream
//
// Example:
//
//	_, js := priotest.StartEmbeddedJetStream(t)
//	priotest.CreateTopicStream(t, js, "communications", 18)
func CreateTopicStream(t testing.TB, js jetstream.JetStream, topic string, partitions int) jetstream.Stream {
	t.Helper()

	stream, err := js.CreateStream(t.Context(), jetstream.StreamConfig{
		Name:        topic,
		Description: fmt.Sprintf("Test topic: %s", topic),
		Subjects:    []string{topic + ".*"},
		Metadata:    map[string]string{"partitions": strconv.Itoa(partitions)},
		Storage:     jetstream.MemoryStorage,
		Replicas:    1,
	})
	if err != nil {
		t.Fatalf("Failed to create topic stream %s: %v", topic, err)
	}

	return stream
}

// CreateJetStreamKV creates a memory-backed JetStream KV bucket for testing.
//
// Parameters:
//   - t: Testing context
//   - nc: NATS connection (from StartEmbeddedNATS)
//   - bucketName: Name of the KV bucket to create
//
// Returns:
//   - jetstream.KeyValue: The created KV bucket interface
func CreateJetStreamKV(t testing.TB, nc *nats.Conn, bucketName string) jetstream.KeyValue {
	t.Helper()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("Failed to get JetStream context: %v", err)
	}

	kv, err := js.CreateKeyValue(t.Context(), jetstream.KeyValueConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Test KV bucket: %s", bucketName),
		TTL:         1 * time.Minute,
		Storage:     jetstream.MemoryStorage,
		Replicas:    1,
	})
	if err != nil {
		t.Fatalf("Failed to create KV bucket %s: %v", bucketName, err)
	}

	return kv
}
