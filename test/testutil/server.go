package testutil

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

// RestartableNATS is an in-process JetStream server whose port and store
// directory survive Stop, so Start brings back the same streams and
// durable consumers.
type RestartableNATS struct {
	t    testing.TB
	opts server.Options

	mu  sync.Mutex
	srv *server.Server
}

// StartRestartableNATS starts a JetStream server on a free local port with
// file storage in a test temp directory.
//
// The server is shut down when the test completes.
//
// Parameters:
//   - t: Testing context for assertions and cleanup
//
// Returns:
//   - *RestartableNATS: Running server
func StartRestartableNATS(t testing.TB) *RestartableNATS {
	t.Helper()

	s := &RestartableNATS{
		t: t,
		opts: server.Options{
			Host:      "127.0.0.1",
			Port:      freePort(t),
			JetStream: true,
			StoreDir:  t.TempDir(),
			NoLog:     true,
			NoSigs:    true,
		},
	}
	s.Start()
	t.Cleanup(s.Stop)

	return s
}

// freePort asks the kernel for an unused port. The listener is closed
// before the server binds it.
func freePort(t testing.TB) int {
	t.Helper()

	//nolint:noctx // test helper
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = l.Close() }()

	addr, ok := l.Addr().(*net.TCPAddr)
	require.True(t, ok)

	return addr.Port
}

// Start runs the server if it is not running.
func (s *RestartableNATS) Start() {
	s.t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return
	}

	opts := s.opts
	srv, err := server.NewServer(&opts)
	require.NoError(s.t, err, "create NATS server")

	go srv.Start()
	require.True(s.t, srv.ReadyForConnections(10*time.Second), "NATS server not ready within timeout")

	s.srv = srv
}

// Stop shuts the server down and waits for it. Safe to call when stopped.
func (s *RestartableNATS) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv == nil {
		return
	}
	s.srv.Shutdown()
	s.srv.WaitForShutdown()
	s.srv = nil
}

// URL returns the client URL, stable across restarts.
func (s *RestartableNATS) URL() string {
	return "nats://" + net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Connect opens a client that reconnects forever, closed on test cleanup.
//
// Returns:
//   - *nats.Conn: Connected client
func (s *RestartableNATS) Connect() *nats.Conn {
	s.t.Helper()

	nc, err := nats.Connect(s.URL(),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(50*time.Millisecond),
		nats.Timeout(2*time.Second),
	)
	require.NoError(s.t, err, "connect to %s", s.URL())
	s.t.Cleanup(nc.Close)

	return nc
}
