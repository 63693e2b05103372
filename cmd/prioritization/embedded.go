package main

import (
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/no0law1/kafka-prioritization/types"
)

// startEmbeddedServer runs an in-process NATS server with JetStream on a
// random local port. Its store directory is removed on shutdown.
func startEmbeddedServer(logger types.Logger) (*server.Server, error) {
	storeDir, err := os.MkdirTemp("", "prioritization-nats-")
	if err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      server.RANDOM_PORT,
		JetStream: true,
		StoreDir:  storeDir,
		NoLog:     true,
		NoSigs:    true, // signals are handled by the command
	}

	srv, err := server.NewServer(opts)
	if err != nil {
		_ = os.RemoveAll(storeDir)
		return nil, fmt.Errorf("failed to create NATS server: %w", err)
	}

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		_ = os.RemoveAll(storeDir)

		return nil, fmt.Errorf("%w: embedded NATS server not ready within timeout", types.ErrConnectivity)
	}

	go func() {
		srv.WaitForShutdown()
		_ = os.RemoveAll(storeDir)
	}()

	logger.Info("embedded NATS server started", "url", srv.ClientURL())

	return srv, nil
}
