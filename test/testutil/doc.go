// Package testutil provides shared fixtures for the router integration tests.
//
// Examples of utilities that belong here:
//   - A NATS server that can be stopped and restarted on the same port and store
//   - Handlers that record what each tier consumed and how long it waited
//
// Note: For a plain embedded NATS server, use the
// github.com/no0law1/kafka-prioritization/testing package. This package is
// specifically for scenarios that need more control than a fresh server.
package testutil
