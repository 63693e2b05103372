// Package source provides built-in topic metadata sources.
//
// The package includes:
//
//   - Static: Fixed partition counts per topic, for offline use and tests
//
// Substrates implement types.TopicInspector themselves; Static stands in
// where no broker is available.
package source
