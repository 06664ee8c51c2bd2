// Package infra contains technical adapters: route backends, the route cache,
// CSV input, MQTT publication, metrics exporters, logging and error
// monitoring. These packages depend only on the interfaces defined in the
// core packages.
package infra
