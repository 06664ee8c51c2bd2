// Package metrics defines the observability hooks of a simulation run.
// Every sink records lifecycle events; sinks may additionally implement the
// optional recorder interfaces for unfilled tickets, route lookups and pool
// sizes. Several configured sinks are combined into a MultiSink.
package metrics
