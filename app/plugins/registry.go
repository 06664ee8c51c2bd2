// Package plugins links the built-in pluggable modules into the binary and
// lists what can be named in a configuration file.
package plugins

import (
	"github.com/kilianp07/fieldsim/core/eventlog"
	coremetrics "github.com/kilianp07/fieldsim/core/metrics"
	"github.com/kilianp07/fieldsim/core/routing"
)

// Kind groups modules by the configuration key selecting them.
type Kind string

const (
	KindRoutingBackend Kind = "routing.backend"
	KindRouteCache     Kind = "routing.cache"
	KindMetricsSink    Kind = "metrics.sinks"
	KindEventLog       Kind = "eventlog.backend"
)

// Kinds is the display order of Catalog.
var Kinds = []Kind{KindRoutingBackend, KindRouteCache, KindMetricsSink, KindEventLog}

// Catalog returns the registered module names per kind, sorted.
func Catalog() map[Kind][]string {
	return map[Kind][]string{
		KindRoutingBackend: routing.Backends(),
		KindRouteCache:     append([]string{"none"}, routing.Caches()...),
		KindMetricsSink:    coremetrics.Sinks(),
		KindEventLog: {
			eventlog.BackendNone,
			eventlog.BackendJSONL,
			eventlog.BackendRotating,
			eventlog.BackendSQLite,
		},
	}
}
