package plugins

// Blank imports register the built-in modules with their registries.
import (
	_ "github.com/kilianp07/fieldsim/infra/metrics"
	_ "github.com/kilianp07/fieldsim/infra/routecache"
	_ "github.com/kilianp07/fieldsim/infra/routing"
)
