package routing

import "github.com/kilianp07/fieldsim/core/factory"

func factoryConfig(typ string) factory.ModuleConfig {
	return factory.ModuleConfig{Type: typ}
}
