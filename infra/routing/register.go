package routing

import (
	"github.com/kilianp07/fieldsim/core/factory"
	corerouting "github.com/kilianp07/fieldsim/core/routing"
)

func init() {
	_ = corerouting.RegisterBackend("osrm", func(conf map[string]any) (corerouting.Backend, error) {
		var c OSRMConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewOSRMBackend(c), nil
	})
	_ = corerouting.RegisterBackend("ors", func(conf map[string]any) (corerouting.Backend, error) {
		var c ORSConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewORSBackend(c), nil
	})
	_ = corerouting.RegisterBackend("straightline", func(conf map[string]any) (corerouting.Backend, error) {
		var c StraightLineConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewStraightLineBackend(c), nil
	})
}
