// Package factory instantiates pluggable modules (routing backends, route
// caches, metrics sinks) from configuration. A module is described by a type
// name and a raw settings map; each factory decodes the map into its own
// struct with Decode.
//
//	reg := factory.NewRegistry[routing.Backend]()
//	_ = reg.Register("osrm", func(conf map[string]any) (routing.Backend, error) {
//	    var c struct{ URL string `json:"url"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return newOSRM(c.URL), nil
//	})
//	b, err := reg.Create(factory.ModuleConfig{Type: "osrm", Conf: map[string]any{"url": "http://localhost:5000"}})
package factory
