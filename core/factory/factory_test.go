package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	URL     string
	Timeout time.Duration
}

type backendConf struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"`
	Retries int           `json:"retries"`
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry[*backend]()
	require.NoError(t, reg.Register("OSRM", func(conf map[string]any) (*backend, error) {
		var c backendConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &backend{URL: c.URL, Timeout: c.Timeout}, nil
	}))
	b, err := reg.Create(ModuleConfig{Type: "osrm", Conf: map[string]any{"url": "http://x", "timeout": "3s"}})
	require.NoError(t, err)
	assert.Equal(t, "http://x", b.URL)
	assert.Equal(t, 3*time.Second, b.Timeout)
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("X", func(map[string]any) (int, error) { return 2, nil }))
	assert.Error(t, reg.Register("y", nil))
	_, err := reg.Create(ModuleConfig{Type: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x")
	assert.Equal(t, []string{"x"}, reg.Names())
}

func TestDecodeWeakTypes(t *testing.T) {
	var c backendConf
	require.NoError(t, Decode(map[string]any{"retries": "4"}, &c))
	assert.Equal(t, 4, c.Retries)
}
