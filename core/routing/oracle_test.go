package routing

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fieldsim/core/model"
)

type scriptedBackend struct {
	results []float64
	errs    []error
	calls   []model.Coordinate
	block   bool
}

func (b *scriptedBackend) Route(ctx context.Context, _, to model.Coordinate) (float64, error) {
	i := len(b.calls)
	b.calls = append(b.calls, to)
	if b.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if i < len(b.errs) && b.errs[i] != nil {
		return 0, b.errs[i]
	}
	if i < len(b.results) {
		return b.results[i], nil
	}
	return 0, ErrNoRoute
}

func TestPerturbingOracleFirstAttempt(t *testing.T) {
	b := &scriptedBackend{results: []float64{12500}}
	o := NewPerturbingOracle(b, LadderConfig{}, nil)
	km, err := o.Distance(context.Background(), model.Coordinate{}, model.Coordinate{Lat: 1, Lon: 2})
	require.NoError(t, err)
	assert.InDelta(t, 12.5, km, 1e-9)
	require.Len(t, b.calls, 1)
	assert.Equal(t, model.Coordinate{Lat: 1, Lon: 2}, b.calls[0])
}

func TestPerturbingOracleLadderOrder(t *testing.T) {
	fail := errors.New("no snap")
	b := &scriptedBackend{
		errs:    []error{fail, fail, fail},
		results: []float64{0, 0, 0, 4000},
	}
	o := NewPerturbingOracle(b, LadderConfig{}, nil)
	dest := model.Coordinate{Lat: -10, Lon: -40}
	res, err := o.Lookup(context.Background(), model.Coordinate{}, dest)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Attempts)
	assert.InDelta(t, 4.0, res.DistanceKM, 1e-9)
	want := []float64{0, 0.05, -0.05, 0.10}
	require.Len(t, b.calls, len(want))
	for i, d := range want {
		assert.InDelta(t, dest.Lat+d, b.calls[i].Lat, 1e-9, "attempt %d", i)
		assert.InDelta(t, dest.Lon+d, b.calls[i].Lon, 1e-9, "attempt %d", i)
	}
}

func TestPerturbingOracleExhausted(t *testing.T) {
	b := &scriptedBackend{}
	o := NewPerturbingOracle(b, LadderConfig{}, nil)
	res, err := o.Lookup(context.Background(), model.Coordinate{}, model.Coordinate{})
	require.ErrorIs(t, err, ErrRouteNotFound)
	assert.Equal(t, 5, res.Attempts)
	assert.False(t, res.Found)
	assert.Len(t, b.calls, 5)
}

func TestPerturbingOracleAttemptTimeout(t *testing.T) {
	b := &scriptedBackend{block: true}
	o := NewPerturbingOracle(b, LadderConfig{Perturbations: []float64{0, 0.1}, AttemptTimeout: 5 * time.Millisecond}, nil)
	start := time.Now()
	_, err := o.Distance(context.Background(), model.Coordinate{}, model.Coordinate{})
	require.ErrorIs(t, err, ErrRouteNotFound)
	assert.Len(t, b.calls, 2)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPerturbingOracleCancelledContext(t *testing.T) {
	b := &scriptedBackend{results: []float64{1000}}
	o := NewPerturbingOracle(b, LadderConfig{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Distance(ctx, model.Coordinate{}, model.Coordinate{})
	require.ErrorIs(t, err, ErrRouteNotFound)
	assert.Empty(t, b.calls)
}

func TestPerturbingOracleRejectsInvalidDistance(t *testing.T) {
	b := &scriptedBackend{results: []float64{math.NaN(), -1, 2000}}
	o := NewPerturbingOracle(b, LadderConfig{}, nil)
	res, err := o.Lookup(context.Background(), model.Coordinate{}, model.Coordinate{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts)
	assert.InDelta(t, 2.0, res.DistanceKM, 1e-9)
}

type fixedOracle struct {
	km    float64
	err   error
	calls int
}

func (f *fixedOracle) Distance(context.Context, model.Coordinate, model.Coordinate) (float64, error) {
	f.calls++
	return f.km, f.err
}

func TestResolvePlainOracle(t *testing.T) {
	res, err := Resolve(context.Background(), &fixedOracle{km: 3}, model.Coordinate{}, model.Coordinate{})
	require.NoError(t, err)
	assert.Equal(t, Lookup{DistanceKM: 3, Attempts: 1, Found: true, Latency: res.Latency}, res)
}

func TestCachingOracle(t *testing.T) {
	inner := &fixedOracle{km: 7.5}
	o := NewCachingOracle(inner, NewMemoryCache(), nil)
	from, to := model.Coordinate{Lat: 1}, model.Coordinate{Lat: 2}

	res, err := o.Lookup(context.Background(), from, to)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	res, err = o.Lookup(context.Background(), from, to)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.InDelta(t, 7.5, res.DistanceKM, 1e-9)
	assert.Equal(t, 1, inner.calls)
}

func TestCachingOracleDoesNotCacheFailures(t *testing.T) {
	inner := &fixedOracle{err: ErrRouteNotFound}
	o := NewCachingOracle(inner, NewMemoryCache(), nil)
	for i := 0; i < 2; i++ {
		_, err := o.Distance(context.Background(), model.Coordinate{}, model.Coordinate{})
		require.ErrorIs(t, err, ErrRouteNotFound)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestNewCache(t *testing.T) {
	c, err := NewCache(factoryConfig("none"))
	require.NoError(t, err)
	assert.Nil(t, c)
	c, err = NewCache(factoryConfig("memory"))
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "1.00000,2.00000;-3.12346,4.00000",
		CacheKey(model.Coordinate{Lat: 1, Lon: 2}, model.Coordinate{Lat: -3.123456, Lon: 4}))
}
