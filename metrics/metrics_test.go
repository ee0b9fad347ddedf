package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.BytesRead.Add(42)
	m.SessionsOpen.Inc()
	m.SessionsClosed.WithLabelValues("closed").Inc()

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 8, count)
	assert.Equal(t, 42.0, testutil.ToFloat64(m.BytesRead))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsOpen))
}

func TestNilRegistryIsAllowedTwice(t *testing.T) {
	a := New(nil)
	b := New(nil)
	a.WriteErrors.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.WriteErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.WriteErrors))
}
