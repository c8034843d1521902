package observability

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	metrics.Observe(Pass{Duration: 2 * time.Millisecond, Normalized: 5, Cloned: 2, Spliced: 3, Template: true})
	metrics.Observe(Pass{Duration: time.Millisecond, ErrorCode: "MISSING_SPLIT_STEP"})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.passesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.passesTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failuresTotal.WithLabelValues("MISSING_SPLIT_STEP")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.rulesTotal.WithLabelValues("cloned")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.splicesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.templateRouting))

	_, err := reg.Gather()
	require.NoError(t, err)
}

func TestNilMetricsIgnored(t *testing.T) {
	var metrics *Metrics
	metrics.Observe(Pass{Spliced: 1})
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	metrics.Observe(Pass{Spliced: 1})

	path := filepath.Join(t.TempDir(), "sfcroute.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sfcroute_style_post_splices_total 1")
}
