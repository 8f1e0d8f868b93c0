package emu

import (
	"testing"

	"github.com/SebastianBocquet/MiraTitanHMFemulator/cosmo"
	"github.com/SebastianBocquet/MiraTitanHMFemulator/model"
	"github.com/SebastianBocquet/MiraTitanHMFemulator/model/modeltest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newTestEmulator(t, WithRegisterer(reg))

	_, _, err := e.Predict(cosmo.Fiducial(), []float64{0.5}, []float64{1e14}, true, testDraws)
	require.NoError(t, err)
	_, err = e.PredictRaw(cosmo.Fiducial(), 0, false)
	require.NoError(t, err)
	_, err = e.PredictRaw(cosmo.Params{}, 0, false)
	require.Error(t, err)

	m := e.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues("predict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues("predict_raw")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.Discarded))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Duration))

	// A registry takes one emulator's metrics only.
	_, err = New(model.Static{Artifacts: modeltest.Synthetic(7)}, WithRegisterer(reg))
	assert.Error(t, err)
}

func TestMetricsDiscarded(t *testing.T) {
	m := NewMetrics()
	m.discarded(0.101, 0)
	m.discarded(0.101, 3)
	m.discarded(2.02, 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Discarded.WithLabelValues("0.101")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Discarded.WithLabelValues("2.02")))
}
