package pqexplorer

import (
	"context"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/polarsignals/pqexplorer/internal/pqtest"
)

func TestRegisterReusesExisting(t *testing.T) {
	promReg := prometheus.NewRegistry()
	newCounter := func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pqexplorer_test_total",
			Help: "test",
		})
	}

	first := register(promReg, newCounter())
	first.Inc()
	first.Inc()

	// Registering the same collector on the vanilla registry should panic.
	require.Panics(t, func() {
		promReg.MustRegister(newCounter())
	})

	second := register(promReg, newCounter())
	second.Inc()
	require.Equal(t, float64(3), testutil.ToFloat64(first))
	require.Equal(t, 1, testutil.CollectAndCount(promReg, "pqexplorer_test_total"))

	// Same name with different labels is a conflict.
	require.Panics(t, func() {
		register(promReg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pqexplorer_test_total",
			Help: "test",
		}, []string{"kind"}))
	})
}

func TestProcessorsShareRegistry(t *testing.T) {
	promReg := prometheus.NewRegistry()
	processors := make([]*Processor, 0, 3)
	for i := 0; i < 3; i++ {
		p, err := New(nil, promReg)
		require.NoError(t, err)
		processors = append(processors, p)
	}

	data := pqtest.Sample(t, 2, 0, &parquet.Snappy)
	for _, p := range processors {
		_, err := p.Decode(context.Background(), data)
		require.NoError(t, err)
	}
	_, err := processors[0].Decode(context.Background(), []byte("nope"))
	require.Error(t, err)

	require.Equal(t, float64(3), testutil.ToFloat64(processors[2].metrics.tablesDecoded))
	require.Equal(t, float64(6), testutil.ToFloat64(processors[1].metrics.recordsMaterialized))
	require.Equal(t, float64(1), testutil.ToFloat64(processors[2].metrics.decodeErrors.WithLabelValues("malformed")))

	mf, err := promReg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(mf))
	for _, m := range mf {
		names = append(names, m.GetName())
	}
	require.Contains(t, names, "pqexplorer_decode_errors_total")
	require.Contains(t, names, "pqexplorer_tables_decoded_total")
}
