package pqexplorer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/polarsignals/pqexplorer/pqarrow"
)

type metrics struct {
	decodeDuration      prometheus.Histogram
	decodeErrors        *prometheus.CounterVec
	tablesDecoded       prometheus.Counter
	tablesReleased      prometheus.Counter
	releaseErrors       prometheus.Counter
	recordsMaterialized prometheus.Counter
	truncated           prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		decodeDuration: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pqexplorer_decode_duration_seconds",
			Help:    "Time taken to turn parquet bytes into a normalized result.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		})),
		decodeErrors: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pqexplorer_decode_errors_total",
			Help: "Number of parquet files that failed to decode, by kind.",
		}, []string{"kind"})),
		tablesDecoded: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pqexplorer_tables_decoded_total",
			Help: "Number of decoded tables held in memory.",
		})),
		tablesReleased: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pqexplorer_tables_released_total",
			Help: "Number of decoded tables whose release was attempted.",
		})),
		releaseErrors: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pqexplorer_release_errors_total",
			Help: "Number of table releases that failed.",
		})),
		recordsMaterialized: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pqexplorer_records_materialized_total",
			Help: "Number of records produced for display.",
		})),
		truncated: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pqexplorer_truncated_total",
			Help: "Number of results cut off at the row cap.",
		})),
	}
	// Pre-initialize the known kinds so they show up before the first failure.
	m.decodeErrors.WithLabelValues(pqarrow.KindMalformed.String())
	m.decodeErrors.WithLabelValues(pqarrow.KindUnsupportedCodec.String())
	return m
}
