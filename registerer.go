package pqexplorer

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// register adds c to reg and returns the collector to record into. A host
// typically creates one Processor per open file on a shared registry, so the
// same collectors are registered many times. The collector registered first
// is handed to every later Processor and their counts add up.
//
// Registering a collector that conflicts with an existing one, such as the
// same name with different labels, panics like prometheus.MustRegister.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}
