//go:build !tinygo

package transmitter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transmittedSymbols = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pixelbridge",
	Name:      "transmitted_symbols_count",
	Help:      "Number of pulse symbols handed to the transmitter hardware",
}, []string{"driver"})

func countSymbols(driver string, n int) {
	transmittedSymbols.WithLabelValues(driver).Add(float64(n))
}
