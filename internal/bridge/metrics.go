//go:build !tinygo

package bridge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// frameCounter counts frames that completed a full cycle
	frameCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pixelbridge",
		Name:      "frames_count",
		Help:      "Number of frames transmitted to the strip",
	})

	// faultCounter counts fatal faults by the phase they occurred in
	faultCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pixelbridge",
		Name:      "faults_count",
		Help:      "Number of fatal faults by loop phase",
	}, []string{"phase"})

	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pixelbridge",
		Name:      "phase_duration_seconds",
		Help:      "Time spent in each loop phase",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"phase"})
)

func countFrame() {
	frameCounter.Inc()
}

func countFault(phase Phase) {
	faultCounter.WithLabelValues(phase.String()).Inc()
}

func observePhase(phase Phase, d time.Duration) {
	phaseDuration.WithLabelValues(phase.String()).Observe(d.Seconds())
}
