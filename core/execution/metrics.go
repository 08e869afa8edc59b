package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/capvm"
)

var promCalls = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "capvm_calls_total",
	Help: "total number of frames started",
})

var promTraps = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "capvm_traps_total",
	Help: "total number of frames that trapped, per error kind",
}, []string{"kind"})

var promDepth = prometheus.NewHistogram(prometheus.HistogramOpts{
	Name:    "capvm_call_depth",
	Help:    "depth of the started frames",
	Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
})

func init() {
	capvm.PromCollectors = append(capvm.PromCollectors, promCalls, promTraps, promDepth)
}
