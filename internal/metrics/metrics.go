// Package metrics exports benchmark results in the Prometheus text format,
// for pickup by a node-exporter textfile collector.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"gettsimarchive/internal/bench"
)

const namespace = "ttarchive"

var stageLabel = map[int]string{
	bench.Stage1:     "preprocessing",
	bench.Stage2:     "computation",
	bench.Stage3:     "formatting",
	bench.StageTotal: "total",
}

// Collectors holds the gauges on a private registry.
type Collectors struct {
	Registry   *prometheus.Registry
	StageTime  *prometheus.GaugeVec
	PeakMemory *prometheus.GaugeVec
	Failed     *prometheus.GaugeVec
}

// New registers fresh gauges.
func New() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		StageTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_seconds",
			Help:      "Wall time of one benchmark stage.",
		}, []string{"backend", "households", "stage"}),
		PeakMemory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peak_memory_mb",
			Help:      "Peak resident memory during a benchmark run.",
		}, []string{"backend", "households"}),
		Failed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_failed",
			Help:      "1 if the benchmark run failed.",
		}, []string{"backend", "households"}),
	}
	c.Registry.MustRegister(c.StageTime, c.PeakMemory, c.Failed)
	return c
}

// Observe sets the gauges of every run in rf. Failed runs only set
// run_failed.
func (c *Collectors) Observe(rf *bench.ResultFile) {
	for _, r := range rf.Runs {
		n := strconv.Itoa(r.Households)
		if r.Failed() {
			c.Failed.WithLabelValues(r.Backend, n).Set(1)
			continue
		}
		c.Failed.WithLabelValues(r.Backend, n).Set(0)
		for stage, label := range stageLabel {
			if v := r.Time(stage); v != nil {
				c.StageTime.WithLabelValues(r.Backend, n, label).Set(*v)
			}
		}
		if r.PeakMemory != nil {
			c.PeakMemory.WithLabelValues(r.Backend, n).Set(*r.PeakMemory)
		}
	}
}

// WriteTextfile writes the metrics of rf to path atomically.
func WriteTextfile(path string, rf *bench.ResultFile) error {
	c := New()
	c.Observe(rf)
	if err := prometheus.WriteToTextfile(path, c.Registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
