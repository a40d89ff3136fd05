package sink

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inference-sim/schedule-sim/sim"
)

// TextfileSink records run metrics as Prometheus gauges and writes them
// in the text exposition format on Close, for a node exporter textfile
// collector to pick up. A later run of the same architecture and producer
// overwrites the earlier values.
type TextfileSink struct {
	path      string
	registry  *prometheus.Registry
	makespan  *prometheus.GaugeVec
	util      *prometheus.GaugeVec
	submitted *prometheus.GaugeVec
	completed *prometheus.GaugeVec
}

var runLabels = []string{"architecture", "producer"}

// NewTextfileSink returns a sink that writes to path on Close.
func NewTextfileSink(path string) *TextfileSink {
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "schedsim",
			Name:      name,
			Help:      help,
		}, runLabels)
	}
	s := &TextfileSink{
		path:      path,
		registry:  prometheus.NewRegistry(),
		makespan:  gauge("makespan_steps", "Steps from the first submission to the last completion."),
		util:      gauge("utilisation_ratio", "Capacity-weighted consumer utilisation."),
		submitted: gauge("tasks_submitted", "Tasks submitted by the producer."),
		completed: gauge("tasks_completed", "Tasks completed by consumers."),
	}
	s.registry.MustRegister(s.makespan, s.util, s.submitted, s.completed)
	return s
}

func (s *TextfileSink) Write(_ context.Context, res *sim.Result, _ sim.OutputOptions) error {
	labels := prometheus.Labels{"architecture": res.Architecture, "producer": res.Producer}
	s.makespan.With(labels).Set(float64(res.Makespan))
	s.util.With(labels).Set(res.Utilisation)
	s.submitted.With(labels).Set(float64(res.TasksSubmitted))
	s.completed.With(labels).Set(float64(res.TasksCompleted))
	return nil
}

// Close writes every recorded gauge to the textfile.
func (s *TextfileSink) Close() error {
	if err := prometheus.WriteToTextfile(s.path, s.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", s.path, err)
	}
	return nil
}
