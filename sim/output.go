package sim

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// OutputOptions selects what a run reports. The Render* toggles are read
// only by external renderers; the engine ignores them.
type OutputOptions struct {
	ReportMakespan    bool `yaml:"makespan"`
	ReportUtilisation bool `yaml:"utilisation"`
	// BinCount is the number of size bins for binned makespans; 0 disables them.
	BinCount int `yaml:"bins"`

	RenderSchedule            bool `yaml:"render_schedule"`
	RenderGIF                 bool `yaml:"render_gif"`
	RenderArchitectureDiagram bool `yaml:"render_architecture_diagram"`
}

// DefaultOutputOptions reports makespan and utilisation, no bins.
func DefaultOutputOptions() OutputOptions {
	return OutputOptions{ReportMakespan: true, ReportUtilisation: true}
}

// Enabled reports whether any summary field is requested.
func (o OutputOptions) Enabled() bool {
	return o.ReportMakespan || o.ReportUtilisation || o.BinCount > 0
}

// Validate rejects a negative bin count.
func (o OutputOptions) Validate() error {
	if o.BinCount < 0 {
		return fmt.Errorf("bin count must be >= 0, got %d", o.BinCount)
	}
	return nil
}

// Result is the outcome of one completed run.
type Result struct {
	RunID        uuid.UUID
	Architecture string
	Producer     string
	Seed         int64

	// Steps is the global step at which the tree drained.
	Steps          int64
	TasksSubmitted int
	TasksCompleted int

	Makespan        int64
	Utilisation     float64
	BinnedMakespans []float64
	MeanTurnaround  float64
	P99Turnaround   float64
}

// Header returns the column names matching Row for the same options.
func (r *Result) Header(opts OutputOptions) string {
	cols := []string{"architecture", "producer"}
	if opts.ReportMakespan {
		cols = append(cols, "makespan")
	}
	if opts.ReportUtilisation {
		cols = append(cols, "utilisation_pct")
	}
	for i := range opts.BinCount {
		cols = append(cols, fmt.Sprintf("bin_%d", i+1))
	}
	return strings.Join(cols, ",")
}

// Row formats the result as a comma-joined line: architecture, producer,
// then makespan, utilisation percentage and per-bin mean makespans as
// requested. Empty bins print as NaN. ok is false when opts request nothing.
func (r *Result) Row(opts OutputOptions) (row string, ok bool) {
	if !opts.Enabled() {
		return "", false
	}
	fields := []string{r.Architecture, r.Producer}
	if opts.ReportMakespan {
		fields = append(fields, strconv.FormatInt(r.Makespan, 10))
	}
	if opts.ReportUtilisation {
		fields = append(fields, formatFloat(r.Utilisation*100))
	}
	for i := range opts.BinCount {
		v := math.NaN()
		if i < len(r.BinnedMakespans) {
			v = r.BinnedMakespans[i]
		}
		fields = append(fields, formatFloat(v))
	}
	return strings.Join(fields, ","), true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
