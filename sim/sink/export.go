package sink

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/inference-sim/schedule-sim/sim"
	"github.com/inference-sim/schedule-sim/sim/trace"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteSnapshot writes snap as indented JSON to path.
func WriteSnapshot(path string, snap sim.Snapshot) error {
	return writeJSON(path, snap)
}

// WriteTrace writes the dispatch records and their summary as indented JSON.
func WriteTrace(path string, st *trace.SimulationTrace) error {
	if st == nil {
		return fmt.Errorf("no trace recorded; enable tracing to export it")
	}
	doc := struct {
		Level      trace.TraceLevel       `json:"level"`
		Summary    *trace.TraceSummary    `json:"summary"`
		Dispatches []trace.DispatchRecord `json:"dispatches"`
	}{st.Config.Level, trace.Summarize(st), st.Dispatches}
	return writeJSON(path, doc)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
