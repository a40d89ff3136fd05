package trace

// TraceLevel controls the verbosity of dispatch tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelConsumers records only placements on consumers.
	TraceLevelConsumers TraceLevel = "consumers"
	// TraceLevelDispatches records every scheduler decision, including hand-offs to nested schedulers.
	TraceLevelDispatches TraceLevel = "dispatches"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:       true,
	TraceLevelConsumers:  true,
	TraceLevelDispatches: true,
	"":                   true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether the configuration records anything.
func (c TraceConfig) Enabled() bool {
	return c.Level != TraceLevelNone && c.Level != ""
}

// SimulationTrace collects dispatch records during one run.
type SimulationTrace struct {
	Config     TraceConfig      `json:"config"`
	Dispatches []DispatchRecord `json:"dispatches"`
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:     config,
		Dispatches: make([]DispatchRecord, 0),
	}
}

// RecordDispatch appends a dispatch record, honouring the configured level.
func (st *SimulationTrace) RecordDispatch(record DispatchRecord) {
	switch st.Config.Level {
	case TraceLevelDispatches:
	case TraceLevelConsumers:
		if !record.ToConsumer {
			return
		}
	default:
		return
	}
	st.Dispatches = append(st.Dispatches, record)
}
