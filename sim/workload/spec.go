package workload

import (
	"fmt"
	"sort"
)

// GeneratorSpec describes one wave generator in an experiment file:
//
//	type: uniform
//	params: {start: 20, end: 270, count: 200}
type GeneratorSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params"`
}

// WaveSpec schedules a generator at a step (>= 1).
type WaveSpec struct {
	Step      int64         `yaml:"step"`
	Generator GeneratorSpec `yaml:"generator"`
}

// Generator type names.
const (
	TypeFlat     = "flat"
	TypeLinear   = "linear"
	TypeUniform  = "uniform"
	TypeGaussian = "gaussian"
)

var validGeneratorTypes = map[string]bool{
	TypeFlat:     true,
	TypeLinear:   true,
	TypeUniform:  true,
	TypeGaussian: true,
}

// requiredParams lists the parameters each generator type must set.
var requiredParams = map[string][]string{
	TypeFlat:     {"count", "size"},
	TypeLinear:   {"start", "stop"},
	TypeUniform:  {"start", "end", "count"},
	TypeGaussian: {"start_size", "end_size", "mu", "sigma", "target"},
}

// optionalParams lists parameters a type accepts but does not require.
var optionalParams = map[string][]string{
	TypeGaussian: {"max_rejections"},
}

// IsValidGeneratorType reports whether t names a known generator.
func IsValidGeneratorType(t string) bool {
	return validGeneratorTypes[t]
}

// Validate checks the wave's step and its generator's parameter names.
// Parameter values are checked when the generator is built.
func (w WaveSpec) Validate() error {
	if w.Step < 1 {
		return fmt.Errorf("wave step must be >= 1, got %d", w.Step)
	}
	return w.Generator.Validate()
}

// Validate checks the type and that every required parameter is present and
// no unknown parameter is set.
func (s GeneratorSpec) Validate() error {
	if !validGeneratorTypes[s.Type] {
		return fmt.Errorf("unknown generator type %q; valid: flat, linear, uniform, gaussian", s.Type)
	}
	if err := requireParam(s.Params, requiredParams[s.Type]...); err != nil {
		return fmt.Errorf("%s: %w", s.Type, err)
	}
	known := make(map[string]bool)
	for _, k := range requiredParams[s.Type] {
		known[k] = true
	}
	for _, k := range optionalParams[s.Type] {
		known[k] = true
	}
	var unknown []string
	for k := range s.Params {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%s: unknown parameters %v", s.Type, unknown)
	}
	return nil
}

func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("generator requires parameter %q", k)
		}
	}
	return nil
}
