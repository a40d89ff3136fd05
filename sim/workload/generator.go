// Package workload provides the wave generators a Producer fires: fixed-size
// batches, linear size sweeps, uniform random sizes and Gaussian-weighted
// rejection sampling.
package workload

import (
	"fmt"
	"math"

	"github.com/inference-sim/schedule-sim/sim"
)

// NewGenerator builds a generator from its spec.
func NewGenerator(spec GeneratorSpec) (sim.WorkloadGenerator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := checkIntegral(spec); err != nil {
		return nil, err
	}
	p := spec.Params
	var gen sim.WorkloadGenerator
	switch spec.Type {
	case TypeFlat:
		gen = &Flat{Count: intParam(p, "count"), Size: intParam(p, "size")}
	case TypeLinear:
		gen = &Linear{Start: intParam(p, "start"), Stop: intParam(p, "stop")}
	case TypeUniform:
		u := &Uniform{Start: intParam(p, "start"), End: intParam(p, "end"), Count: intParam(p, "count")}
		if u.End <= u.Start {
			return nil, &sim.GeneratorConfigError{Generator: u.Name(), Reason: "end must be greater than start"}
		}
		gen = u
	case TypeGaussian:
		g := &Gaussian{
			StartSize:          intParam(p, "start_size"),
			EndSize:            intParam(p, "end_size"),
			Mu:                 p["mu"],
			Sigma:              p["sigma"],
			TargetCombinedSize: intParam(p, "target"),
			MaxRejections:      intParam(p, "max_rejections"),
		}
		if _, err := g.weights(); err != nil {
			return nil, err
		}
		gen = g
	}
	return gen, nil
}

// AddWaves builds every wave generator and registers it on p.
func AddWaves(p *sim.Producer, waves []WaveSpec) error {
	for i, w := range waves {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("wave[%d]: %w", i, err)
		}
		gen, err := NewGenerator(w.Generator)
		if err != nil {
			return fmt.Errorf("wave[%d]: %w", i, err)
		}
		if err := p.AddWave(w.Step, gen); err != nil {
			return fmt.Errorf("wave[%d]: %w", i, err)
		}
	}
	return nil
}

func intParam(params map[string]float64, key string) int {
	return int(params[key])
}

// checkIntegral rejects fractional values for size and count parameters.
func checkIntegral(spec GeneratorSpec) error {
	for k, v := range spec.Params {
		if k == "mu" || k == "sigma" {
			continue
		}
		if v != math.Trunc(v) {
			return fmt.Errorf("%s: parameter %q must be an integer, got %g", spec.Type, k, v)
		}
		if v < 0 {
			return fmt.Errorf("%s: parameter %q must be >= 0, got %g", spec.Type, k, v)
		}
	}
	return nil
}
