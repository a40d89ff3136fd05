package sim

// RoundRobinPolicy assigns tasks to children in cyclic order. The cursor
// survives across steps and waves.
type RoundRobinPolicy struct {
	cursor int
}

// Name implements DispatchPolicy for RoundRobinPolicy.
func (p *RoundRobinPolicy) Name() string { return PolicyRoundRobin }

// Dispatch implements DispatchPolicy for RoundRobinPolicy.
func (p *RoundRobinPolicy) Dispatch(d *Dispatch) {
	for d.Queue.Len() > 0 {
		child := d.Children[p.cursor%len(d.Children)]
		p.cursor++
		d.Assign(d.Queue.Dequeue(), child)
	}
}

// Reset implements DispatchPolicy for RoundRobinPolicy.
func (p *RoundRobinPolicy) Reset() { p.cursor = 0 }

// WeightedRoundRobinPolicy walks the children cyclically and offers the
// head task to each candidate, which accepts with probability
// capacity / fastest capacity. The cursor moves on every offer, accepted or
// not. The fastest child always accepts, so every pass places at least one task.
type WeightedRoundRobinPolicy struct {
	cursor int
}

// Name implements DispatchPolicy for WeightedRoundRobinPolicy.
func (p *WeightedRoundRobinPolicy) Name() string { return PolicyWeightedRoundRobin }

// Dispatch implements DispatchPolicy for WeightedRoundRobinPolicy.
func (p *WeightedRoundRobinPolicy) Dispatch(d *Dispatch) {
	fastest := fastestChild(d.Children)
	top := float64(fastest.UnitsPerStep())
	for d.Queue.Len() > 0 {
		child := d.Children[p.cursor%len(d.Children)]
		p.cursor++
		if d.Rand.Float64() < float64(child.UnitsPerStep())/top {
			d.Assign(d.Queue.Dequeue(), child)
		}
	}
}

// Reset implements DispatchPolicy for WeightedRoundRobinPolicy.
func (p *WeightedRoundRobinPolicy) Reset() { p.cursor = 0 }

// fastestChild returns the first child with the highest capacity.
func fastestChild(children []ConsumingEntity) ConsumingEntity {
	best := children[0]
	for _, c := range children[1:] {
		if best.UnitsPerStep() < c.UnitsPerStep() {
			best = c
		}
	}
	return best
}
