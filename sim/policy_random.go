package sim

import "github.com/sirupsen/logrus"

// RandomPolicy sends each waiting task to a child chosen uniformly at random.
type RandomPolicy struct{}

// Name implements DispatchPolicy for RandomPolicy.
func (p *RandomPolicy) Name() string { return PolicyRandom }

// Dispatch implements DispatchPolicy for RandomPolicy.
func (p *RandomPolicy) Dispatch(d *Dispatch) {
	for d.Queue.Len() > 0 {
		d.Assign(d.Queue.Dequeue(), d.Children[d.Rand.Intn(len(d.Children))])
	}
}

// Reset implements DispatchPolicy for RandomPolicy.
func (p *RandomPolicy) Reset() {}

// ShoppingPolicy runs a tournament per task: it samples Options children
// with replacement and picks the one with the highest capacity.
// Ties go to the child sampled first.
type ShoppingPolicy struct {
	Options int
	warned  bool
}

// Name implements DispatchPolicy for ShoppingPolicy.
func (p *ShoppingPolicy) Name() string { return PolicyShopping }

// Dispatch implements DispatchPolicy for ShoppingPolicy.
func (p *ShoppingPolicy) Dispatch(d *Dispatch) {
	k := p.Options
	if k > len(d.Children) {
		if !p.warned {
			logrus.Warnf("shopping: %d options requested but only %d children; sampling %d", k, len(d.Children), len(d.Children))
			p.warned = true
		}
		k = len(d.Children)
	}
	for d.Queue.Len() > 0 {
		var best ConsumingEntity
		for range k {
			candidate := d.Children[d.Rand.Intn(len(d.Children))]
			if best == nil || candidate.UnitsPerStep() > best.UnitsPerStep() {
				best = candidate
			}
		}
		d.Assign(d.Queue.Dequeue(), best)
	}
}

// Reset implements DispatchPolicy for ShoppingPolicy.
func (p *ShoppingPolicy) Reset() { p.warned = false }
