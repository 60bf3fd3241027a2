package scoring

import (
	"math"

	"github.com/Sumatoshi-tech/stalign/pkg/stree"
	"github.com/Sumatoshi-tech/stalign/pkg/ted"
)

// Model is the label-pair cost function. It is immutable and safe for
// concurrent use.
type Model struct {
	costs Costs
}

// NewModel returns a Model over costs.
func NewModel(costs Costs) *Model {
	return &Model{costs: costs}
}

// Costs returns the weights of the model.
func (m *Model) Costs() Costs {
	return m.costs
}

// Cost prices aligning x with y; nil stands for a gap. Aligning a hairpin
// with an operator is forbidden and costs +Inf.
func (m *Model) Cost(x, y *stree.Label) float64 {
	switch {
	case x == nil && y == nil:
		return 0
	case x != nil && y == nil && x.IsOperator():
		return m.costs.DeleteOperator
	case x == nil && y != nil && y.IsOperator():
		return m.costs.InsertOperator
	case x == nil || y == nil:
		return m.gapHairpin(x, y)
	case x.Kind == stree.KindCrossing && y.Kind == stree.KindCrossing:
		return m.costs.CrossingMismatch * math.Abs(float64(x.K-y.K))
	case x.IsOperator() && y.IsOperator():
		if x.Kind == y.Kind {
			return 0
		}

		return m.costs.ReplaceOperator
	case x.IsHairpin() && y.IsHairpin():
		return 0
	case x.IsHairpin() && y.IsOperator(), x.IsOperator() && y.IsHairpin():
		return math.Inf(1)
	default:
		return 0
	}
}

func (m *Model) gapHairpin(x, y *stree.Label) float64 {
	switch {
	case x != nil && x.IsHairpin():
		return m.costs.DeleteHairpin
	case y != nil && y.IsHairpin():
		return m.costs.InsertHairpin
	default:
		return 0
	}
}

// NodeCost is Cost over tree nodes, with a nil node as the gap. It fits
// treealign.Align directly.
func (m *Model) NodeCost(x, y *stree.Node) float64 {
	var lx, ly *stree.Label

	if x != nil {
		lx = &x.Label
	}

	if y != nil {
		ly = &y.Label
	}

	return m.Cost(lx, ly)
}

// EditCosts returns the weights of the simplified-label edit distance.
func (m *Model) EditCosts() ted.Costs {
	return ted.Costs{
		Insert: m.costs.EditInsert,
		Delete: m.costs.EditDelete,
		Rename: m.costs.EditRename,
	}
}
