package rollup

import (
	"sort"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
)

// OrderBy extracts the amount used to rank sibling nodes.
type OrderBy func(entity.Metrics) float64

// ByAggregate ranks nodes by their all-time awarded amount.
func ByAggregate(m entity.Metrics) float64 {
	return m.AmtAwarded
}

// ByYear ranks nodes by the amount awarded in year. Nodes without data for
// that year rank as zero.
func ByYear(year int) OrderBy {
	return func(m entity.Metrics) float64 {
		ym, ok := m.Year(year)
		if !ok {
			return 0
		}
		return ym.AmtAwarded
	}
}

// Sort returns a copy of tree where siblings at every level are ordered by
// the amount returned by by, descending. Ties keep their input order.
func Sort(tree entity.Tree, by OrderBy) entity.Tree {
	out := make(entity.Tree, 0, len(tree))
	for _, nn := range tree {
		out = append(out, entity.NamedNode{Name: nn.Name, Node: SortNode(nn.Node, by)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return by(out[i].Node.Metrics) > by(out[j].Node.Metrics)
	})
	return out
}

// SortNode returns a copy of node with its children sorted recursively.
func SortNode(node entity.Node, by OrderBy) entity.Node {
	out := entity.Node{Metrics: node.Metrics.Clone()}
	if len(node.Children) > 0 {
		out.Children = Sort(node.Children, by)
	}
	return out
}
