package rollup

import "github.com/diillson/nsf-awards-rollup/internal/domain/entity"

// Brief projects every top-level node of the tree with BriefNode.
func Brief(tree entity.Tree) entity.Tree {
	out := make(entity.Tree, 0, len(tree))
	for _, nn := range tree {
		out = append(out, entity.NamedNode{Name: nn.Name, Node: BriefNode(nn.Node)})
	}
	return out
}

// BriefNode returns a copy of node keeping only the aggregate metrics at every
// level. Children are kept even when they end up empty.
func BriefNode(node entity.Node) entity.Node {
	out := entity.Node{Metrics: node.Metrics.Aggregate()}
	if len(node.Children) > 0 {
		out.Children = Brief(node.Children)
	}
	return out
}
