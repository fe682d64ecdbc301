package rollup

import "github.com/diillson/nsf-awards-rollup/internal/domain/entity"

// Assemble nests the accumulated buckets into the directorate -> division ->
// program tree. Children appear in the order they were first seen in the
// records.
func Assemble(acc *Accumulation) entity.Tree {
	dirKeys := acc.DirectorateDivisions.Parents()
	tree := make(entity.Tree, 0, len(dirKeys))

	for _, dirKey := range dirKeys {
		dirNode := entity.Node{Metrics: BuildMetrics(acc.Directorates[dirKey])}

		for _, division := range acc.DirectorateDivisions.Children(dirKey) {
			divKey := GroupKey{Directorate: dirKey.Directorate, Division: division}
			divNode := entity.Node{Metrics: BuildMetrics(acc.Divisions[divKey])}

			for _, program := range acc.DivisionPrograms.Children(divKey) {
				progKey := GroupKey{Directorate: dirKey.Directorate, Division: division, Program: program}
				divNode.Children = append(divNode.Children, entity.NamedNode{
					Name: program,
					Node: entity.Node{Metrics: BuildMetrics(acc.Programs[progKey])},
				})
			}

			dirNode.Children = append(dirNode.Children, entity.NamedNode{Name: division, Node: divNode})
		}

		tree = append(tree, entity.NamedNode{Name: dirKey.Directorate, Node: dirNode})
	}

	return tree
}

// BuildHierarchy accumulates the records and assembles the raw tree.
func BuildHierarchy(records []entity.AwardRecord) entity.Tree {
	return Assemble(Accumulate(records))
}
