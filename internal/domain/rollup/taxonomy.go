package rollup

import "github.com/diillson/nsf-awards-rollup/internal/domain/entity"

// ExtractTaxonomy lists the divisions and programs under each directorate,
// in the order they appear in tree.
func ExtractTaxonomy(tree entity.Tree) entity.Taxonomy {
	taxonomy := make(entity.Taxonomy, 0, len(tree))
	for _, dir := range tree {
		entry := entity.TaxonomyEntry{Directorate: dir.Name}
		for _, div := range dir.Node.Children {
			entry.Divisions = append(entry.Divisions, entity.DivisionPrograms{
				Division: div.Name,
				Programs: div.Node.Children.Names(),
			})
		}
		taxonomy = append(taxonomy, entry)
	}
	return taxonomy
}
