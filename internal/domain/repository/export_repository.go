package repository

import (
	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
)

// ExportRepository writes pipeline outputs. Every method returns the absolute
// path of the file it wrote.
type ExportRepository interface {
	// Hierarchy
	ExportHierarchyToJSON(tree entity.Tree, filename, outputDir string) (string, error)
	ExportHierarchyToPDF(tree entity.Tree, title, filename, outputDir string) (string, error)
	LoadHierarchyJSON(path string) (entity.Tree, error)

	// Taxonomy
	ExportTaxonomyToJSON(taxonomy entity.Taxonomy, filename, outputDir string) (string, error)
	ExportTaxonomyToTSV(taxonomy entity.Taxonomy, filename, outputDir string) (string, error)

	// Abbreviation maps
	ExportMappings(maps entity.AbbreviationMaps, outputDir string) ([]string, error)

	// Award-level export
	ExportAwardsToCSV(rows []entity.AwardRow, filename, outputDir string) (string, error)
}
