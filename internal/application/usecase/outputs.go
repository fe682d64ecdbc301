package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
	"github.com/diillson/nsf-awards-rollup/internal/domain/rollup"
	"github.com/diillson/nsf-awards-rollup/internal/shared/types"
	"github.com/diillson/nsf-awards-rollup/pkg/console"
	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
)

const (
	researchFile      = "research"
	researchBriefFile = "research_brief"
	taxonomyFile      = "taxonomy"

	// Quantidade de anos mais recentes na tabela diretoria x ano.
	recentYears = 5
)

// buildMappings gera os mapas de abreviações e o division_urls.txt.
func (uc *PipelineUseCase) buildMappings(ctx context.Context, run *pipelineRun) error {
	if len(run.records) == 0 {
		uc.console.LogInfo("Skipping mappings.")
		return nil
	}

	maps := rollup.BuildMappings(run.records)
	paths, err := uc.exportRepo.ExportMappings(maps, run.args.OutputDir)
	if err != nil {
		return err
	}
	run.wrote(paths...)
	run.mappingsDone = true

	uc.console.LogSuccess("Wrote %d directorates, %d divisions, %d programs and %d division URLs",
		len(maps.Directorates), len(maps.Divisions), len(maps.Programs), len(maps.Combos))
	return nil
}

// aggregate monta a hierarquia uma vez e deriva as visões completa, resumida
// e, se pedido, ordenada por ano. As visões não alteram a árvore de origem,
// então são calculadas em paralelo.
func (uc *PipelineUseCase) aggregate(ctx context.Context, run *pipelineRun) error {
	if len(run.records) == 0 {
		uc.console.LogInfo("Skipping aggregation/research outputs.")
		return nil
	}

	status := uc.console.Status("Aggregating awards...")
	hierarchy := rollup.BuildHierarchy(run.records)

	var full, brief, byYear entity.Tree
	year := yearSort(run.args)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		full = rollup.Sort(hierarchy, rollup.ByAggregate)
		return nil
	})
	g.Go(func() error {
		brief = rollup.Sort(rollup.Brief(hierarchy), rollup.ByAggregate)
		return nil
	})
	if year > 0 {
		g.Go(func() error {
			byYear = rollup.Sort(hierarchy, rollup.ByYear(year))
			return nil
		})
	}
	err := g.Wait()
	status.Stop()
	if err != nil {
		return err
	}

	run.tree = full

	type output struct {
		tree entity.Tree
		name string
	}
	outputs := []output{
		{full, researchFile},
		{brief, researchBriefFile},
	}
	if year > 0 {
		outputs = append(outputs, output{byYear, fmt.Sprintf("%s_%d", researchFile, year)})
	}

	for _, out := range outputs {
		path, err := uc.exportRepo.ExportHierarchyToJSON(out.tree, out.name, run.args.OutputDir)
		if err != nil {
			return err
		}
		run.wrote(path)
		uc.console.LogSuccess("Wrote %s", filepath.Base(path))
	}

	if slices.Contains(run.args.ReportType, types.ReportPDF) {
		title := fmt.Sprintf("NSF Awards %d-%d", run.args.StartYear, run.args.EndYear)
		path, err := uc.exportRepo.ExportHierarchyToPDF(brief, title, researchFile, run.args.OutputDir)
		if err != nil {
			uc.console.LogError("Failed to export to PDF: %s", err)
		} else {
			run.wrote(path)
			uc.console.LogSuccess("Successfully exported to PDF: %s", path)
		}
	}
	return nil
}

func yearSort(args *types.CLIArgs) int {
	if args.YearSort == nil {
		return 0
	}
	return *args.YearSort
}

// researchTree retorna a árvore desta execução ou, se a agregação não rodou,
// a que estiver gravada em research.json.
func (uc *PipelineUseCase) researchTree(run *pipelineRun) (entity.Tree, error) {
	if run.tree != nil {
		return run.tree, nil
	}
	dir := run.args.OutputDir
	return uc.exportRepo.LoadHierarchyJSON(filepath.Join(dir, researchFile+".json"))
}

func (uc *PipelineUseCase) generateTaxonomy(ctx context.Context, run *pipelineRun) error {
	tree, err := uc.researchTree(run)
	if err != nil {
		return err
	}

	taxonomy := rollup.ExtractTaxonomy(tree)

	jsonPath, err := uc.exportRepo.ExportTaxonomyToJSON(taxonomy, taxonomyFile, run.args.OutputDir)
	if err != nil {
		return err
	}
	tsvPath, err := uc.exportRepo.ExportTaxonomyToTSV(taxonomy, taxonomyFile, run.args.OutputDir)
	if err != nil {
		return err
	}
	run.wrote(jsonPath, tsvPath)
	uc.console.LogSuccess("Wrote %s and %s", filepath.Base(jsonPath), filepath.Base(tsvPath))
	return nil
}

// visualize exibe no console o top-10 de divisões, o total por ano e a
// tabela diretoria x anos recentes.
func (uc *PipelineUseCase) visualize(ctx context.Context, run *pipelineRun) error {
	tree, err := uc.researchTree(run)
	if errors.Is(err, types.ErrHierarchyNotFound) {
		uc.console.LogWarning("[visualize] %s", err)
		return nil
	}
	if err != nil {
		return err
	}

	points := rollup.FlattenFunding(tree)
	if len(points) == 0 {
		uc.console.LogWarning("[visualize] No data found in research.json.")
		return nil
	}

	uc.console.DisplayRankedBars("Top-10 NSF Divisions by Total Funding", trendPoints(rollup.TopDivisions(points, 10)))
	uc.console.DisplayTrendBars("NSF Funding by Year", trendPoints(rollup.TotalsByYear(points)))

	dirs, years, totals := rollup.DirectorateYearTotals(points)
	if len(years) > recentYears {
		years = years[len(years)-recentYears:]
	}

	table := uc.console.CreateTable()
	table.AddColumn("Directorate")
	for _, y := range years {
		table.AddColumn(strconv.Itoa(y))
	}
	for _, d := range dirs {
		cells := []interface{}{pterm.FgLightMagenta.Sprint(d)}
		for _, y := range years {
			cells = append(cells, console.FormatAmount(totals[d][y]))
		}
		table.AddRow(cells...)
	}
	uc.console.Println("\nNSF Funding by Directorate Over Time")
	uc.console.Print(table.Render())
	return nil
}

func trendPoints(items []entity.RankedAmount) []types.TrendPoint {
	points := make([]types.TrendPoint, len(items))
	for i, item := range items {
		points[i] = types.TrendPoint{Label: item.Label, Amount: item.Amount}
	}
	return points
}
