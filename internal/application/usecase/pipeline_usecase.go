package usecase

import (
	"context"
	"fmt"
	"runtime"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
	"github.com/diillson/nsf-awards-rollup/internal/domain/repository"
	"github.com/diillson/nsf-awards-rollup/internal/shared/types"
	"golang.org/x/sync/errgroup"
)

// Limites padrão dos pools de workers.
const (
	DefaultDownloadWorkers = 5
	DefaultExtractWorkers  = 3
)

// PipelineUseCase orquestra as etapas do pipeline de awards da NSF.
type PipelineUseCase struct {
	sourceRepo  repository.AwardSourceRepository
	exportRepo  repository.ExportRepository
	configRepo  repository.ConfigRepository
	missionRepo repository.MissionRepository
	storageRepo repository.StorageRepository
	console     types.ConsoleInterface
}

// NewPipelineUseCase creates a new pipeline use case.
func NewPipelineUseCase(
	sourceRepo repository.AwardSourceRepository,
	exportRepo repository.ExportRepository,
	configRepo repository.ConfigRepository,
	missionRepo repository.MissionRepository,
	storageRepo repository.StorageRepository,
	console types.ConsoleInterface,
) *PipelineUseCase {
	return &PipelineUseCase{
		sourceRepo:  sourceRepo,
		exportRepo:  exportRepo,
		configRepo:  configRepo,
		missionRepo: missionRepo,
		storageRepo: storageRepo,
		console:     console,
	}
}

// LoadConfig carrega o arquivo de configuração indicado em --config-file.
func (uc *PipelineUseCase) LoadConfig(path string) (*types.Config, error) {
	return uc.configRepo.LoadConfigFile(path)
}

// pipelineRun guarda o estado de uma execução entre as etapas.
type pipelineRun struct {
	args *types.CLIArgs

	files   []string
	listed  bool
	records []entity.AwardRecord

	// tree é a visão completa ordenada por total, quando a agregação rodou.
	tree         entity.Tree
	mappingsDone bool

	written []string
}

func (run *pipelineRun) wrote(paths ...string) {
	run.written = append(run.written, paths...)
}

// RunPipeline executa as etapas na ordem: download, extract, parse, mappings,
// export, aggregate, taxonomy, visualize, missionscrape e publish.
func (uc *PipelineUseCase) RunPipeline(ctx context.Context, args *types.CLIArgs) error {
	if args.StartYear > args.EndYear {
		return fmt.Errorf("%w: %d > %d", types.ErrInvalidYearRange, args.StartYear, args.EndYear)
	}

	run := &pipelineRun{args: args}

	stages := []struct {
		name string
		skip string
		fn   func(context.Context, *pipelineRun) error
	}{
		{types.StageDownload, "Skipping download.", uc.downloadAll},
		{types.StageExtract, "Skipping extract.", uc.extractAll},
		{types.StageParse, "Skipping parse.", uc.parseAll},
		{types.StageMappings, "Skipping mappings.", uc.buildMappings},
		{types.StageExport, "Skipping award-level export.", uc.exportAwards},
		{types.StageAggregate, "Skipping aggregation/research outputs.", uc.aggregate},
		{types.StageTaxonomy, "Skipping taxonomy.", uc.generateTaxonomy},
		{types.StageVisualize, "Skipping visualization.", uc.visualize},
		{types.StageMissionScrape, "Skipping mission scraping.", uc.scrapeMissions},
		{types.StagePublish, "Skipping publish.", uc.publish},
	}

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if args.Skips(stage.name) {
			uc.console.LogInfo(stage.skip)
			continue
		}
		if err := stage.fn(ctx, run); err != nil {
			return fmt.Errorf("%s stage failed: %w", stage.name, err)
		}
	}

	uc.console.LogSuccess("Done.")
	return nil
}

// forEach executa fn para cada índice em até limit goroutines. Falhas por item
// são tratadas dentro de fn; só o cancelamento do contexto interrompe o laço.
func forEach(ctx context.Context, limit, n int, progress types.ProgressHandle, fn func(ctx context.Context, i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			defer progress.Increment()
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(gctx, i)
			return nil
		})
	}
	return g.Wait()
}

func workers(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}

func parseWorkers(n int) int {
	return workers(n, runtime.NumCPU())
}
