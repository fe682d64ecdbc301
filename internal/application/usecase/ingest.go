package usecase

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
	"github.com/diillson/nsf-awards-rollup/internal/shared/types"
)

// downloadAll baixa os ZIPs de cada ano do intervalo. Falha em um ano não
// interrompe os demais.
func (uc *PipelineUseCase) downloadAll(ctx context.Context, run *pipelineRun) error {
	years := run.args.Years()
	progress := uc.console.ProgressWithTotal("Downloading", len(years))
	defer progress.Stop()

	var failed int32
	err := forEach(ctx, workers(run.args.DownloadWorkers, DefaultDownloadWorkers), len(years), progress,
		func(ctx context.Context, i int) {
			if _, err := uc.sourceRepo.DownloadYear(ctx, years[i], run.args.DataDir); err != nil {
				atomic.AddInt32(&failed, 1)
				uc.console.LogError("Error downloading %d: %v", years[i], err)
			}
		})
	if err != nil {
		return err
	}

	if n := atomic.LoadInt32(&failed); n > 0 {
		uc.console.LogWarning("%d of %d downloads failed", n, len(years))
	}
	return nil
}

// extractAll descompacta todos os ZIPs presentes no diretório de dados.
func (uc *PipelineUseCase) extractAll(ctx context.Context, run *pipelineRun) error {
	archives, err := uc.sourceRepo.ListArchives(run.args.DataDir)
	if err != nil {
		return err
	}
	if len(archives) == 0 {
		uc.console.LogWarning("%s: %s", types.ErrNoArchives, run.args.DataDir)
		return nil
	}

	progress := uc.console.ProgressWithTotal("Extracting", len(archives))
	defer progress.Stop()

	return forEach(ctx, workers(run.args.ExtractWorkers, DefaultExtractWorkers), len(archives), progress,
		func(ctx context.Context, i int) {
			if _, err := uc.sourceRepo.ExtractArchive(ctx, archives[i]); err != nil {
				uc.console.LogError("Error extracting %s: %v", filepath.Base(archives[i]), err)
			}
		})
}

// awardFiles lista os JSONs uma única vez por execução.
func (uc *PipelineUseCase) awardFiles(run *pipelineRun) ([]string, error) {
	if run.listed {
		return run.files, nil
	}
	files, err := uc.sourceRepo.ListAwardFiles(run.args.DataDir)
	if err != nil {
		return nil, err
	}
	run.files, run.listed = files, true
	return files, nil
}

// parseAll converte os JSONs em registros. O resultado segue a ordem dos
// arquivos, independente da ordem de término dos workers.
func (uc *PipelineUseCase) parseAll(ctx context.Context, run *pipelineRun) error {
	files, err := uc.awardFiles(run)
	if err != nil {
		return err
	}

	results := make([][]entity.AwardRecord, len(files))
	progress := uc.console.ProgressWithTotal("Parsing", len(files))
	defer progress.Stop()

	err = forEach(ctx, parseWorkers(run.args.ParseWorkers), len(files), progress,
		func(ctx context.Context, i int) {
			records, err := uc.sourceRepo.ParseAward(files[i])
			if err != nil {
				uc.console.LogError("Error parsing %s: %v", filepath.Base(files[i]), err)
				return
			}
			results[i] = records
		})
	if err != nil {
		return err
	}

	for _, records := range results {
		run.records = append(run.records, records...)
	}

	if len(run.records) == 0 {
		uc.console.LogWarning("%s", types.ErrNoRecords)
		return nil
	}
	uc.console.LogInfo("Parsed %d award records from %d files", len(run.records), len(files))
	return nil
}

// exportAwards grava o awards.csv com uma linha por arquivo de award.
func (uc *PipelineUseCase) exportAwards(ctx context.Context, run *pipelineRun) error {
	files, err := uc.awardFiles(run)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		uc.console.LogWarning("No award files found in %s; skipping award-level export.", run.args.DataDir)
		return nil
	}

	rows := make([]entity.AwardRow, len(files))
	progress := uc.console.ProgressWithTotal("Exporting awards", len(files))

	err = forEach(ctx, parseWorkers(run.args.ParseWorkers), len(files), progress,
		func(ctx context.Context, i int) {
			row, err := uc.sourceRepo.FlattenAward(files[i])
			if err != nil {
				uc.console.LogError("Error flattening %s: %v", filepath.Base(files[i]), err)
				return
			}
			rows[i] = row
		})
	progress.Stop()
	if err != nil {
		return err
	}

	kept := rows[:0]
	for _, row := range rows {
		if row != nil {
			kept = append(kept, row)
		}
	}

	path, err := uc.exportRepo.ExportAwardsToCSV(kept, "awards", run.args.OutputDir)
	if err != nil {
		return err
	}
	run.wrote(path)
	uc.console.LogSuccess("Wrote %d awards to %s", len(kept), path)
	return nil
}
