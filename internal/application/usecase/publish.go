package usecase

import (
	"context"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
)

// scrapeMissions enriquece o division_map.json com a missão de cada divisão.
// Só roda quando os mapeamentos foram gerados nesta execução.
func (uc *PipelineUseCase) scrapeMissions(ctx context.Context, run *pipelineRun) error {
	if !run.mappingsDone {
		uc.console.LogInfo("Skipping mission scraping.")
		return nil
	}

	urls, err := uc.missionRepo.LoadDivisionURLs(run.args.OutputDir)
	if err != nil {
		return err
	}
	divisions, err := uc.missionRepo.LoadDivisionMap(run.args.OutputDir)
	if err != nil {
		return err
	}

	byAbbr := make(map[string]string, len(divisions))
	for name, info := range divisions {
		if info.Abbr != "" {
			byAbbr[info.Abbr] = name
		}
	}

	var (
		mu       sync.Mutex
		missions = map[string]string{}
		failed   int32
	)

	progress := uc.console.ProgressWithTotal("Scraping missions", len(urls))
	err = forEach(ctx, workers(run.args.DownloadWorkers, DefaultDownloadWorkers), len(urls), progress,
		func(ctx context.Context, i int) {
			mission, found, err := uc.missionRepo.FetchMission(ctx, urls[i])
			if err != nil {
				atomic.AddInt32(&failed, 1)
				return
			}
			if !found {
				return
			}
			name, ok := byAbbr[divisionAbbr(urls[i])]
			if !ok {
				return
			}
			mu.Lock()
			missions[name] = mission
			mu.Unlock()
		})
	progress.Stop()
	if err != nil {
		return err
	}

	if n := atomic.LoadInt32(&failed); n > 0 {
		uc.console.LogWarning("%d of %d division pages could not be fetched", n, len(urls))
	}

	// Cada entrada é refeita a partir da abreviação; missões antigas não sobrevivem.
	updated := make(map[string]entity.DivisionInfo, len(divisions))
	for name, info := range divisions {
		entry := entity.DivisionInfo{Abbr: info.Abbr}
		if m, ok := missions[name]; ok {
			entry.Mission = &m
		}
		updated[name] = entry
	}

	p, err := uc.missionRepo.SaveDivisionMap(updated, run.args.OutputDir)
	if err != nil {
		return err
	}
	run.wrote(p)
	uc.console.LogSuccess("Updated %s with %d mission statements", filepath.Base(p), len(missions))
	return nil
}

// divisionAbbr retorna o último segmento do caminho da URL da divisão.
func divisionAbbr(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Base(strings.TrimRight(u.Path, "/"))
}

// publish envia os arquivos gravados nesta execução para o bucket S3.
func (uc *PipelineUseCase) publish(ctx context.Context, run *pipelineRun) error {
	if run.args.S3Bucket == "" {
		uc.console.LogInfo("No S3 bucket configured; skipping publish.")
		return nil
	}

	files := uniquePaths(run.written)
	if len(files) == 0 {
		uc.console.LogWarning("Nothing was written in this run; nothing to publish.")
		return nil
	}

	identity, err := uc.storageRepo.GetCallerIdentity(ctx, run.args.AWSProfile)
	if err != nil {
		return err
	}
	uc.console.LogInfo("Publishing %d files to s3://%s as %s", len(files), run.args.S3Bucket, identity)

	progress := uc.console.ProgressWithTotal("Publishing", len(files))
	defer progress.Stop()

	var failed int32
	err = forEach(ctx, workers(run.args.DownloadWorkers, DefaultDownloadWorkers), len(files), progress,
		func(ctx context.Context, i int) {
			key := objectKey(run.args.S3Prefix, files[i])
			if _, err := uc.storageRepo.Upload(ctx, run.args.AWSProfile, run.args.S3Bucket, key, files[i]); err != nil {
				atomic.AddInt32(&failed, 1)
				uc.console.LogError("Error uploading %s: %v", filepath.Base(files[i]), err)
			}
		})
	if err != nil {
		return err
	}

	if n := atomic.LoadInt32(&failed); n > 0 {
		uc.console.LogWarning("%d of %d uploads failed", n, len(files))
	}
	return nil
}

func objectKey(prefix, file string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return filepath.Base(file)
	}
	return path.Join(prefix, filepath.Base(file))
}

func uniquePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
