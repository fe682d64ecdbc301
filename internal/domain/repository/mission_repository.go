package repository

import (
	"context"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
)

// MissionRepository enriches division_map.json with mission statements
// scraped from the division pages listed in division_urls.txt.
type MissionRepository interface {
	FetchMission(ctx context.Context, url string) (string, bool, error)
	LoadDivisionURLs(outputDir string) ([]string, error)
	LoadDivisionMap(outputDir string) (map[string]entity.DivisionInfo, error)
	SaveDivisionMap(divisions map[string]entity.DivisionInfo, outputDir string) (string, error)
}
