package repository

import (
	"context"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
)

// AwardSourceRepository acquires and reads the yearly NSF award archives.
type AwardSourceRepository interface {
	// Archive Operations
	DownloadYear(ctx context.Context, year int, dataDir string) (string, error)
	ListArchives(dataDir string) ([]string, error)
	ExtractArchive(ctx context.Context, zipPath string) ([]string, error)

	// Document Operations
	ListAwardFiles(dataDir string) ([]string, error)
	ParseAward(path string) ([]entity.AwardRecord, error)
	FlattenAward(path string) (entity.AwardRow, error)
}
