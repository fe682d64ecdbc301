package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/diillson/nsf-awards-rollup/internal/domain/repository"
	"github.com/diillson/nsf-awards-rollup/internal/shared/types"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// ConfigRepositoryImpl implementa o ConfigRepository.
type ConfigRepositoryImpl struct{}

// NewConfigRepository cria uma nova implementação do ConfigRepository.
func NewConfigRepository() repository.ConfigRepository {
	return &ConfigRepositoryImpl{}
}

// LoadConfigFile carrega um arquivo de configuração TOML, YAML ou JSON.
func (r *ConfigRepositoryImpl) LoadConfigFile(filePath string) (*types.Config, error) {
	fileExtension := filepath.Ext(filePath)
	fileExtension = strings.ToLower(fileExtension)

	// Verifica se o arquivo existe
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}

	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	// Lê o arquivo
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config types.Config

	switch fileExtension {
	case ".toml":
		if err := toml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, &config); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedConfigFormat, fileExtension)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filePath, err)
	}

	return &config, nil
}

// validateConfig rejeita valores que o pipeline não saberia interpretar.
func validateConfig(config *types.Config) error {
	if config.YearSort < 0 {
		return fmt.Errorf("year_sort must be a positive year, got %d", config.YearSort)
	}
	for name, workers := range map[string]int{
		"download_workers": config.DownloadWorkers,
		"extract_workers":  config.ExtractWorkers,
		"parse_workers":    config.ParseWorkers,
	} {
		if workers < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, workers)
		}
	}
	reportTypes, err := types.NormalizeReportTypes(config.ReportType)
	if err != nil {
		return fmt.Errorf("report_type: %w", err)
	}
	config.ReportType = reportTypes
	for _, stage := range config.Skip {
		if !isStage(stage) {
			return fmt.Errorf("unknown stage %q in skip", stage)
		}
	}
	return nil
}

func isStage(name string) bool {
	for _, stage := range types.AllStages {
		if stage == name {
			return true
		}
	}
	return false
}
