package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
	"github.com/diillson/nsf-awards-rollup/internal/domain/repository"
	"github.com/diillson/nsf-awards-rollup/internal/shared/types"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct{}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{}
}

// --- Hierarquia ---

func (r *ExportRepositoryImpl) ExportHierarchyToJSON(tree entity.Tree, filename, outputDir string) (string, error) {
	if tree == nil {
		tree = entity.Tree{}
	}
	return writeJSON(tree, filename, outputDir)
}

// LoadHierarchyJSON lê um research*.json preservando a ordem das chaves.
func (r *ExportRepositoryImpl) LoadHierarchyJSON(path string) (entity.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", types.ErrHierarchyNotFound, path)
		}
		return nil, fmt.Errorf("error reading hierarchy file: %w", err)
	}

	var tree entity.Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("error decoding hierarchy file %s: %w", filepath.Base(path), err)
	}
	return tree, nil
}

// --- Taxonomia ---

func (r *ExportRepositoryImpl) ExportTaxonomyToJSON(taxonomy entity.Taxonomy, filename, outputDir string) (string, error) {
	if taxonomy == nil {
		taxonomy = entity.Taxonomy{}
	}
	return writeJSON(taxonomy, filename, outputDir)
}

func (r *ExportRepositoryImpl) ExportTaxonomyToTSV(taxonomy entity.Taxonomy, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "tsv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating TSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = '\t'

	if err := writer.Write([]string{"directorate", "division", "program"}); err != nil {
		return "", fmt.Errorf("error writing TSV header: %w", err)
	}
	for _, row := range taxonomy.Rows() {
		if err := writer.Write(row[:]); err != nil {
			return "", fmt.Errorf("error writing TSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("error flushing TSV file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// --- Mapeamentos de abreviações ---

// ExportMappings grava os três mapas de abreviações e o division_urls.txt.
func (r *ExportRepositoryImpl) ExportMappings(maps entity.AbbreviationMaps, outputDir string) ([]string, error) {
	var written []string

	for _, m := range []struct {
		name string
		data map[string]string
	}{
		{"directorate_map", maps.Directorates},
		{"division_map", maps.Divisions},
		{"program_map", maps.Programs},
	} {
		data := m.data
		if data == nil {
			data = map[string]string{}
		}
		path, err := writeJSON(data, m.name, outputDir)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	urls := make([]string, len(maps.Combos))
	for i, c := range maps.Combos {
		urls[i] = c.URL()
	}
	sort.Strings(urls)

	path, err := writeLines(urls, "division_urls", outputDir)
	if err != nil {
		return written, err
	}
	return append(written, path), nil
}

// --- Export por award ---

// ExportAwardsToCSV grava uma linha por award. O cabeçalho vem da primeira linha.
func (r *ExportRepositoryImpl) ExportAwardsToCSV(rows []entity.AwardRow, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if len(rows) > 0 {
		header := rows[0].Header()
		if err := writer.Write(header); err != nil {
			return "", fmt.Errorf("error writing CSV header: %w", err)
		}
		for _, row := range rows {
			if err := writer.Write(row.Values(header)); err != nil {
				return "", fmt.Errorf("error writing CSV row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("error flushing CSV file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// --- Funções Auxiliares ---

// generateFilename monta {dir}/{base}.{ext} e garante que o diretório exista.
// Os nomes são fixos para que execuções seguintes sobrescrevam os mesmos arquivos.
func generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	return filepath.Join(dir, fmt.Sprintf("%s.%s", base, ext)), nil
}

func writeJSON(v interface{}, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func writeLines(lines []string, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "txt")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating text file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return "", fmt.Errorf("error writing text file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("error writing text file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// Regex para limpar sequências ANSI de cor/estilo que possam vir nos nomes.
var ansiRegex = regexp.MustCompile(`\x1B\[[0-9;]*[A-Za-z]`)

func cleanText(text string) string {
	return ansiRegex.ReplaceAllString(text, "")
}
