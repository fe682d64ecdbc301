package nsf

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/diillson/nsf-awards-rollup/internal/domain/repository"
)

// DefaultBaseURL é o endpoint de download em massa do Award Search da NSF.
const DefaultBaseURL = "https://www.nsf.gov/awardsearch/download"

// NSFRepositoryImpl implementa o AwardSourceRepository sobre os arquivos
// anuais publicados pela NSF.
type NSFRepositoryImpl struct {
	baseURL string
	client  *http.Client
}

// NewNSFRepository cria uma nova implementação do AwardSourceRepository.
func NewNSFRepository() repository.AwardSourceRepository {
	return NewNSFRepositoryWithClient(DefaultBaseURL, &http.Client{Timeout: 30 * time.Minute})
}

// NewNSFRepositoryWithClient permite apontar para outro endpoint (testes, espelhos).
func NewNSFRepositoryWithClient(baseURL string, client *http.Client) repository.AwardSourceRepository {
	return &NSFRepositoryImpl{baseURL: baseURL, client: client}
}

// DownloadYear baixa o ZIP de um ano para {dataDir}/{year}.zip. Arquivos já
// presentes não são baixados de novo.
func (r *NSFRepositoryImpl) DownloadYear(ctx context.Context, year int, dataDir string) (string, error) {
	dest := filepath.Join(dataDir, fmt.Sprintf("%d.zip", year))
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("error creating data directory '%s': %w", dataDir, err)
	}

	url := fmt.Sprintf("%s?DownloadFileName=%d&All=true&isJson=true", r.baseURL, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request for %d: %w", year, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download awards for %d: %w", year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download of %d failed with status: %s", year, resp.Status)
	}

	// Grava num arquivo temporário para que um download interrompido não
	// seja confundido com um ZIP completo na próxima execução.
	tmp, err := os.CreateTemp(dataDir, fmt.Sprintf("%d-*.part", year))
	if err != nil {
		return "", fmt.Errorf("error creating temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("error writing archive for %d: %w", year, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("error closing archive for %d: %w", year, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("error moving archive into place: %w", err)
	}

	return dest, nil
}

// ListArchives lista os ZIPs anuais ainda não extraídos.
func (r *NSFRepositoryImpl) ListArchives(dataDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dataDir, "*.zip"))
	if err != nil {
		return nil, fmt.Errorf("error listing archives in '%s': %w", dataDir, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// ExtractArchive descompacta {year}.zip em {year}/, remove o ZIP e retorna os
// JSONs extraídos. Se o diretório já existe, apenas lista os JSONs.
func (r *NSFRepositoryImpl) ExtractArchive(ctx context.Context, zipPath string) ([]string, error) {
	extractDir := strings.TrimSuffix(zipPath, filepath.Ext(zipPath))

	if _, err := os.Stat(extractDir); err == nil {
		return r.ListAwardFiles(extractDir)
	}

	if err := extractZip(ctx, zipPath, extractDir); err != nil {
		os.RemoveAll(extractDir)
		return nil, err
	}

	if err := os.Remove(zipPath); err != nil {
		return nil, fmt.Errorf("error removing archive '%s': %w", zipPath, err)
	}

	return r.ListAwardFiles(extractDir)
}

func extractZip(ctx context.Context, zipPath, extractDir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("error opening archive '%s': %w", zipPath, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(extractDir, 0755); err != nil {
		return fmt.Errorf("error creating directory '%s': %w", extractDir, err)
	}
	root := filepath.Clean(extractDir) + string(os.PathSeparator)

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target := filepath.Join(extractDir, f.Name)
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("archive entry %q escapes %s", f.Name, extractDir)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("error creating directory '%s': %w", target, err)
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("error creating directory for '%s': %w", target, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("error reading archive entry %q: %w", f.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("error creating file '%s': %w", target, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("error extracting %q: %w", f.Name, err)
	}
	return dst.Close()
}

// ListAwardFiles lista, em ordem lexical, todos os JSONs abaixo de dir.
func (r *NSFRepositoryImpl) ListAwardFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking '%s': %w", dir, err)
	}
	return files, nil
}
