package mission

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
	"github.com/diillson/nsf-awards-rollup/internal/domain/repository"
	"github.com/diillson/nsf-awards-rollup/internal/shared/types"
	"golang.org/x/net/html"
)

const (
	divisionMapFile  = "division_map.json"
	divisionURLsFile = "division_urls.txt"
)

// missionClasses identifica o bloco com a declaração de missão nas páginas de divisão.
var missionClasses = []string{"clearfix", "text-formatted", "field", "field-org-msn-statement"}

// MissionRepositoryImpl implementa o MissionRepository sobre as páginas do nsf.gov.
type MissionRepositoryImpl struct {
	client *http.Client
}

// NewMissionRepository cria uma nova implementação do MissionRepository.
func NewMissionRepository() repository.MissionRepository {
	return NewMissionRepositoryWithClient(&http.Client{Timeout: 10 * time.Second})
}

// NewMissionRepositoryWithClient permite injetar o cliente HTTP.
func NewMissionRepositoryWithClient(client *http.Client) repository.MissionRepository {
	return &MissionRepositoryImpl{client: client}
}

// FetchMission baixa a página e retorna o texto da missão. found é false
// quando a página não tem o bloco de missão.
func (r *MissionRepositoryImpl) FetchMission(ctx context.Context, url string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false, fmt.Errorf("fetch of %s failed with status: %s", url, resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("error parsing HTML from %s: %w", url, err)
	}

	block := findMissionBlock(doc)
	if block == nil {
		return "", false, nil
	}
	return missionText(block), true, nil
}

func findMissionBlock(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "div" && hasClasses(n, missionClasses) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findMissionBlock(c); found != nil {
			return found
		}
	}
	return nil
}

func hasClasses(n *html.Node, want []string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		have := map[string]bool{}
		for _, c := range strings.Fields(attr.Val) {
			have[c] = true
		}
		for _, c := range want {
			if !have[c] {
				return false
			}
		}
		return true
	}
	return false
}

// missionText junta o texto de cada <p> e <li> do bloco, na ordem do documento.
func missionText(block *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "p" || n.Data == "li") {
			if text := nodeText(n); text != "" {
				parts = append(parts, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(block)
	return strings.Join(parts, " ")
}

func nodeText(n *html.Node) string {
	var words []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(words, " ")
}

// LoadDivisionURLs lê division_urls.txt ignorando linhas vazias.
func (r *MissionRepositoryImpl) LoadDivisionURLs(outputDir string) ([]string, error) {
	path := filepath.Join(outputDir, divisionURLsFile)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", types.ErrMissingDivisionURLs, path)
		}
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return urls, nil
}

// LoadDivisionMap lê division_map.json aceitando tanto o formato simples
// (nome -> abreviação) quanto o enriquecido (nome -> {abbr, mission}).
func (r *MissionRepositoryImpl) LoadDivisionMap(outputDir string) (map[string]entity.DivisionInfo, error) {
	path := filepath.Join(outputDir, divisionMapFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}

	divisions := make(map[string]entity.DivisionInfo, len(raw))
	for name, val := range raw {
		var info entity.DivisionInfo
		trimmed := bytes.TrimSpace(val)
		if len(trimmed) > 0 && trimmed[0] == '"' {
			if err := json.Unmarshal(trimmed, &info.Abbr); err != nil {
				return nil, fmt.Errorf("invalid entry %q in %s: %w", name, path, err)
			}
		} else if err := json.Unmarshal(trimmed, &info); err != nil {
			return nil, fmt.Errorf("invalid entry %q in %s: %w", name, path, err)
		}
		divisions[name] = info
	}
	return divisions, nil
}

// SaveDivisionMap sobrescreve division_map.json no formato enriquecido.
func (r *MissionRepositoryImpl) SaveDivisionMap(divisions map[string]entity.DivisionInfo, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", outputDir, err)
	}
	path := filepath.Join(outputDir, divisionMapFile)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error writing %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(divisions); err != nil {
		return "", fmt.Errorf("error encoding division map: %w", err)
	}
	return filepath.Abs(path)
}
