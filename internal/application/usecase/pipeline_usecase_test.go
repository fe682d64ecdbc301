package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/diillson/nsf-awards-rollup/internal/adapter/driven/export"
	"github.com/diillson/nsf-awards-rollup/internal/adapter/driven/mission"
	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
	"github.com/diillson/nsf-awards-rollup/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeConsole struct {
	mu       sync.Mutex
	info     []string
	warnings []string
	errors   []string
	success  []string
	ranked   []types.TrendPoint
	trend    []types.TrendPoint
	printed  []string
}

func (c *fakeConsole) add(dst *[]string, format string, a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*dst = append(*dst, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) Print(a ...interface{}) { c.add(&c.printed, "%s", fmt.Sprint(a...)) }
func (c *fakeConsole) Printf(format string, a ...interface{}) { c.add(&c.printed, format, a...) }
func (c *fakeConsole) Println(a ...interface{}) { c.add(&c.printed, "%s", fmt.Sprint(a...)) }
func (c *fakeConsole) LogInfo(format string, a ...interface{}) { c.add(&c.info, format, a...) }
func (c *fakeConsole) LogWarning(format string, a ...interface{}) {
	c.add(&c.warnings, format, a...)
}
func (c *fakeConsole) LogError(format string, a ...interface{}) { c.add(&c.errors, format, a...) }
func (c *fakeConsole) LogSuccess(format string, a ...interface{}) { c.add(&c.success, format, a...) }

func (c *fakeConsole) Status(message string) types.StatusHandle { return nopHandle{} }
func (c *fakeConsole) ProgressWithTotal(title string, total int) types.ProgressHandle {
	return nopHandle{}
}
func (c *fakeConsole) CreateTable() types.TableInterface { return &fakeTable{} }
func (c *fakeConsole) DisplayTrendBars(title string, points []types.TrendPoint) {
	c.trend = points
}
func (c *fakeConsole) DisplayRankedBars(title string, items []types.TrendPoint) {
	c.ranked = items
}

type nopHandle struct{}

func (nopHandle) Update(string) {}
func (nopHandle) Increment() {}
func (nopHandle) Stop() {}

type fakeTable struct {
	columns []string
	rows    [][]interface{}
}

func (t *fakeTable) AddColumn(name string, options ...interface{}) { t.columns = append(t.columns, name) }
func (t *fakeTable) AddRow(cells ...interface{}) { t.rows = append(t.rows, cells) }
func (t *fakeTable) Render() string { return strings.Join(t.columns, "|") }

type fakeSource struct {
	mu         sync.Mutex
	downloaded []int
	extracted  []string
	archives   []string
	files      []string
	records    map[string][]entity.AwardRecord
	failParse  map[string]bool
}

func (s *fakeSource) DownloadYear(ctx context.Context, year int, dataDir string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloaded = append(s.downloaded, year)
	if year == 1999 {
		return "", errors.New("not published")
	}
	return filepath.Join(dataDir, fmt.Sprintf("%d.zip", year)), nil
}

func (s *fakeSource) ListArchives(dataDir string) ([]string, error) { return s.archives, nil }

func (s *fakeSource) ExtractArchive(ctx context.Context, zipPath string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extracted = append(s.extracted, zipPath)
	return nil, nil
}

func (s *fakeSource) ListAwardFiles(dataDir string) ([]string, error) { return s.files, nil }

func (s *fakeSource) ParseAward(path string) ([]entity.AwardRecord, error) {
	if s.failParse[path] {
		return nil, errors.New("invalid JSON")
	}
	return s.records[path], nil
}

func (s *fakeSource) FlattenAward(path string) (entity.AwardRow, error) {
	if s.failParse[path] {
		return nil, errors.New("invalid JSON")
	}
	return entity.AwardRow{{Name: "year", Value: "2020"}, {Name: "file", Value: filepath.Base(path)}}, nil
}

type fakeStorage struct {
	mu   sync.Mutex
	keys []string
}

func (s *fakeStorage) GetCallerIdentity(ctx context.Context, profile string) (string, error) {
	return "arn:aws:iam::123456789012:user/ci", nil
}

func (s *fakeStorage) Upload(ctx context.Context, profile, bucket, key, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return "s3://" + bucket + "/" + key, nil
}

type fakeConfig struct{}

func (fakeConfig) LoadConfigFile(path string) (*types.Config, error) {
	return &types.Config{DataDir: "from-file"}, nil
}

// nsfSite responde às páginas de divisão sem acessar a rede.
type nsfSite map[string]string

func (s nsfSite) RoundTrip(req *http.Request) (*http.Response, error) {
	body, ok := s[req.URL.Path]
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Request:    req,
	}, nil
}

// --- helpers ---

func rec(year int, dirAbbr, dir, divAbbr, div, prog string, amount float64) entity.AwardRecord {
	return entity.AwardRecord{
		Year: year, DirectorateAbbr: dirAbbr, Directorate: dir,
		DivisionAbbr: divAbbr, Division: div, Program: prog, ProgramCode: "0000", Amount: amount,
	}
}

func newSource() *fakeSource {
	return &fakeSource{
		archives: []string{"/data/2020.zip", "/data/2021.zip"},
		files:    []string{"/data/2020/a.json", "/data/2020/b.json", "/data/2021/c.json"},
		records: map[string][]entity.AwardRecord{
			"/data/2020/a.json": {rec(2020, "BIO", "Biological Sciences", "MCB", "Molecular and Cellular", "Genetics", 100)},
			"/data/2021/c.json": {
				rec(2021, "BIO", "Biological Sciences", "MCB", "Molecular and Cellular", "Genetics", 50),
				rec(2021, "CSE", "Computer Science", "CCF", "Computing Foundations", "Algorithms", 200),
			},
		},
		failParse: map[string]bool{"/data/2020/b.json": true},
	}
}

func newUseCase(source *fakeSource, storage *fakeStorage, site nsfSite) (*PipelineUseCase, *fakeConsole) {
	c := &fakeConsole{}
	uc := NewPipelineUseCase(
		source,
		export.NewExportRepository(),
		fakeConfig{},
		mission.NewMissionRepositoryWithClient(&http.Client{Transport: site}),
		storage,
		c,
	)
	return uc, c
}

func ptr(s string) *string { return &s }

func skipAllBut(stages ...string) map[string]bool {
	skip := map[string]bool{}
	for _, s := range types.AllStages {
		skip[s] = true
	}
	for _, s := range stages {
		delete(skip, s)
	}
	return skip
}

// --- tests ---

func TestRunPipeline_InvalidYearRange(t *testing.T) {
	uc, _ := newUseCase(newSource(), &fakeStorage{}, nil)
	err := uc.RunPipeline(context.Background(), &types.CLIArgs{StartYear: 2022, EndYear: 2020})
	assert.ErrorIs(t, err, types.ErrInvalidYearRange)
}

func TestRunPipeline_EndToEnd(t *testing.T) {
	source := newSource()
	storage := &fakeStorage{}
	site := nsfSite{
		"/BIO/MCB": `<div class="clearfix text-formatted field field-org-msn-statement"><p>Cells and molecules.</p></div>`,
	}
	uc, c := newUseCase(source, storage, site)

	year := 2021
	out := t.TempDir()
	args := &types.CLIArgs{
		StartYear:  2020,
		EndYear:    2021,
		DataDir:    "/data",
		OutputDir:  out,
		YearSort:   &year,
		ReportType: []string{"json", "pdf"},
		Skip:       map[string]bool{},
		S3Bucket:   "nsf-bucket",
		S3Prefix:   "/rollup/",
	}

	require.NoError(t, uc.RunPipeline(context.Background(), args))

	sort.Ints(source.downloaded)
	assert.Equal(t, []int{2020, 2021}, source.downloaded)
	assert.ElementsMatch(t, source.archives, source.extracted)
	assert.Len(t, c.errors, 2, "one parse and one flatten failure for b.json")

	exportRepo := export.NewExportRepository()
	full, err := exportRepo.LoadHierarchyJSON(filepath.Join(out, "research.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Computer Science", "Biological Sciences"}, full.Names())

	byYear, err := exportRepo.LoadHierarchyJSON(filepath.Join(out, "research_2021.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Computer Science", "Biological Sciences"}, byYear.Names())

	brief, err := exportRepo.LoadHierarchyJSON(filepath.Join(out, "research_brief.json"))
	require.NoError(t, err)
	bio, ok := brief.Get("Biological Sciences")
	require.True(t, ok)
	assert.Empty(t, bio.Metrics.Years)
	assert.Equal(t, 150.0, bio.Metrics.AmtAwarded)

	for _, name := range []string{"research.pdf", "taxonomy.json", "taxonomy.tsv", "awards.csv", "division_urls.txt"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}

	divisions, err := mission.NewMissionRepository().LoadDivisionMap(out)
	require.NoError(t, err)
	assert.Equal(t, entity.DivisionInfo{Abbr: "MCB", Mission: ptr("Cells and molecules.")}, divisions["Molecular and Cellular"])
	assert.Equal(t, entity.DivisionInfo{Abbr: "CCF"}, divisions["Computing Foundations"])

	require.Len(t, c.ranked, 2)
	assert.Equal(t, types.TrendPoint{Label: "Computing Foundations", Amount: 200}, c.ranked[0])
	assert.Equal(t, []types.TrendPoint{{Label: "2020", Amount: 100}, {Label: "2021", Amount: 250}}, c.trend)

	assert.Contains(t, storage.keys, "rollup/research.json")
	assert.Contains(t, storage.keys, "rollup/division_map.json")
	seen := map[string]int{}
	for _, k := range storage.keys {
		seen[k]++
	}
	assert.Equal(t, 1, seen["rollup/division_map.json"])
}

func TestRunPipeline_AllSkipped(t *testing.T) {
	source := newSource()
	uc, c := newUseCase(source, &fakeStorage{}, nil)

	args := &types.CLIArgs{StartYear: 2020, EndYear: 2021, OutputDir: t.TempDir(), Skip: skipAllBut()}
	require.NoError(t, uc.RunPipeline(context.Background(), args))

	assert.Empty(t, source.downloaded)
	assert.Len(t, c.info, len(types.AllStages))
	assert.Equal(t, []string{"Done."}, c.success)
}

func TestRunPipeline_NoRecordsSkipsDerivedOutputs(t *testing.T) {
	source := newSource()
	source.files = nil
	uc, c := newUseCase(source, &fakeStorage{}, nil)

	out := t.TempDir()
	args := &types.CLIArgs{
		StartYear: 2020, EndYear: 2020, OutputDir: out,
		Skip: skipAllBut(types.StageParse, types.StageMappings, types.StageAggregate, types.StageMissionScrape),
	}
	require.NoError(t, uc.RunPipeline(context.Background(), args))

	assert.Contains(t, c.warnings, types.ErrNoRecords.Error())
	assert.Contains(t, c.info, "Skipping mission scraping.")
	_, err := os.Stat(filepath.Join(out, "research.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunPipeline_TaxonomyNeedsHierarchy(t *testing.T) {
	uc, _ := newUseCase(newSource(), &fakeStorage{}, nil)

	args := &types.CLIArgs{StartYear: 2020, EndYear: 2020, OutputDir: t.TempDir(), Skip: skipAllBut(types.StageTaxonomy)}
	err := uc.RunPipeline(context.Background(), args)
	assert.ErrorIs(t, err, types.ErrHierarchyNotFound)
}

func TestRunPipeline_VisualizeWithoutHierarchyWarns(t *testing.T) {
	uc, c := newUseCase(newSource(), &fakeStorage{}, nil)

	args := &types.CLIArgs{StartYear: 2020, EndYear: 2020, OutputDir: t.TempDir(), Skip: skipAllBut(types.StageVisualize)}
	require.NoError(t, uc.RunPipeline(context.Background(), args))
	require.Len(t, c.warnings, 1)
	assert.Contains(t, c.warnings[0], "[visualize]")
}

func TestRunPipeline_TaxonomyFromExistingHierarchy(t *testing.T) {
	out := t.TempDir()
	tree := entity.Tree{{Name: "BIO", Node: entity.Node{
		Metrics:  entity.Metrics{NumAwards: 1, AmtAwarded: 5},
		Children: entity.Tree{{Name: "MCB", Node: entity.Node{
			Metrics:  entity.Metrics{NumAwards: 1, AmtAwarded: 5},
			Children: entity.Tree{{Name: "Genetics", Node: entity.Node{Metrics: entity.Metrics{NumAwards: 1, AmtAwarded: 5}}}},
		}}},
	}}}
	_, err := export.NewExportRepository().ExportHierarchyToJSON(tree, "research", out)
	require.NoError(t, err)

	uc, _ := newUseCase(newSource(), &fakeStorage{}, nil)
	args := &types.CLIArgs{StartYear: 2020, EndYear: 2020, OutputDir: out, Skip: skipAllBut(types.StageTaxonomy)}
	require.NoError(t, uc.RunPipeline(context.Background(), args))

	data, err := os.ReadFile(filepath.Join(out, "taxonomy.tsv"))
	require.NoError(t, err)
	assert.Equal(t, "directorate\tdivision\tprogram\nBIO\tMCB\tGenetics\n", string(data))
}

func TestRunPipeline_DownloadFailuresAreSkipped(t *testing.T) {
	source := newSource()
	uc, c := newUseCase(source, &fakeStorage{}, nil)

	args := &types.CLIArgs{StartYear: 1999, EndYear: 2000, Skip: skipAllBut(types.StageDownload)}
	require.NoError(t, uc.RunPipeline(context.Background(), args))
	assert.Len(t, source.downloaded, 2)
	require.Len(t, c.errors, 1)
	assert.Contains(t, c.errors[0], "1999")
}

func TestRunPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uc, _ := newUseCase(newSource(), &fakeStorage{}, nil)
	err := uc.RunPipeline(ctx, &types.CLIArgs{StartYear: 2020, EndYear: 2020})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScrapeMissions_RebuildsEntriesFromAbbr(t *testing.T) {
	out := t.TempDir()
	divisionMap := `{
  "Environmental Biology": {"abbr": "DEB", "mission": "Old text."},
  "Molecular and Cellular": {"abbr": "MCB", "mission": "Old text."},
  "Retired Division": "GON"
}`
	urls := "https://www.nsf.gov/BIO/DEB\nhttps://www.nsf.gov/BIO/MCB\nhttps://www.nsf.gov/BIO/GON\n"
	require.NoError(t, os.WriteFile(filepath.Join(out, "division_map.json"), []byte(divisionMap), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "division_urls.txt"), []byte(urls), 0o644))

	site := nsfSite{
		"/BIO/DEB": `<div class="clearfix text-formatted field field-org-msn-statement"><h2>Mission</h2></div>`,
		"/BIO/MCB": `<html><body><p>No mission block.</p></body></html>`,
	}
	uc, c := newUseCase(newSource(), &fakeStorage{}, site)

	run := &pipelineRun{args: &types.CLIArgs{OutputDir: out}, mappingsDone: true}
	require.NoError(t, uc.scrapeMissions(context.Background(), run))
	assert.Len(t, run.written, 1)
	assert.Len(t, c.warnings, 1, "the retired division page is missing")

	divisions, err := mission.NewMissionRepository().LoadDivisionMap(out)
	require.NoError(t, err)
	assert.Equal(t, map[string]entity.DivisionInfo{
		"Environmental Biology":  {Abbr: "DEB", Mission: ptr("")},
		"Molecular and Cellular": {Abbr: "MCB"},
		"Retired Division":       {Abbr: "GON"},
	}, divisions)
}

func TestLoadConfig(t *testing.T) {
	uc, _ := newUseCase(newSource(), &fakeStorage{}, nil)
	cfg, err := uc.LoadConfig("nsf.toml")
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.DataDir)
}

func TestObjectKeyAndDivisionAbbr(t *testing.T) {
	assert.Equal(t, "research.json", objectKey("", "/out/research.json"))
	assert.Equal(t, "nsf/2024/research.json", objectKey("/nsf/2024/", "/out/research.json"))
	assert.Equal(t, "OIA", divisionAbbr("https://www.nsf.gov/OD/OIA/"))
	assert.Equal(t, "MCB", divisionAbbr("https://www.nsf.gov/BIO/MCB"))
	assert.Equal(t, []string{"a", "b"}, uniquePaths([]string{"a", "b", "a"}))
}
