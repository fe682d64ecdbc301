package types

import (
	"fmt"
	"strings"
)

// Pipeline stage names, used by the skip flags and the config file.
const (
	StageDownload      = "download"
	StageExtract       = "extract"
	StageParse         = "parse"
	StageMappings      = "mappings"
	StageExport        = "export"
	StageAggregate     = "aggregate"
	StageTaxonomy      = "taxonomy"
	StageVisualize     = "visualize"
	StageMissionScrape = "missionscrape"
	StagePublish       = "publish"
)

// AllStages lists the pipeline stages in execution order.
var AllStages = []string{
	StageDownload,
	StageExtract,
	StageParse,
	StageMappings,
	StageExport,
	StageAggregate,
	StageTaxonomy,
	StageVisualize,
	StageMissionScrape,
	StagePublish,
}

// Report types accepted by --report-type and report_type.
const (
	ReportJSON = "json"
	ReportPDF  = "pdf"
)

// NormalizeReportTypes lowercases report types and rejects unknown ones.
func NormalizeReportTypes(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		reportType := strings.ToLower(strings.TrimSpace(v))
		switch reportType {
		case ReportJSON, ReportPDF:
			out = append(out, reportType)
		default:
			return nil, fmt.Errorf("%w %q (want json or pdf)", ErrUnsupportedReportType, v)
		}
	}
	return out, nil
}

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile      string
	StartYear       int
	EndYear         int
	DataDir         string
	OutputDir       string
	YearSort        *int
	ReportType      []string
	Skip            map[string]bool
	S3Bucket        string
	S3Prefix        string
	AWSProfile      string
	DownloadWorkers int
	ExtractWorkers  int
	ParseWorkers    int
}

// Skips reports whether the named stage is disabled.
func (a *CLIArgs) Skips(stage string) bool {
	return a.Skip[stage]
}

// Years returns every year in the requested range, inclusive.
func (a *CLIArgs) Years() []int {
	if a.EndYear < a.StartYear {
		return nil
	}
	years := make([]int, 0, a.EndYear-a.StartYear+1)
	for y := a.StartYear; y <= a.EndYear; y++ {
		years = append(years, y)
	}
	return years
}
