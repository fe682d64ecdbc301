package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/diillson/nsf-awards-rollup/pkg/version"

	"github.com/diillson/nsf-awards-rollup/internal/application/usecase"
	"github.com/diillson/nsf-awards-rollup/internal/shared/types"
	"github.com/spf13/cobra"
)

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd         *cobra.Command
	pipelineUseCase *usecase.PipelineUseCase
	version         string
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(versionStr string) *CLIApp {
	app := &CLIApp{
		version: versionStr,
	}

	// Obtem a versão formatada
	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:     "nsf-awards START END",
		Short:   "NSF awards funding rollup (directorate → division → program)",
		Version: formattedVersion,
		Args:    cobra.ExactArgs(2),
		RunE:    app.runCommand,
	}

	rootCmd.SetVersionTemplate(`{{printf "NSF Awards Rollup version: %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	flags.String("data-dir", "data/awards", "Directory holding the yearly award archives")
	flags.StringP("output-dir", "d", "outputs", "Directory to write the outputs to")
	flags.Int("year-sort", 0, "Also write research_{year}.json sorted by that year's funding")
	flags.StringSliceP("report-type", "y", []string{"json"}, "Specify report types: json, pdf")
	for _, stage := range types.AllStages {
		flags.Bool("skip-"+stage, false, fmt.Sprintf("Skip the %s stage", stage))
	}
	flags.String("s3-bucket", "", "Publish the outputs of this run to this S3 bucket")
	flags.String("s3-prefix", "", "Key prefix for published outputs")
	flags.String("aws-profile", "", "AWS profile used to publish (default: standard credential chain)")
	flags.Int("download-workers", usecase.DefaultDownloadWorkers, "Concurrent downloads")
	flags.Int("extract-workers", usecase.DefaultExtractWorkers, "Concurrent archive extractions")
	flags.Int("parse-workers", 0, "Concurrent award parsers (default: number of CPUs)")

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

// parseArgs converte flags e argumentos posicionais em CLIArgs.
func (app *CLIApp) parseArgs(positional []string) (*types.CLIArgs, error) {
	if len(positional) != 2 {
		return nil, fmt.Errorf("expected START and END years, got %d arguments", len(positional))
	}
	start, err := strconv.Atoi(positional[0])
	if err != nil {
		return nil, fmt.Errorf("invalid start year %q: %w", positional[0], err)
	}
	end, err := strconv.Atoi(positional[1])
	if err != nil {
		return nil, fmt.Errorf("invalid end year %q: %w", positional[1], err)
	}

	flags := app.rootCmd.Flags()
	configFile, _ := flags.GetString("config-file")
	dataDir, _ := flags.GetString("data-dir")
	outputDir, _ := flags.GetString("output-dir")
	yearSort, _ := flags.GetInt("year-sort")
	reportType, _ := flags.GetStringSlice("report-type")
	s3Bucket, _ := flags.GetString("s3-bucket")
	s3Prefix, _ := flags.GetString("s3-prefix")
	awsProfile, _ := flags.GetString("aws-profile")
	downloadWorkers, _ := flags.GetInt("download-workers")
	extractWorkers, _ := flags.GetInt("extract-workers")
	parseWorkers, _ := flags.GetInt("parse-workers")

	skip := map[string]bool{}
	for _, stage := range types.AllStages {
		if v, _ := flags.GetBool("skip-" + stage); v {
			skip[stage] = true
		}
	}

	if yearSort < 0 {
		return nil, fmt.Errorf("invalid --year-sort %d: must be a positive year", yearSort)
	}
	reportType, err = types.NormalizeReportTypes(reportType)
	if err != nil {
		return nil, fmt.Errorf("invalid --report-type: %w", err)
	}

	yearSortPtr := &yearSort
	if yearSort == 0 {
		yearSortPtr = nil
	}

	args := &types.CLIArgs{
		ConfigFile:      configFile,
		StartYear:       start,
		EndYear:         end,
		DataDir:         dataDir,
		OutputDir:       outputDir,
		YearSort:        yearSortPtr,
		ReportType:      reportType,
		Skip:            skip,
		S3Bucket:        s3Bucket,
		S3Prefix:        s3Prefix,
		AWSProfile:      awsProfile,
		DownloadWorkers: downloadWorkers,
		ExtractWorkers:  extractWorkers,
		ParseWorkers:    parseWorkers,
	}

	return args, nil
}

// mergeConfig preenche com os valores do arquivo apenas as flags que o
// usuário não informou na linha de comando.
func (app *CLIApp) mergeConfig(args *types.CLIArgs, cfg *types.Config) {
	flags := app.rootCmd.Flags()
	unset := func(name string) bool { return !flags.Changed(name) }

	if cfg.DataDir != "" && unset("data-dir") {
		args.DataDir = cfg.DataDir
	}
	if cfg.OutputDir != "" && unset("output-dir") {
		args.OutputDir = cfg.OutputDir
	}
	if cfg.YearSort != 0 && unset("year-sort") {
		year := cfg.YearSort
		args.YearSort = &year
	}
	if len(cfg.ReportType) > 0 && unset("report-type") {
		if reportType, err := types.NormalizeReportTypes(cfg.ReportType); err == nil {
			args.ReportType = reportType
		}
	}
	if cfg.S3Bucket != "" && unset("s3-bucket") {
		args.S3Bucket = cfg.S3Bucket
	}
	if cfg.S3Prefix != "" && unset("s3-prefix") {
		args.S3Prefix = cfg.S3Prefix
	}
	if cfg.AWSProfile != "" && unset("aws-profile") {
		args.AWSProfile = cfg.AWSProfile
	}
	if cfg.DownloadWorkers != 0 && unset("download-workers") {
		args.DownloadWorkers = cfg.DownloadWorkers
	}
	if cfg.ExtractWorkers != 0 && unset("extract-workers") {
		args.ExtractWorkers = cfg.ExtractWorkers
	}
	if cfg.ParseWorkers != 0 && unset("parse-workers") {
		args.ParseWorkers = cfg.ParseWorkers
	}
	for _, stage := range cfg.Skip {
		if unset("skip-" + stage) {
			args.Skip[stage] = true
		}
	}
}

// runCommand é o ponto de entrada principal para o comando CLI.
func (app *CLIApp) runCommand(cmd *cobra.Command, positional []string) error {
	// Exibe o banner de boas-vindas
	displayWelcomeBanner(app.version)

	// Verifica a versão mais recente disponível
	go version.CheckLatestVersion(app.version)

	cliArgs, err := app.parseArgs(positional)
	if err != nil {
		return err
	}

	if cliArgs.ConfigFile != "" {
		cfg, err := app.pipelineUseCase.LoadConfig(cliArgs.ConfigFile)
		if err != nil {
			return err
		}
		app.mergeConfig(cliArgs, cfg)
	}

	if cliArgs.StartYear > cliArgs.EndYear {
		return fmt.Errorf("%w: %d > %d", types.ErrInvalidYearRange, cliArgs.StartYear, cliArgs.EndYear)
	}

	for _, dir := range []*string{&cliArgs.DataDir, &cliArgs.OutputDir} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return err
		}
		*dir = abs
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return app.pipelineUseCase.RunPipeline(ctx, cliArgs)
}

// SetPipelineUseCase sets the pipeline use case for the CLI app.
func (app *CLIApp) SetPipelineUseCase(useCase *usecase.PipelineUseCase) {
	app.pipelineUseCase = useCase
}
