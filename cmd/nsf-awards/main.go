package main

import (
	"fmt"
	"os"

	"github.com/diillson/nsf-awards-rollup/internal/adapter/driven/aws"
	"github.com/diillson/nsf-awards-rollup/internal/adapter/driven/config"
	"github.com/diillson/nsf-awards-rollup/internal/adapter/driven/export"
	"github.com/diillson/nsf-awards-rollup/internal/adapter/driven/mission"
	"github.com/diillson/nsf-awards-rollup/internal/adapter/driven/nsf"
	"github.com/diillson/nsf-awards-rollup/internal/adapter/driving/cli"
	"github.com/diillson/nsf-awards-rollup/internal/application/usecase"
	"github.com/diillson/nsf-awards-rollup/pkg/console"
	"github.com/diillson/nsf-awards-rollup/pkg/version"
)

func main() {
	// Inicializa o aplicativo CLI
	app := cli.NewCLIApp(version.Version)

	// Inicializa os repositórios
	sourceRepo := nsf.NewNSFRepository()
	exportRepo := export.NewExportRepository()
	configRepo := config.NewConfigRepository()
	missionRepo := mission.NewMissionRepository()
	storageRepo := aws.NewAWSRepository()
	consoleImpl := console.NewConsole()

	// Inicializa o caso de uso
	pipelineUseCase := usecase.NewPipelineUseCase(
		sourceRepo,
		exportRepo,
		configRepo,
		missionRepo,
		storageRepo,
		consoleImpl,
	)

	// Define o caso de uso no aplicativo CLI
	app.SetPipelineUseCase(pipelineUseCase)

	// Executa o aplicativo
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
