package cli

import (
	"fmt"

	"github.com/diillson/nsf-awards-rollup/pkg/console"
	"github.com/diillson/nsf-awards-rollup/pkg/version"
	"github.com/fatih/color"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner(versionStr string) {
	banner := `
     _   _  ____  _____      _                          _
    | \ | |/ ___||  ___|    / \__      ____ _ _ __ __| |___
    |  \| |\___ \| |_      / _ \ \ /\ / / _' | '__/ _' / __|
    | |\  | ___) |  _|    / ___ \ V  V / (_| | | | (_| \__ \
    |_| \_||____/|_|     /_/   \_\_/\_/ \__,_|_|  \__,_|___/
        `
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(blue(banner))

	// Obtem a string formatada da versão através do pacote version
	formattedVersion := version.FormatVersion()
	fmt.Println(console.BrightCyan(fmt.Sprintf("NSF Awards Rollup CLI (v%s)", formattedVersion)))
	fmt.Println(console.BrightYellow("Funding rollup: directorate → division → program"))
}
