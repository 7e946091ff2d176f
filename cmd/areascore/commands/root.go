package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	scoringConfig string
	outputDir     string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "areascore",
	Short: "areascore - 지역 투자 매력도 점수 산출",
	Long: `areascore CLI

지역별 피처와 임대/착공 시계열로 예측을 만들고
5개 서브스코어와 종합 점수, 분위, 이상치를 산출합니다.

Usage:
  go run ./cmd/areascore [command]

Examples:
  go run ./cmd/areascore run
  go run ./cmd/areascore forecast validate --holdout 6
  go run ./cmd/areascore scheduler start
  go run ./cmd/areascore serve --with-scheduler
  go run ./cmd/areascore config validate configs/montreal.yaml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&scoringConfig, "scoring-config", "", "scoring YAML (default SCORING_CONFIG or built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "", "artifact directory (default OUTPUT_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
