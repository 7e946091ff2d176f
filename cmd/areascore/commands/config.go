package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/areascore/internal/scoreconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "점수 설정 파일 관리",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "점수 설정 YAML 검증",
	Long: `Parses a scoring YAML strictly (unknown fields fail), applies the
constraints and lists non-fatal warnings. Without a path the built-in
defaults are checked.

Example:
  go run ./cmd/areascore config validate configs/montreal.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	path := scoringConfig
	if len(args) == 1 {
		path = args[0]
	}

	cfg, _, err := scoreconfig.LoadOrDefault(path)
	if err != nil {
		var verr scoreconfig.ValidationError
		if errors.As(err, &verr) {
			printFailure(out, fmt.Sprintf("%s: %s", verr.Field, verr.Message))
		} else {
			printFailure(out, err.Error())
		}
		return fmt.Errorf("invalid scoring config")
	}

	hash, err := scoreconfig.Hash(cfg)
	if err != nil {
		return err
	}

	source := path
	if source == "" {
		source = "(built-in defaults)"
	}
	printHeader(out, "Scoring Config")
	printKeyValue(out, "Source", source)
	printKeyValue(out, "Config ID", cfg.Meta.ConfigID)
	printKeyValue(out, "Version", cfg.Meta.Version)
	printKeyValue(out, "Horizon", fmt.Sprintf("%d months", cfg.Forecast.HorizonMonths))
	printKeyValue(out, "Outliers", fmt.Sprintf("%t", cfg.Outliers.Enabled))
	printKeyValue(out, "Hash", hash[:12])
	fmt.Fprintln(out)

	for _, w := range scoreconfig.Warn(cfg) {
		printWarning(out, fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	printSuccess(out, "Scoring config is valid")
	return nil
}
