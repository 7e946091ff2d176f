package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/dataset"
	"github.com/wonny/areascore/internal/signals"
)

// dataCmd represents the data command
var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "입력 데이터 관리",
	Long: `입력 파일을 점검하거나 DB 스테이징 테이블로 적재합니다.

Subcommands:
  check   - 피처 커버리지 점검
  import  - 파일 → scoring.areas / area_features / observations

Example:
  go run ./cmd/areascore data check
  STORAGE_ENABLED=true go run ./cmd/areascore data import`,
}

var (
	dataCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "피처 커버리지 점검",
		RunE:  runDataCheck,
	}

	dataImportCmd = &cobra.Command{
		Use:   "import",
		Short: "입력 파일을 DB로 적재",
		RunE:  runDataImport,
	}
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataCheckCmd)
	dataCmd.AddCommand(dataImportCmd)
}

// stagedColumn is one observation column copied by data import
type stagedColumn struct {
	table contracts.ObservationTable
	value string
	dims  []string
}

var stagedColumns = []stagedColumn{
	{contracts.TableRental, dataset.ValueAverageRent, []string{dataset.DimDistrict, dataset.DimBedroomType}},
	{contracts.TableRental, dataset.ValueVacancyRate, []string{dataset.DimDistrict, dataset.DimBedroomType}},
	{contracts.TableHousingStarts, dataset.ValueHousingStarts, []string{dataset.DimRegion}},
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	fs, err := a.files.LoadFeatures(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printHeader(out, "Feature Coverage")
	printKeyValue(out, "Areas", fmt.Sprintf("%d", fs.Len()))
	fmt.Fprintln(out)

	coverage := signals.Coverage(fs)
	rows := make([][]string, 0, len(contracts.KnownFeatures))
	for _, name := range contracts.KnownFeatures {
		pct := 0.0
		if fs.Len() > 0 {
			pct = float64(coverage[name]) / float64(fs.Len()) * 100
		}
		rows = append(rows, []string{string(name), fmt.Sprintf("%d", coverage[name]), fmt.Sprintf("%.0f%%", pct)})
	}
	printTable(out, []string{"FEATURE", "AREAS", "COVER"}, []int{28, 6, 6}, rows)

	if coverage[contracts.FeaturePopulation] == 0 {
		fmt.Fprintln(out)
		printWarning(out, "population is missing everywhere; growth falls back to construction signals")
	}
	return nil
}

func runDataImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.staged == nil {
		return fmt.Errorf("data import requires STORAGE_ENABLED=true")
	}

	out := cmd.OutOrStdout()
	printHeader(out, "Data Import")

	fs, err := a.files.LoadFeatures(ctx)
	if err != nil {
		return err
	}
	if err := a.staged.ImportFeatures(ctx, fs); err != nil {
		return fmt.Errorf("import features: %w", err)
	}
	printKeyValue(out, "areas", fmt.Sprintf("%d", fs.Len()))

	for _, col := range stagedColumns {
		obs, err := a.files.LoadObservations(ctx, col.table, col.value, col.dims)
		if err != nil {
			return err
		}
		if err := a.staged.ImportObservations(ctx, col.table, col.value, obs); err != nil {
			return fmt.Errorf("import %s.%s: %w", col.table, col.value, err)
		}
		printKeyValue(out, fmt.Sprintf("%s.%s", col.table, col.value), fmt.Sprintf("%d rows", len(obs)))
	}

	fmt.Fprintln(out)
	printSuccess(out, "Import completed; set DATA_SOURCE=database to score from the staged tables")
	return nil
}
