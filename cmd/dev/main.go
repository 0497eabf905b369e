package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"gojsd/adapters/excel"
	"gojsd/app"
	"gojsd/domain/compare"
	"gojsd/internal/migration"
	"gojsd/internal/testkit"
	"gojsd/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gojsd-dev",
		Short: "Development tools for the comparison engine",
	}

	rootCmd.AddCommand(
		newSeedCmd(),
		newSmokeTestCmd(),
		newDeterminismTestCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSeedCmd() *cobra.Command {
	var outDir string
	var seed int64
	var skewFactor float64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write synthetic panel workbooks for development",
		RunE: func(cmd *cobra.Command, args []string) error {
			return generateSeedData(outDir, seed, skewFactor)
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "./testdata", "Output directory for seed workbooks")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	cmd.Flags().Float64Var(&skewFactor, "skew", 1.4, "Weight factor applied to the drifted panel's Female share")

	return cmd
}

func newSmokeTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run an end-to-end comparison on synthetic panels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmokeTests(cmd.Context())
		},
	}
	return cmd
}

func newDeterminismTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "determinism",
		Short: "Verify that equal seeds produce identical distance series",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeterminismTests(cmd.Context())
		},
	}
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return fmt.Errorf("no database URL (use --database-url or DATABASE_URL)")
			}
			db, err := sqlx.Connect("postgres", databaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer db.Close()
			return migration.NewRunner().Run(cmd.Context(), db)
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL")

	return cmd
}

// generateSeedData writes a reference panel and a skewed panel, both as
// attribute workbooks and as row-level record workbooks
func generateSeedData(outDir string, seed int64, skewFactor float64) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	kit, err := testkit.NewTestKit()
	if err != nil {
		return err
	}

	reference, err := kit.GenerateDataset("reference_panel", seed)
	if err != nil {
		return fmt.Errorf("failed to generate reference panel: %w", err)
	}
	drifted, err := kit.GenerateSkewedDataset("drifted_panel", seed+1, "gender", "Female", skewFactor)
	if err != nil {
		return fmt.Errorf("failed to generate drifted panel: %w", err)
	}

	outputs := []struct {
		path  string
		write func(string) error
	}{
		{filepath.Join(outDir, "reference_panel.xlsx"), func(p string) error { return excel.WriteWorkbook(p, reference) }},
		{filepath.Join(outDir, "drifted_panel.xlsx"), func(p string) error { return excel.WriteWorkbook(p, drifted) }},
		{filepath.Join(outDir, "reference_records.xlsx"), func(p string) error { return excel.WriteRecords(p, reference) }},
		{filepath.Join(outDir, "drifted_records.xlsx"), func(p string) error { return excel.WriteRecords(p, drifted) }},
	}
	for _, out := range outputs {
		if err := out.write(out.path); err != nil {
			return fmt.Errorf("failed to write %s: %w", out.path, err)
		}
		fmt.Printf("Wrote %s\n", out.path)
	}

	fmt.Println("Seed data generated")
	return nil
}

// runSmokeTests exercises single mode, aggregate multi mode and famd multi
// mode on a known-skew pair and prints the resulting series summaries
func runSmokeTests(ctx context.Context) error {
	kit, err := testkit.NewTestKit()
	if err != nil {
		return err
	}

	reference, err := kit.GenerateDataset("reference_panel", 42)
	if err != nil {
		return err
	}
	drifted, err := kit.GenerateSkewedDataset("drifted_panel", 43, "gender", "Female", 1.5)
	if err != nil {
		return err
	}

	svc := app.NewComparisonService(kit.RunRepository(), nil)

	cases := []struct {
		label  string
		mode   compare.Mode
		method compare.Method
	}{
		{"single", compare.ModeSingle, ""},
		{"multi/aggregate", compare.ModeMulti, compare.MethodAggregate},
		{"multi/famd", compare.ModeMulti, compare.MethodFAMD},
	}

	for _, tc := range cases {
		result, err := svc.Compare(ctx, app.CompareRequest{
			DatasetA: reference,
			DatasetB: drifted,
			Mode:     tc.mode,
			Method:   tc.method,
		})
		if err != nil {
			return fmt.Errorf("%s comparison failed: %w", tc.label, err)
		}
		if !result.Succeeded() {
			return fmt.Errorf("%s comparison produced no entries", tc.label)
		}
		fmt.Printf("✅ %-16s entries=%d warnings=%d errors=%d runtime=%dms\n",
			tc.label, len(result.Entries), len(result.Warnings), len(result.Errors), result.RuntimeMs)
	}

	runs, err := kit.Reader().ListRuns(ctx, ports.RunFilters{})
	if err != nil {
		return err
	}
	fmt.Printf("✅ %d run(s) persisted through the in-memory repository\n", len(runs))

	fmt.Println("Smoke tests passed")
	return nil
}

// runDeterminismTests runs the same famd comparison twice with one seed and
// requires identical output
func runDeterminismTests(ctx context.Context) error {
	build := func() (*compare.ComparisonResult, error) {
		kit, err := testkit.NewTestKit()
		if err != nil {
			return nil, err
		}
		a, err := kit.GenerateDataset("panel_a", 7)
		if err != nil {
			return nil, err
		}
		b, err := kit.GenerateSkewedDataset("panel_b", 8, "region", "North", 1.3)
		if err != nil {
			return nil, err
		}
		svc := app.NewComparisonService(nil, nil)
		opts := compare.Options{}
		opts.FAMD.Seed = 99
		return svc.Compare(ctx, app.CompareRequest{
			DatasetA: a,
			DatasetB: b,
			Mode:     compare.ModeMulti,
			Method:   compare.MethodFAMD,
			Options:  opts,
		})
	}

	first, err := build()
	if err != nil {
		return fmt.Errorf("first run failed: %w", err)
	}
	second, err := build()
	if err != nil {
		return fmt.Errorf("second run failed: %w", err)
	}

	if len(first.Entries) != len(second.Entries) {
		return fmt.Errorf("entry counts differ: %d vs %d", len(first.Entries), len(second.Entries))
	}
	for i := range first.Entries {
		var sa, sb *compare.DistanceSeries
		if first.Entries[i].Multi != nil {
			sa = &first.Entries[i].Multi.Series
		}
		if second.Entries[i].Multi != nil {
			sb = &second.Entries[i].Multi.Series
		}
		if sa == nil || sb == nil {
			return fmt.Errorf("entry %d has no combined series", i)
		}
		if !reflect.DeepEqual(sa.Points, sb.Points) {
			return fmt.Errorf("entry %d series differ between runs", i)
		}
	}

	fmt.Println("✅ Determinism verified: identical seeds produce identical series")
	return nil
}
