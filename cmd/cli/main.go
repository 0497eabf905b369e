package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gojsd/adapters/excel"
	"gojsd/adapters/export"
	"gojsd/app"
	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/internal/profiling"
	"gojsd/ports"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gojsd-cli",
		Short: "Distribution distance between longitudinal datasets",
	}

	rootCmd.AddCommand(
		newCompareCmd(),
		newSweepCmd(),
		newInspectCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCompareCmd() *cobra.Command {
	var attributes string
	var mode string
	var method string
	var alignment string
	var metric string
	var scale string
	var weights string
	var binCount int
	var components int
	var seed int64
	var out string
	var formats []string
	var asRecords bool

	cmd := &cobra.Command{
		Use:   "compare [file-a] [file-b]",
		Short: "Compare two datasets over their shared date axis",
		Long: `Compare the categorical composition of two datasets date by date.

Single mode produces one distance series per shared attribute; multi mode
combines the attributes into one series, either as a weighted mean of the
per-attribute distances (aggregate) or through a factor projection of the
pooled row-level records (famd).

Example: gojsd-cli compare panel.xlsx population.xlsx --mode multi --method aggregate --weights "Gender=0.5,Age Group=0.5"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildOptions(alignment, metric, scale, weights, binCount, components, seed)
			if err != nil {
				return err
			}
			return runCompare(cmd.Context(), args[0], args[1], compareConfig{
				attributes: splitList(attributes),
				mode:       compare.Mode(mode),
				method:     compare.Method(method),
				options:    opts,
				out:        out,
				formats:    formats,
				asRecords:  asRecords,
			})
		},
	}

	cmd.Flags().StringVar(&attributes, "attributes", "", "Comma-separated attribute names (empty compares all shared)")
	cmd.Flags().StringVar(&mode, "mode", "single", "Comparison mode: single|multi")
	cmd.Flags().StringVar(&method, "method", "aggregate", "Multi-mode method: aggregate|famd")
	cmd.Flags().StringVar(&alignment, "alignment", "exact", "Date alignment: exact|nearest-prior")
	cmd.Flags().StringVar(&metric, "metric", "jsd", "Embedding metric for famd: jsd|ks|wasserstein|cucconi")
	cmd.Flags().StringVar(&scale, "scale", "standard", "Numeric scaling for famd: standard|minmax|maxabs|robust|none")
	cmd.Flags().StringVar(&weights, "weights", "", "Aggregate weights as attr=w pairs, comma separated")
	cmd.Flags().IntVar(&binCount, "bins", 0, "Bin count for numeric columns (0 uses the default)")
	cmd.Flags().IntVar(&components, "components", 0, "FAMD embedding components (0 uses the default)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for permutation-based metrics")
	cmd.Flags().StringVar(&out, "out", "", "Export basename; writes one file per format")
	cmd.Flags().StringSliceVar(&formats, "format", []string{"tsv"}, "Export formats: tsv|md|html|xlsx")
	cmd.Flags().BoolVar(&asRecords, "records", false, "Force row-level record parsing for xlsx inputs")

	return cmd
}

func newSweepCmd() *cobra.Command {
	var attributes string
	var mode string
	var method string
	var alignment string
	var sweep string
	var asRecords bool

	cmd := &cobra.Command{
		Use:   "sweep [files...]",
		Short: "Compare many datasets pairwise or each against the pooled rest",
		Long: `Run one comparison per dataset pair, or pool all other datasets into a
reference and compare each dataset against it.

Example: gojsd-cli sweep wave1.xlsx wave2.xlsx wave3.xlsx --sweep rest`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context(), args, sweepConfig{
				attributes: splitList(attributes),
				mode:       compare.Mode(mode),
				method:     compare.Method(method),
				alignment:  compare.DateAlignment(alignment),
				sweep:      sweep,
				asRecords:  asRecords,
			})
		},
	}

	cmd.Flags().StringVar(&attributes, "attributes", "", "Comma-separated attribute names (empty compares all shared)")
	cmd.Flags().StringVar(&mode, "mode", "single", "Comparison mode: single|multi")
	cmd.Flags().StringVar(&method, "method", "aggregate", "Multi-mode method: aggregate|famd")
	cmd.Flags().StringVar(&alignment, "alignment", "exact", "Date alignment: exact|nearest-prior")
	cmd.Flags().StringVar(&sweep, "sweep", "pairs", "Sweep shape: pairs|rest")
	cmd.Flags().BoolVar(&asRecords, "records", false, "Force row-level record parsing for xlsx inputs")

	return cmd
}

func newInspectCmd() *cobra.Command {
	var asRecords bool

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Profile a dataset's attributes and numeric columns",
		Long: `Load one dataset and print its attribute tables, the category
composition at the latest date, and distribution profiles of any numeric
record columns.

Example: gojsd-cli inspect panel.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), args[0], asRecords)
		},
	}

	cmd.Flags().BoolVar(&asRecords, "records", false, "Force row-level record parsing for xlsx inputs")

	return cmd
}

type compareConfig struct {
	attributes []string
	mode       compare.Mode
	method     compare.Method
	options    compare.Options
	out        string
	formats    []string
	asRecords  bool
}

type sweepConfig struct {
	attributes []string
	mode       compare.Mode
	method     compare.Method
	alignment  compare.DateAlignment
	sweep      string
	asRecords  bool
}

func runCompare(ctx context.Context, pathA, pathB string, cfg compareConfig) error {
	loader := excel.NewLoader(nil)
	dsA, err := loadFile(ctx, loader, pathA, cfg.asRecords)
	if err != nil {
		return err
	}
	dsB, err := loadFile(ctx, loader, pathB, cfg.asRecords)
	if err != nil {
		return err
	}

	svc := app.NewComparisonService(nil, nil)
	result, err := svc.Compare(ctx, app.CompareRequest{
		DatasetA:   dsA,
		DatasetB:   dsB,
		Attributes: cfg.attributes,
		Mode:       cfg.mode,
		Method:     cfg.method,
		Options:    cfg.options,
	})
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	printResult(result)

	if cfg.out != "" {
		if err := exportResult(result, cfg.out, cfg.formats); err != nil {
			return err
		}
	}
	return nil
}

func runSweep(ctx context.Context, paths []string, cfg sweepConfig) error {
	loader := excel.NewLoader(nil)
	var datasets []*dataset.Dataset
	for _, path := range paths {
		ds, err := loadFile(ctx, loader, path, cfg.asRecords)
		if err != nil {
			return err
		}
		datasets = append(datasets, ds)
	}

	comparisons := app.NewComparisonService(nil, nil)
	batches := app.NewBatchService(comparisons, nil, 0)

	req := app.BatchRequest{
		Datasets:   datasets,
		Attributes: cfg.attributes,
		Mode:       cfg.mode,
		Method:     cfg.method,
		Options:    compare.Options{Alignment: cfg.alignment},
	}

	var pairs []app.PairResult
	var err error
	switch cfg.sweep {
	case "rest":
		pairs, err = batches.CompareAgainstRest(ctx, req)
	case "pairs":
		pairs, err = batches.CompareAllPairs(ctx, req)
	default:
		return fmt.Errorf("invalid sweep: %s (expected pairs|rest)", cfg.sweep)
	}
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Printf("\n=== SWEEP RESULTS (%s) ===\n", cfg.sweep)
	for i, pair := range pairs {
		fmt.Printf("%d. %s vs %s\n", i+1, pair.DatasetA, pair.DatasetB)
		if pair.Err != nil {
			fmt.Printf("   ❌ %v\n", pair.Err)
			continue
		}
		if pair.Result.NoComparableData() {
			fmt.Printf("   no comparable attributes\n")
			continue
		}
		for _, entry := range pair.Result.Entries {
			series := entry.Series
			if series == nil && entry.Multi != nil {
				series = &entry.Multi.Series
			}
			if series == nil || series.Len() == 0 {
				continue
			}
			mean, final := seriesSummary(series)
			fmt.Printf("   %-24s %s  mean=%.4f  final=%.4f  points=%d\n",
				entry.Attribute, series.Metric, mean, final, series.Len())
		}
	}
	fmt.Printf("\n✅ SWEEP COMPLETED: %d comparison(s)\n", len(pairs))
	return nil
}

func runInspect(ctx context.Context, path string, asRecords bool) error {
	loader := excel.NewLoader(nil)
	ds, err := loadFile(ctx, loader, path, asRecords)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== DATASET %s ===\n", ds.GetDisplayName())
	fmt.Printf("Attributes: %d\n", len(ds.Attributes))
	if ds.HasRecords() {
		fmt.Printf("Records: %d rows, %d columns\n", ds.Records.Len(), len(ds.Records.Columns))
	}

	for _, table := range ds.Attributes {
		fmt.Printf("\n%s", table.Name)
		if table.IsStatic() {
			fmt.Printf(" (static)")
		} else if len(table.Dates) > 0 {
			fmt.Printf(" (%s to %s, %d dates)",
				core.FormatDate(table.FirstDate()), core.FormatDate(table.LastDate()), len(table.Dates))
		}
		fmt.Println()

		if len(table.Dates) == 0 {
			continue
		}
		latest := table.RowAt(len(table.Dates) - 1)
		var total float64
		for _, v := range latest {
			total += v
		}
		for i, cat := range table.Categories {
			share := 0.0
			if total > 0 {
				share = latest[i] / total * 100
			}
			fmt.Printf("   %-24s %10.0f  %5.1f%%\n", cat, latest[i], share)
		}
		uniformity := profiling.CheckUniformity(latest)
		if !uniformity.Balanced {
			fmt.Printf("   ⚠️  imbalanced composition (chi2=%.2f, p=%.4f)\n", uniformity.ChiSquare, uniformity.PValue)
		}
	}

	if ds.HasRecords() {
		numeric := make(map[string][]float64)
		for _, col := range ds.Records.Columns {
			if col.Kind != dataset.ColumnNumeric {
				continue
			}
			if values, ok := ds.Records.NumericColumn(col.Name); ok {
				numeric[col.Name] = values
			}
		}
		profiles := profiling.NewDistributionAnalyzer().AnalyzeColumns(numeric)
		if len(profiles) > 0 {
			names := make([]string, 0, len(profiles))
			for name := range profiles {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Printf("\n=== NUMERIC COLUMNS ===\n")
			for _, name := range names {
				p := profiles[name]
				fmt.Printf("%-20s n=%d mean=%.2f std=%.2f median=%.2f skew=%.2f outliers=%d normal=%t\n",
					name, p.SampleSize, p.Summary.Mean, p.Summary.StdDev, p.Summary.Median,
					p.Shape.Skewness, p.Outliers, p.Shape.IsNormal)
			}
		}
	}

	return nil
}

// loadFile picks the loader by extension: xlsx parses as an attribute
// workbook unless record parsing is forced, everything else as records
func loadFile(ctx context.Context, loader *excel.Loader, path string, asRecords bool) (*dataset.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" && !asRecords {
		return loader.LoadWorkbook(ctx, path, ports.WorkbookOptions{})
	}
	return loader.LoadRecords(ctx, path, ports.RecordOptions{})
}

func buildOptions(alignment, metric, scale, weights string, binCount, components int, seed int64) (compare.Options, error) {
	opts := compare.Options{
		Alignment: compare.DateAlignment(alignment),
		BinCount:  binCount,
	}
	opts.FAMD.Metric = metric
	opts.FAMD.Scale = scale
	opts.FAMD.Components = components
	opts.FAMD.Seed = seed

	if weights != "" {
		parsed, err := parseWeights(weights)
		if err != nil {
			return compare.Options{}, err
		}
		opts.Weights = parsed
	}
	return opts, nil
}

// parseWeights reads "attr=w" pairs from a comma-separated list
func parseWeights(raw string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.LastIndex(pair, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("invalid weight %q (expected attr=value)", pair)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(pair[idx+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight value in %q: %w", pair, err)
		}
		out[strings.TrimSpace(pair[:idx])] = w
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printResult(result *compare.ComparisonResult) {
	fmt.Printf("\n=== COMPARISON RESULTS ===\n")
	fmt.Printf("Run ID: %s\n", result.RunID)
	fmt.Printf("Datasets: %s vs %s\n", result.DatasetAName, result.DatasetBName)
	fmt.Printf("Mode: %s\n", result.Mode)
	fmt.Printf("Runtime: %d ms\n", result.RuntimeMs)

	if result.NoComparableData() {
		fmt.Printf("\nThe datasets share no comparable attributes.\n")
		return
	}

	for _, warning := range result.Warnings {
		fmt.Printf("⚠️  %s: %s\n", warning.Attribute, warning.Message)
	}
	for _, alert := range result.Errors {
		fmt.Printf("❌ %s: %s\n", alert.Attribute, alert.Message)
	}

	for _, entry := range result.Entries {
		series := entry.Series
		if series == nil && entry.Multi != nil {
			series = &entry.Multi.Series
			fmt.Printf("\n%s (%s over %s)\n", entry.Attribute, entry.Multi.Method,
				strings.Join(entry.Multi.Attributes, ", "))
		} else if series != nil {
			fmt.Printf("\n%s (%s)\n", entry.Attribute, series.Metric)
		}
		if series == nil {
			continue
		}
		for _, p := range series.Points {
			fmt.Printf("   %s  %.4f\n", core.FormatDate(p.Date), p.Value)
		}
		mean, final := seriesSummary(series)
		fmt.Printf("   mean=%.4f final=%.4f points=%d\n", mean, final, series.Len())
	}

	fmt.Printf("\n✅ COMPARISON COMPLETED\n")
}

func seriesSummary(s *compare.DistanceSeries) (mean, final float64) {
	values := s.Values()
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), values[len(values)-1]
}

func exportResult(result *compare.ComparisonResult, out string, formats []string) error {
	for _, format := range formats {
		var path string
		var err error
		switch strings.ToLower(strings.TrimSpace(format)) {
		case "tsv":
			path = out + ".tsv"
			err = export.WriteResultTSV(path, result)
		case "md":
			path = out + ".md"
			err = export.WriteMarkdownReport(path, result)
		case "html":
			path = out + ".html"
			err = export.WriteHTMLReport(path, result)
		case "xlsx":
			path = out + ".xlsx"
			err = export.WriteResultXLSX(path, result)
		default:
			return fmt.Errorf("unknown export format %q", format)
		}
		if err != nil {
			return fmt.Errorf("export to %s failed: %w", path, err)
		}
		fmt.Printf("💾 Wrote %s\n", path)
	}
	return nil
}
