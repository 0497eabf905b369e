package app

import (
	"context"
	"fmt"
	"time"

	"gojsd/adapters/stats/metrics"
	"gojsd/adapters/stats/multi"
	"gojsd/domain/compare"
	"gojsd/domain/core"
	"gojsd/domain/dataset"
	"gojsd/domain/matching"
	"gojsd/internal"
	"gojsd/ports"
)

// ComparisonService orchestrates distribution comparisons between two datasets
type ComparisonService struct {
	runRepo ports.RunRepository // optional; nil disables run persistence
	logger  *internal.Logger
}

// NewComparisonService creates a comparison service
func NewComparisonService(runRepo ports.RunRepository, logger *internal.Logger) *ComparisonService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ComparisonService{
		runRepo: runRepo,
		logger:  logger.WithComponent("comparison"),
	}
}

// CompareRequest defines the inputs of one comparison run
type CompareRequest struct {
	DatasetA *dataset.Dataset
	DatasetB *dataset.Dataset

	// Attributes selects canonical attribute names; empty selects every
	// attribute the two datasets share.
	Attributes []string

	Mode   compare.Mode   // "" = single
	Method compare.Method // multi mode only; "" = aggregate

	Options compare.Options
}

// Compare runs one comparison. Single mode produces one distance series per
// matched attribute with per-attribute failure isolation; multi mode produces
// one combined series. The run is persisted when a run repository is wired;
// a persistence failure is logged but never discards the computed result.
func (s *ComparisonService) Compare(ctx context.Context, req CompareRequest) (*compare.ComparisonResult, error) {
	startTime := time.Now()

	// Step 1: validate the request.
	if req.DatasetA == nil || req.DatasetB == nil {
		return nil, fmt.Errorf("comparison requires two datasets")
	}
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}
	opts := req.Options.WithDefaults()
	mode := req.Mode
	if mode == "" {
		mode = compare.ModeSingle
	}

	result := &compare.ComparisonResult{
		RunID:        core.RunID(core.NewID()),
		DatasetA:     req.DatasetA.ID,
		DatasetB:     req.DatasetB.ID,
		DatasetAName: req.DatasetA.GetDisplayName(),
		DatasetBName: req.DatasetB.GetDisplayName(),
		Mode:         mode,
		Options:      opts,
		StartedAt:    startTime,
	}

	// Step 2: dispatch per mode.
	var err error
	switch mode {
	case compare.ModeSingle:
		err = s.compareSingle(ctx, req, opts, result)
	case compare.ModeMulti:
		err = s.compareMulti(ctx, req, opts, result)
	default:
		err = fmt.Errorf("unknown comparison mode %q", mode)
	}
	if err != nil {
		return nil, err
	}
	result.RuntimeMs = time.Since(startTime).Milliseconds()

	// Step 3: persist the run when storage is wired.
	if s.runRepo != nil {
		if perr := s.runRepo.SaveRun(ctx, result); perr != nil {
			s.logger.Error("failed to persist run %s: %v", result.RunID, perr)
		}
	}

	s.logger.Info("compared %q vs %q: mode=%s entries=%d warnings=%d errors=%d runtime=%dms",
		result.DatasetAName, result.DatasetBName, mode,
		len(result.Entries), len(result.Warnings), len(result.Errors), result.RuntimeMs)
	return result, nil
}

// compareSingle produces one JSD series per matched attribute. A failing
// attribute is recorded under Errors and skipped so the remaining attributes
// still complete.
func (s *ComparisonService) compareSingle(ctx context.Context, req CompareRequest, opts compare.Options, result *compare.ComparisonResult) error {
	matchOpts := matching.Options{StripTokens: opts.StripTokens}
	attrs := req.Attributes
	if len(attrs) == 0 {
		attrs = matching.Match(req.DatasetA, req.DatasetB, matchOpts)
	}

	pairs, warnings := matching.Pairs(req.DatasetA, req.DatasetB, attrs, matchOpts)
	result.Warnings = append(result.Warnings, warnings...)

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return err
		}
		series, err := metrics.Series(pair.A, pair.B, opts.Alignment)
		if err != nil {
			s.logger.Warn("attribute %q failed: %v", pair.Attribute, err)
			result.Errors = append(result.Errors, compare.AttributeError{Attribute: pair.Attribute, Message: err.Error()})
			continue
		}
		result.Entries = append(result.Entries, compare.Entry{Attribute: pair.Attribute, Series: series})
	}
	return nil
}

// compareMulti produces one combined entry via the requested method
func (s *ComparisonService) compareMulti(ctx context.Context, req CompareRequest, opts compare.Options, result *compare.ComparisonResult) error {
	engine := metrics.NewMetricEngine(metrics.EngineConfig{
		HistogramBins: opts.FAMD.EmbeddingBins,
		Seed:          opts.FAMD.Seed,
	})
	calc := multi.NewCalculator(engine)

	method := req.Method
	if method == "" {
		method = compare.MethodAggregate
	}
	outcome, err := calc.Compute(ctx, req.DatasetA, req.DatasetB, req.Attributes, method, opts)
	if err != nil {
		return err
	}
	result.Warnings = append(result.Warnings, outcome.Warnings...)
	result.Errors = append(result.Errors, outcome.Errors...)
	result.Entries = append(result.Entries, compare.Entry{Attribute: string(method), Multi: outcome.Result})
	return nil
}
