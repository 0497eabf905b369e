package app

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"gojsd/domain/compare"
	"gojsd/domain/dataset"
	"gojsd/internal"
)

// DefaultBatchParallelism bounds how many pair comparisons run at once
const DefaultBatchParallelism = 4

// BatchService runs comparison sweeps across collections of datasets
type BatchService struct {
	comparisons *ComparisonService
	logger      *internal.Logger
	maxParallel int64
}

// NewBatchService creates a batch service. maxParallel <= 0 selects the
// default parallelism.
func NewBatchService(comparisons *ComparisonService, logger *internal.Logger, maxParallel int) *BatchService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if maxParallel <= 0 {
		maxParallel = DefaultBatchParallelism
	}
	return &BatchService{
		comparisons: comparisons,
		logger:      logger.WithComponent("batch"),
		maxParallel: int64(maxParallel),
	}
}

// BatchRequest templates the per-pair comparison calls of a sweep
type BatchRequest struct {
	Datasets   []*dataset.Dataset
	Attributes []string
	Mode       compare.Mode
	Method     compare.Method
	Options    compare.Options
}

// PairResult couples one pair's outcome with its identity. Err is set when
// that pair's comparison failed as a whole; other pairs still complete.
type PairResult struct {
	DatasetA string
	DatasetB string
	Result   *compare.ComparisonResult
	Err      error
}

// CompareAllPairs compares every unordered dataset pair concurrently under a
// bounded semaphore. Results come back in pair order regardless of
// completion order.
func (s *BatchService) CompareAllPairs(ctx context.Context, req BatchRequest) ([]PairResult, error) {
	n := len(req.Datasets)
	if n < 2 {
		return nil, fmt.Errorf("all-pairs sweep requires at least 2 datasets, got %d", n)
	}

	type job struct {
		index int
		a, b  *dataset.Dataset
	}
	var jobs []job
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			jobs = append(jobs, job{index: len(jobs), a: req.Datasets[i], b: req.Datasets[j]})
		}
	}

	results := make([]PairResult, len(jobs))
	sem := semaphore.NewWeighted(s.maxParallel)
	var wg sync.WaitGroup
	for _, jb := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(jb job) {
			defer wg.Done()
			defer sem.Release(1)
			results[jb.index] = s.comparePair(ctx, jb.a, jb.b, req)
		}(jb)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.logger.Info("all-pairs sweep finished: %d dataset(s), %d pair(s)", n, len(jobs))
	return results, nil
}

// CompareAgainstRest compares each dataset against the pooled union of all
// the others, the representativeness baseline for a cohort of sources.
func (s *BatchService) CompareAgainstRest(ctx context.Context, req BatchRequest) ([]PairResult, error) {
	n := len(req.Datasets)
	if n < 2 {
		return nil, fmt.Errorf("one-vs-rest sweep requires at least 2 datasets, got %d", n)
	}

	results := make([]PairResult, n)
	sem := semaphore.NewWeighted(s.maxParallel)
	var wg sync.WaitGroup
	for i, target := range req.Datasets {
		others := make([]*dataset.Dataset, 0, n-1)
		for j, ds := range req.Datasets {
			if j != i {
				others = append(others, ds)
			}
		}
		pooled, err := dataset.Merge("All Other Datasets", others)
		if err != nil {
			results[i] = PairResult{
				DatasetA: target.GetDisplayName(),
				DatasetB: "All Other Datasets",
				Err:      err,
			}
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int, target, pooled *dataset.Dataset) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = s.comparePair(ctx, target, pooled, req)
		}(i, target, pooled)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.logger.Info("one-vs-rest sweep finished: %d dataset(s)", n)
	return results, nil
}

func (s *BatchService) comparePair(ctx context.Context, a, b *dataset.Dataset, req BatchRequest) PairResult {
	pr := PairResult{DatasetA: a.GetDisplayName(), DatasetB: b.GetDisplayName()}
	result, err := s.comparisons.Compare(ctx, CompareRequest{
		DatasetA:   a,
		DatasetB:   b,
		Attributes: req.Attributes,
		Mode:       req.Mode,
		Method:     req.Method,
		Options:    req.Options,
	})
	if err != nil {
		s.logger.Warn("pair %q vs %q failed: %v", pr.DatasetA, pr.DatasetB, err)
		pr.Err = err
		return pr
	}
	pr.Result = result
	return pr
}
