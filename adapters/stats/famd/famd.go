package famd

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"gojsd/domain/core"
	"gojsd/domain/dataset"
)

// ============================================================================
// FACTOR ANALYSIS OF MIXED DATA
// ============================================================================
// Projects rows holding both numeric and categorical columns into a shared
// low-dimensional continuous embedding. Numeric columns are rescaled;
// categorical columns become centered indicator columns weighted by
// 1/sqrt(level proportion), which balances their inertia against the numeric
// part. Both datasets are encoded on one pooled design matrix and decomposed
// by a single SVD, so their coordinate clouds are directly comparable.
// ============================================================================

// PairProjection holds both datasets' rows in the shared embedding
type PairProjection struct {
	A         [][]float64 // rows of dataset A × components
	B         [][]float64 // rows of dataset B × components
	Explained []float64   // share of total variance per component
}

// FirstCoordinateA returns dataset A's first embedding coordinate, the axis
// distributional distances are taken on
func (p *PairProjection) FirstCoordinateA() []float64 {
	return column(p.A, 0)
}

// FirstCoordinateB returns dataset B's first embedding coordinate
func (p *PairProjection) FirstCoordinateB() []float64 {
	return column(p.B, 0)
}

// Config tunes the projection
type Config struct {
	Components int         // embedding dimensionality (<= 0 means 2)
	Scale      ScaleMethod // numeric rescaling ("" means standard)
}

// ProjectPair fits one joint projection over the selected attributes of both
// record tables. Rows missing any selected value are dropped per table.
// Fails with core.ErrInsufficientData when fewer than 2 attributes are
// selected or either side retains fewer than 2 complete rows.
func ProjectPair(a, b *dataset.RecordTable, attrs []string, cfg Config) (*PairProjection, error) {
	return projectPair(a, b, attrs, cfg, nil, nil)
}

// ProjectPairThrough restricts both tables to rows observed at or before the
// cutoff date, then projects. Per-date embedding series refit the projection
// at every axis date so early dates are not contaminated by later arrivals.
func ProjectPairThrough(a, b *dataset.RecordTable, attrs []string, cfg Config, cutoff time.Time) (*PairProjection, error) {
	return projectPair(a, b, attrs, cfg, a.RowsThrough(cutoff), b.RowsThrough(cutoff))
}

func projectPair(a, b *dataset.RecordTable, attrs []string, cfg Config, rowsA, rowsB []int) (*PairProjection, error) {
	if len(attrs) < 2 {
		return nil, core.NewInsufficientDataError(fmt.Sprintf("%d attribute(s) selected, need at least 2", len(attrs)))
	}
	if a == nil || b == nil {
		return nil, core.NewInsufficientDataError("row-level records are required")
	}
	if cfg.Components <= 0 {
		cfg.Components = 2
	}
	if cfg.Scale == "" {
		cfg.Scale = ScaleStandard
	}

	colsA, err := extract(a, attrs, rowsA)
	if err != nil {
		return nil, err
	}
	colsB, err := extract(b, attrs, rowsB)
	if err != nil {
		return nil, err
	}
	if colsA.n < 2 || colsB.n < 2 {
		return nil, core.NewInsufficientDataError(
			fmt.Sprintf("complete rows after dropping gaps: %d and %d, need at least 2 each", colsA.n, colsB.n))
	}

	z, err := encodeJoint(colsA, colsB, cfg.Scale)
	if err != nil {
		return nil, err
	}

	n, d := z.Dims()
	k := cfg.Components
	if k > d {
		k = d
	}
	if k > n {
		k = n
	}

	var svd mat.SVD
	if !svd.Factorize(z, mat.SVDThin) {
		return nil, fmt.Errorf("svd factorization did not converge")
	}
	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)

	// Row principal coordinates: left singular vectors stretched by the
	// singular values.
	coords := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, k)
		for c := 0; c < k; c++ {
			row[c] = u.At(i, c) * values[c]
		}
		coords[i] = row
	}

	squared := make([]float64, len(values))
	for i, s := range values {
		squared[i] = s * s
	}
	total := floats.Sum(squared)
	explained := make([]float64, k)
	for c := 0; c < k; c++ {
		if total > 0 {
			explained[c] = squared[c] / total
		}
	}

	return &PairProjection{
		A:         coords[:colsA.n],
		B:         coords[colsA.n:],
		Explained: explained,
	}, nil
}

// ============================================================================
// DESIGN MATRIX ASSEMBLY
// ============================================================================

// columnSet is one table's selected columns with incomplete rows dropped
type columnSet struct {
	n           int
	order       []dataset.ColumnInfo
	numeric     map[string][]float64
	categorical map[string][]string
}

// extract pulls the selected attributes out of a record table, keeping only
// rows (optionally restricted to rowIdx) with a complete value set
func extract(rt *dataset.RecordTable, attrs []string, rowIdx []int) (*columnSet, error) {
	if rowIdx == nil {
		rowIdx = make([]int, rt.Len())
		for i := range rowIdx {
			rowIdx[i] = i
		}
	}

	order := make([]dataset.ColumnInfo, 0, len(attrs))
	for _, attr := range attrs {
		kind, ok := rt.Column(attr)
		if !ok {
			return nil, fmt.Errorf("%w: column %q", core.ErrAttributeNotFound, attr)
		}
		order = append(order, dataset.ColumnInfo{Name: attr, Kind: kind})
	}

	var keep []int
	for _, i := range rowIdx {
		complete := true
		for _, col := range order {
			switch col.Kind {
			case dataset.ColumnNumeric:
				if dataset.IsMissingNumeric(rt.Numeric[col.Name][i]) {
					complete = false
				}
			case dataset.ColumnCategorical:
				if dataset.IsMissingCategory(rt.Categorical[col.Name][i]) {
					complete = false
				}
			}
			if !complete {
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}

	cs := &columnSet{
		n:           len(keep),
		order:       order,
		numeric:     make(map[string][]float64),
		categorical: make(map[string][]string),
	}
	for _, col := range order {
		switch col.Kind {
		case dataset.ColumnNumeric:
			vals := make([]float64, len(keep))
			for j, i := range keep {
				vals[j] = rt.Numeric[col.Name][i]
			}
			cs.numeric[col.Name] = vals
		case dataset.ColumnCategorical:
			vals := make([]string, len(keep))
			for j, i := range keep {
				vals[j] = rt.Categorical[col.Name][i]
			}
			cs.categorical[col.Name] = vals
		}
	}
	return cs, nil
}

// encodeJoint builds the pooled design matrix: A's rows stacked over B's
func encodeJoint(a, b *columnSet, scale ScaleMethod) (*mat.Dense, error) {
	if len(a.order) != len(b.order) {
		return nil, fmt.Errorf("attribute sets differ between tables")
	}
	for i := range a.order {
		if a.order[i] != b.order[i] {
			return nil, fmt.Errorf("column %q has kind %q in one table and %q in the other",
				a.order[i].Name, a.order[i].Kind, b.order[i].Kind)
		}
	}
	n := a.n + b.n

	var blocks [][]float64
	for _, col := range a.order {
		switch col.Kind {
		case dataset.ColumnNumeric:
			pooled := make([]float64, 0, n)
			pooled = append(pooled, a.numeric[col.Name]...)
			pooled = append(pooled, b.numeric[col.Name]...)
			scaled, err := Scale(pooled, scale)
			if err != nil {
				return nil, fmt.Errorf("scaling column %q: %w", col.Name, err)
			}
			blocks = append(blocks, scaled)

		case dataset.ColumnCategorical:
			pooled := make([]string, 0, n)
			pooled = append(pooled, a.categorical[col.Name]...)
			pooled = append(pooled, b.categorical[col.Name]...)
			for _, level := range observedLevels(pooled) {
				indicator := make([]float64, n)
				count := 0.0
				for i, v := range pooled {
					if v == level {
						indicator[i] = 1
						count++
					}
				}
				p := count / float64(n)
				w := math.Sqrt(p)
				for i := range indicator {
					indicator[i] = (indicator[i] - p) / w
				}
				blocks = append(blocks, indicator)
			}
		}
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no usable columns after encoding")
	}

	z := mat.NewDense(n, len(blocks), nil)
	for j, blockCol := range blocks {
		z.SetCol(j, blockCol)
	}
	return z, nil
}

func observedLevels(values []string) []string {
	seen := make(map[string]bool, len(values))
	var levels []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			levels = append(levels, v)
		}
	}
	sort.Strings(levels)
	return levels
}

func column(rows [][]float64, c int) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		if c < len(row) {
			out[i] = row[c]
		}
	}
	return out
}
