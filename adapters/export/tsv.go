package export

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gojsd/domain/compare"
	"gojsd/domain/core"
)

// distanceDecimals fixes the precision of exported distances
const distanceDecimals = 6

// SeriesTSV renders one distance series as tab-delimited text with a header
// row, the shape downstream spreadsheets and plotting tools paste directly.
func SeriesTSV(s *compare.DistanceSeries) string {
	var b strings.Builder
	b.WriteString("date\tdistance\n")
	for _, p := range s.Points {
		b.WriteString(core.FormatDate(p.Date))
		b.WriteByte('\t')
		b.WriteString(formatDistance(p.Value))
		b.WriteByte('\n')
	}
	return b.String()
}

// ResultTSV renders every entry of a comparison result as one flat
// tab-delimited block keyed by attribute
func ResultTSV(r *compare.ComparisonResult) string {
	var b strings.Builder
	b.WriteString("attribute\tmetric\tdate\tdistance\n")
	for _, entry := range r.Entries {
		series := entrySeries(entry)
		if series == nil {
			continue
		}
		for _, p := range series.Points {
			b.WriteString(entry.Attribute)
			b.WriteByte('\t')
			b.WriteString(series.Metric)
			b.WriteByte('\t')
			b.WriteString(core.FormatDate(p.Date))
			b.WriteByte('\t')
			b.WriteString(formatDistance(p.Value))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// WriteResultTSV writes the flat block to a file
func WriteResultTSV(path string, r *compare.ComparisonResult) error {
	if err := os.WriteFile(path, []byte(ResultTSV(r)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// entrySeries resolves the series behind an entry regardless of mode
func entrySeries(e compare.Entry) *compare.DistanceSeries {
	if e.Series != nil {
		return e.Series
	}
	if e.Multi != nil {
		return &e.Multi.Series
	}
	return nil
}

func formatDistance(v float64) string {
	return strconv.FormatFloat(v, 'f', distanceDecimals, 64)
}
