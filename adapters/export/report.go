package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"

	"gojsd/domain/compare"
	"gojsd/domain/core"
)

// seriesStats summarizes one distance series for report tables
type seriesStats struct {
	Mean  float64
	Min   float64
	Max   float64
	Final float64
}

func summarize(s *compare.DistanceSeries) seriesStats {
	vals := s.Values()
	if len(vals) == 0 {
		return seriesStats{}
	}
	mean, _ := stats.Mean(vals)
	mn, _ := stats.Min(vals)
	mx, _ := stats.Max(vals)
	return seriesStats{Mean: mean, Min: mn, Max: mx, Final: vals[len(vals)-1]}
}

// MarkdownReport renders a comparison result as a Markdown document: run
// metadata, a per-entry summary table, and any warnings or isolated errors.
func MarkdownReport(r *compare.ComparisonResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Distribution Comparison: %s vs %s\n\n", r.DatasetAName, r.DatasetBName)
	fmt.Fprintf(&b, "- Run: `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- Mode: %s\n", r.Mode)
	fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- Runtime: %d ms\n\n", r.RuntimeMs)

	if r.NoComparableData() {
		b.WriteString("No comparable data: the datasets share no attributes.\n")
		return b.String()
	}

	b.WriteString("## Distance Summary\n\n")
	b.WriteString("| Attribute | Metric | Points | Mean | Min | Max | Final |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---:|\n")
	for _, entry := range r.Entries {
		series := entrySeries(entry)
		if series == nil {
			continue
		}
		st := summarize(series)
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s | %s | %s |\n",
			entry.Attribute, series.Metric, series.Len(),
			formatDistance(st.Mean), formatDistance(st.Min), formatDistance(st.Max), formatDistance(st.Final))
	}
	b.WriteByte('\n')

	for _, entry := range r.Entries {
		series := entrySeries(entry)
		if series == nil || series.Len() == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", entry.Attribute)
		if entry.Multi != nil {
			fmt.Fprintf(&b, "Method: %s over %s\n\n", entry.Multi.Method, strings.Join(entry.Multi.Attributes, ", "))
		}
		b.WriteString("| Date | Distance |\n|---|---:|\n")
		for _, p := range series.Points {
			fmt.Fprintf(&b, "| %s | %s |\n", core.FormatDate(p.Date), formatDistance(p.Value))
		}
		b.WriteByte('\n')
	}

	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- **%s**: %s\n", w.Attribute, w.Message)
		}
		b.WriteByte('\n')
	}
	if len(r.Errors) > 0 {
		b.WriteString("## Attribute Errors\n\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "- **%s**: %s\n", e.Attribute, e.Message)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// HTMLReport renders the Markdown report to a complete HTML page
func HTMLReport(r *compare.ComparisonResult) []byte {
	md := []byte(MarkdownReport(r))
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(md)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: fmt.Sprintf("%s vs %s", r.DatasetAName, r.DatasetBName),
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}

// WriteMarkdownReport writes the Markdown report to a file
func WriteMarkdownReport(path string, r *compare.ComparisonResult) error {
	if err := os.WriteFile(path, []byte(MarkdownReport(r)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteHTMLReport writes the rendered HTML report to a file
func WriteHTMLReport(path string, r *compare.ComparisonResult) error {
	if err := os.WriteFile(path, HTMLReport(r), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
