// Package analysis computes the descriptive statistics of the master
// dataset: per-group summary tables, filtered row exports, and one bar
// chart per grouping, written under the sample's output directory.
package analysis

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/jmuehlb/esefscan/internal/dataset"
	"github.com/jmuehlb/esefscan/pkg/utils"
)

// IsBig4 reports whether the auditor name belongs to one of the four
// large audit networks. Terminal auditor strings vary ("PwC",
// "PricewaterhouseCoopers GmbH", "Ernst & Young LLP"), so matching is by
// name fragment.
func IsBig4(auditor string) bool {
	name := strings.ToLower(strings.TrimSpace(auditor))
	switch {
	case strings.Contains(name, "pricewaterhouse"), strings.Contains(name, "pwc"):
		return true
	case strings.Contains(name, "ernst"), name == "ey", strings.HasPrefix(name, "ey "):
		return true
	case strings.Contains(name, "kpmg"):
		return true
	case strings.Contains(name, "deloitte"):
		return true
	}
	return false
}

// Grouping partitions dataset rows by one company characteristic. Key
// returns the group a row belongs to, or "" when the row lacks the
// characteristic and must be dropped from this grouping.
type Grouping struct {
	Name string
	Key  func(dataset.Row) string
}

// Groupings returns the full grouping set over the given rows. The
// quintile groupings derive their breakpoints from the rows themselves,
// so the set is built per dataset.
func Groupings(rows []dataset.Row) []Grouping {
	return []Grouping{
		{Name: "country", Key: attributeKey(func(r dataset.Row) string { return r.Country })},
		{Name: "sector", Key: attributeKey(func(r dataset.Row) string { return r.Sector })},
		{Name: "auditor", Key: attributeKey(func(r dataset.Row) string { return r.Auditor })},
		{Name: "auditor_big4", Key: func(r dataset.Row) string {
			if strings.EqualFold(r.Auditor, "n/a") || strings.TrimSpace(r.Auditor) == "" {
				return ""
			}
			if IsBig4(r.Auditor) {
				return "big4"
			}
			return "other"
		}},
		{Name: "market_cap_quintile", Key: quintileKey(rows, func(r dataset.Row) (float64, bool) {
			return utils.ParseTerminalFloat(r.MarketCap)
		})},
		{Name: "free_float_quintile", Key: quintileKey(rows, func(r dataset.Row) (float64, bool) {
			return utils.ParseTerminalFloat(r.FreeFloat)
		})},
	}
}

func attributeKey(attr func(dataset.Row) string) func(dataset.Row) string {
	return func(r dataset.Row) string {
		v := strings.TrimSpace(attr(r))
		if v == "" || strings.EqualFold(v, "n/a") {
			return ""
		}
		return v
	}
}

// quintileKey bins a numeric company characteristic into five equally
// populated groups. Breakpoints are the empirical 20/40/60/80 percent
// quantiles over the rows that carry the characteristic.
func quintileKey(rows []dataset.Row, value func(dataset.Row) (float64, bool)) func(dataset.Row) string {
	var xs []float64
	for _, r := range rows {
		if v, ok := value(r); ok {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return func(dataset.Row) string { return "" }
	}
	sort.Float64s(xs)

	cuts := make([]float64, 4)
	for i := range cuts {
		cuts[i] = stat.Quantile(float64(i+1)/5, stat.Empirical, xs, nil)
	}

	return func(r dataset.Row) string {
		v, ok := value(r)
		if !ok {
			return ""
		}
		bin := 1
		for _, c := range cuts {
			if v > c {
				bin++
			}
		}
		return fmt.Sprintf("quintile_%d", bin)
	}
}

// SummaryStats is the eight-number summary computed per group and metric.
type SummaryStats struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Summarize computes the summary over one metric column. The standard
// deviation is the sample deviation; a single observation reports 0.
func Summarize(values []float64) SummaryStats {
	if len(values) == 0 {
		return SummaryStats{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s := SummaryStats{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	return s
}

// metric is one summarized dataset column.
type metric struct {
	Name  string
	Value func(dataset.Row) float64
}

func metrics() []metric {
	return []metric{
		{"ALL_TAGS", func(r dataset.Row) float64 { return float64(r.AllTags) }},
		{"ESEF_TAGS", func(r dataset.Row) float64 { return float64(r.ESEFTags) }},
		{"PCT_ESEF_TAGS", func(r dataset.Row) float64 { return r.PctESEFTags }},
		{"EXT_TAGS", func(r dataset.Row) float64 { return float64(r.ExtTags) }},
		{"PCT_EXT_TAGS", func(r dataset.Row) float64 { return r.PctExtTags }},
	}
}

// GroupResult is one group's rows and per-metric summaries.
type GroupResult struct {
	Group string
	Rows  []dataset.Row
	Stats map[string]SummaryStats
}

// Group partitions the rows under one grouping. Groups come back sorted
// by name; rows without the grouping characteristic are dropped.
func Group(rows []dataset.Row, g Grouping) []GroupResult {
	byGroup := make(map[string][]dataset.Row)
	for _, r := range rows {
		key := g.Key(r)
		if key == "" {
			continue
		}
		byGroup[key] = append(byGroup[key], r)
	}

	names := make([]string, 0, len(byGroup))
	for name := range byGroup {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]GroupResult, 0, len(names))
	for _, name := range names {
		groupRows := byGroup[name]
		stats := make(map[string]SummaryStats, len(metrics()))
		for _, m := range metrics() {
			values := make([]float64, len(groupRows))
			for i, r := range groupRows {
				values[i] = m.Value(r)
			}
			stats[m.Name] = Summarize(values)
		}
		results = append(results, GroupResult{Group: name, Rows: groupRows, Stats: stats})
	}
	return results
}

// Describe runs every grouping over the dataset and writes, per grouping,
// a summary table, one row export per group, and a bar chart of the mean
// extension-tag percentage. Everything lands under outDir/<grouping>/.
func Describe(ds *dataset.Dataset, outDir string, out io.Writer) error {
	rows := ds.Rows()
	if len(rows) == 0 {
		return fmt.Errorf("descriptive analysis: %w", dataset.ErrEmpty)
	}

	for _, g := range Groupings(rows) {
		results := Group(rows, g)
		groupDir := filepath.Join(outDir, g.Name)
		if err := os.MkdirAll(groupDir, 0o755); err != nil {
			return fmt.Errorf("create output directory %s: %w", groupDir, err)
		}

		if err := writeSummary(filepath.Join(groupDir, "summary.csv"), results); err != nil {
			return err
		}
		for _, res := range results {
			name := fmt.Sprintf("rows_%s.csv", sanitizeFileName(res.Group))
			if err := writeRows(filepath.Join(groupDir, name), res.Rows); err != nil {
				return err
			}
		}

		chart := groupBarChart(results, g.Name)
		chartPath := filepath.Join(groupDir, "pct_ext_tags.svg")
		if err := utils.WriteFileAtomic(chartPath, []byte(chart), 0o644); err != nil {
			return fmt.Errorf("write chart %s: %w", chartPath, err)
		}

		fmt.Fprintf(out, "Grouping %q: %d groups over %d rows, written to %s\n",
			g.Name, len(results), len(rows), groupDir)
	}
	return nil
}

func groupBarChart(results []GroupResult, grouping string) string {
	items := make([]BarItem, 0, len(results))
	for _, res := range results {
		items = append(items, BarItem{
			Label: fmt.Sprintf("%s (n=%d)", res.Group, res.Stats["PCT_EXT_TAGS"].Count),
			Value: res.Stats["PCT_EXT_TAGS"].Mean,
		})
	}
	cfg := DefaultChartConfig()
	cfg.Title = fmt.Sprintf("Mean extension-tag share by %s", grouping)
	cfg.Height = 120 + 34*len(items)
	return HorizontalBarChart(items, cfg)
}

var summaryHeader = []string{"GROUP", "METRIC", "COUNT", "MEAN", "STD", "MIN", "Q1", "MEDIAN", "Q3", "MAX"}

func writeSummary(path string, results []GroupResult) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(summaryHeader); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	for _, res := range results {
		for _, m := range metrics() {
			s := res.Stats[m.Name]
			rec := []string{
				res.Group, m.Name, strconv.Itoa(s.Count),
				formatStat(s.Mean), formatStat(s.Std), formatStat(s.Min),
				formatStat(s.Q1), formatStat(s.Median), formatStat(s.Q3), formatStat(s.Max),
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("write summary row: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := utils.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write summary %s: %w", path, err)
	}
	return nil
}

func writeRows(path string, rows []dataset.Row) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(dataset.Columns); err != nil {
		return fmt.Errorf("write rows header: %w", err)
	}
	for _, r := range rows {
		if err := w.Write(r.Record()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	if err := utils.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write rows %s: %w", path, err)
	}
	return nil
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// sanitizeFileName makes a group name safe as a file-name component.
func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '/', r == '\\', r == '-', r == '_', r == '.':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "group"
	}
	return b.String()
}
