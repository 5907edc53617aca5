// Package report renders the pipeline's HTML outputs: per-model
// regression summaries and per-run ingestion reports. Templates are
// embedded constants, filled from flattened view structs.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"time"
)

// CoefficientRow is one pre-formatted coefficient line.
type CoefficientRow struct {
	Name     string
	Estimate string
	StdErr   string
	TStat    string
}

// RegressionView is the template model for one estimated model.
type RegressionView struct {
	Model        string
	Description  string
	Dependent    string
	N            int
	Dropped      int
	R2           string
	AdjR2        string
	ResidualStd  string
	Coefficients []CoefficientRow
	GeneratedAt  string
}

// RenderRegressionHTML renders the regression summary page.
func RenderRegressionHTML(v RegressionView) (string, error) {
	if v.GeneratedAt == "" {
		v.GeneratedAt = time.Now().Format("2006-01-02 15:04")
	}
	return render("regression", RegressionTemplate, v)
}

// UnloadableRow is one skipped package with its reason.
type UnloadableRow struct {
	Package string
	Reason  string
}

// RunView is the template model for one ingestion run.
type RunView struct {
	RunID           string
	Loaded          int
	Duplicates      int
	Unloadable      []UnloadableRow
	UnloadableCount int
	DatasetRows     int
	Duration        string
	GeneratedAt     string
}

// NewRunView flattens run results into the template model. The
// unloadable map comes back sorted by package name.
func NewRunView(runID string, loaded, duplicates, datasetRows int, unloadable map[string]string, duration time.Duration) RunView {
	v := RunView{
		RunID:           runID,
		Loaded:          loaded,
		Duplicates:      duplicates,
		UnloadableCount: len(unloadable),
		DatasetRows:     datasetRows,
		Duration:        duration.Round(time.Millisecond).String(),
		GeneratedAt:     time.Now().Format("2006-01-02 15:04"),
	}
	names := make([]string, 0, len(unloadable))
	for name := range unloadable {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v.Unloadable = append(v.Unloadable, UnloadableRow{Package: name, Reason: unloadable[name]})
	}
	return v
}

// RenderRunHTML renders the ingestion run report page.
func RenderRunHTML(v RunView) (string, error) {
	return render("run", RunReportTemplate, v)
}

func render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s report: %w", name, err)
	}
	return buf.String(), nil
}
