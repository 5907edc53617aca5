package regress

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/jmuehlb/esefscan/internal/dataset"
	"github.com/jmuehlb/esefscan/internal/report"
	"github.com/jmuehlb/esefscan/pkg/utils"
)

// Run estimates every enumerated model over the dataset and writes, per
// model, the design matrix, the coefficient table, the correlation
// matrix, and a text plus HTML summary under outDir/<model>/. Models the
// sample cannot identify are announced and skipped.
func Run(ds *dataset.Dataset, outDir string, out io.Writer) error {
	rows := ds.Rows()
	if len(rows) == 0 {
		return fmt.Errorf("regression analysis: %w", dataset.ErrEmpty)
	}

	for _, spec := range Models() {
		sample := BuildSample(rows, variablesFor(spec, rows))
		result, err := estimate(sample)
		if err != nil {
			fmt.Fprintf(out, "Model %q skipped: %v\n", spec.Name, err)
			continue
		}

		modelDir := filepath.Join(outDir, spec.Name)
		if err := os.MkdirAll(modelDir, 0o755); err != nil {
			return fmt.Errorf("create model directory %s: %w", modelDir, err)
		}
		if err := writeModel(modelDir, spec, sample, result); err != nil {
			return err
		}
		fmt.Fprintf(out, "Model %q: n=%d (dropped %d), R2=%.4f, written to %s\n",
			spec.Name, result.N, sample.Dropped, result.R2, modelDir)
	}
	return nil
}

func estimate(s Sample) (*OLSResult, error) {
	n := len(s.Values)
	k := len(s.Names) - 1
	if n == 0 {
		return nil, fmt.Errorf("no observation carries all required variables")
	}
	if n <= k+1 {
		return nil, fmt.Errorf("%d observations cannot identify %d coefficients", n, k+1)
	}

	y := make([]float64, n)
	X := mat.NewDense(n, k, nil)
	for i, values := range s.Values {
		y[i] = values[0]
		for j := 1; j < len(values); j++ {
			X.Set(i, j-1, values[j])
		}
	}
	return FitOLS(s.Names[1:], X, y)
}

func writeModel(dir string, spec ModelSpec, s Sample, r *OLSResult) error {
	if err := writeDesignMatrix(filepath.Join(dir, "design_matrix.csv"), s); err != nil {
		return err
	}
	if err := writeCoefficients(filepath.Join(dir, "coefficients.csv"), r); err != nil {
		return err
	}
	if err := writeCorrelation(filepath.Join(dir, "correlation.csv"), s); err != nil {
		return err
	}

	text := textSummary(spec, s, r)
	if err := utils.WriteFileAtomic(filepath.Join(dir, "summary.txt"), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write text summary: %w", err)
	}

	html, err := report.RenderRegressionHTML(regressionView(spec, s, r))
	if err != nil {
		return fmt.Errorf("render HTML summary: %w", err)
	}
	if err := utils.WriteFileAtomic(filepath.Join(dir, "summary.html"), []byte(html), 0o644); err != nil {
		return fmt.Errorf("write HTML summary: %w", err)
	}
	return nil
}

func writeDesignMatrix(path string, s Sample) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := append([]string{"ESEF_PACKAGE_NAME"}, s.Names...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write design matrix header: %w", err)
	}
	for i, values := range s.Values {
		rec := make([]string, 0, len(values)+1)
		rec = append(rec, s.Packages[i])
		for _, v := range values {
			rec = append(rec, formatValue(v))
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write design matrix row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode design matrix: %w", err)
	}
	return utils.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

func writeCoefficients(path string, r *OLSResult) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"VARIABLE", "ESTIMATE", "STD_ERR", "T_STAT"}); err != nil {
		return fmt.Errorf("write coefficients header: %w", err)
	}
	for _, c := range r.Coefficients {
		rec := []string{c.Name, formatValue(c.Estimate), formatValue(c.StdErr), formatValue(c.TStat)}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write coefficient row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode coefficients: %w", err)
	}
	return utils.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

func writeCorrelation(path string, s Sample) error {
	corr := CorrelationMatrix(s)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(append([]string{""}, s.Names...)); err != nil {
		return fmt.Errorf("write correlation header: %w", err)
	}
	for i, name := range s.Names {
		rec := make([]string, 0, len(s.Names)+1)
		rec = append(rec, name)
		for j := range s.Names {
			rec = append(rec, formatValue(corr.At(i, j)))
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write correlation row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode correlation: %w", err)
	}
	return utils.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

func textSummary(spec ModelSpec, s Sample, r *OLSResult) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %s\n", spec.Name, spec.Description)
	fmt.Fprintf(&buf, "Dependent: %s\n", Dependent)
	fmt.Fprintf(&buf, "Observations: %d (dropped listwise: %d)\n", r.N, s.Dropped)
	fmt.Fprintf(&buf, "R2: %.4f  Adj. R2: %.4f  Residual std: %.4f\n\n", r.R2, r.AdjR2, r.ResidualStd)
	fmt.Fprintf(&buf, "%-24s %12s %12s %10s\n", "VARIABLE", "ESTIMATE", "STD_ERR", "T_STAT")
	for _, c := range r.Coefficients {
		fmt.Fprintf(&buf, "%-24s %12.4f %12.4f %10.2f\n", c.Name, c.Estimate, c.StdErr, c.TStat)
	}
	return buf.String()
}

func regressionView(spec ModelSpec, s Sample, r *OLSResult) report.RegressionView {
	view := report.RegressionView{
		Model:       spec.Name,
		Description: spec.Description,
		Dependent:   Dependent,
		N:           r.N,
		Dropped:     s.Dropped,
		R2:          fmt.Sprintf("%.4f", r.R2),
		AdjR2:       fmt.Sprintf("%.4f", r.AdjR2),
		ResidualStd: fmt.Sprintf("%.4f", r.ResidualStd),
	}
	for _, c := range r.Coefficients {
		view.Coefficients = append(view.Coefficients, report.CoefficientRow{
			Name:     c.Name,
			Estimate: fmt.Sprintf("%.4f", c.Estimate),
			StdErr:   fmt.Sprintf("%.4f", c.StdErr),
			TStat:    fmt.Sprintf("%.2f", c.TStat),
		})
	}
	return view
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
