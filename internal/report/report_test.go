package report

import (
	"strings"
	"testing"
	"time"
)

func TestRenderRegressionHTML(t *testing.T) {
	html, err := RenderRegressionHTML(RegressionView{
		Model:       "model_1_size",
		Description: "Firm size",
		Dependent:   "LN_PCT_EXT_TAGS",
		N:           42,
		Dropped:     3,
		R2:          "0.3100",
		AdjR2:       "0.2800",
		ResidualStd: "0.4100",
		Coefficients: []CoefficientRow{
			{Name: "CONST", Estimate: "2.1000", StdErr: "0.3000", TStat: "7.00"},
			{Name: "LN_MARKET_CAP", Estimate: "-0.1200", StdErr: "0.0400", TStat: "-3.00"},
		},
		GeneratedAt: "2022-05-01 12:00",
	})
	if err != nil {
		t.Fatalf("RenderRegressionHTML: %v", err)
	}
	for _, want := range []string{"model_1_size", "LN_PCT_EXT_TAGS", "LN_MARKET_CAP", "-0.1200", "0.3100", "2022-05-01 12:00"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered page missing %q", want)
		}
	}
	if !strings.HasPrefix(html, "<!DOCTYPE html>") {
		t.Fatalf("not an HTML document:\n%.100s", html)
	}
}

func TestRenderRegressionHTMLEscapes(t *testing.T) {
	html, err := RenderRegressionHTML(RegressionView{
		Model:       "<script>alert(1)</script>",
		GeneratedAt: "2022-05-01 12:00",
	})
	if err != nil {
		t.Fatalf("RenderRegressionHTML: %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Fatal("model name not escaped")
	}
}

func TestRenderRunHTML(t *testing.T) {
	view := NewRunView("0f0c1a", 2, 1, 12, map[string]string{
		"zeta2021": "no report document found",
		"alfa2021": "identifying fact missing",
	}, 1540*time.Millisecond)

	if len(view.Unloadable) != 2 || view.Unloadable[0].Package != "alfa2021" {
		t.Fatalf("unloadable rows not sorted: %+v", view.Unloadable)
	}
	if view.Duration != "1.54s" {
		t.Fatalf("Duration = %q", view.Duration)
	}

	html, err := RenderRunHTML(view)
	if err != nil {
		t.Fatalf("RenderRunHTML: %v", err)
	}
	for _, want := range []string{"0f0c1a", "zeta2021", "identifying fact missing", "1.54s"} {
		if !strings.Contains(html, want) {
			t.Fatalf("run report missing %q", want)
		}
	}
}

func TestRenderRunHTMLNoFailures(t *testing.T) {
	html, err := RenderRunHTML(NewRunView("abc", 3, 0, 3, nil, time.Second))
	if err != nil {
		t.Fatalf("RenderRunHTML: %v", err)
	}
	if strings.Contains(html, "Packages not loadable") {
		t.Fatal("failure section rendered without failures")
	}
}
