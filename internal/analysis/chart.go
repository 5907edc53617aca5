package analysis

import (
	"fmt"
	"strings"
)

// ChartConfig holds rendering parameters for the SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels
	Height       int    // SVG height in pixels
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	BgColor      string
	GridColor    string
	TextColor    string
	FontSize     int
	Title        string
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 30,
		MarginLeft:   200,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// BarItem represents a single bar in a horizontal bar chart.
type BarItem struct {
	Label string
	Value float64
	Color string // optional
}

// HorizontalBarChart generates an SVG horizontal bar chart. Group labels
// go on the left axis, values are printed at the bar ends.
func HorizontalBarChart(items []BarItem, cfg ChartConfig) string {
	if len(items) == 0 {
		return emptySVG(cfg, "No data")
	}
	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}

	px, py, pw, ph := cfg.plotArea()

	maxVal, minVal := 0.0, 0.0
	for _, item := range items {
		if item.Value > maxVal {
			maxVal = item.Value
		}
		if item.Value < minVal {
			minVal = item.Value
		}
	}
	hasNegative := minVal < 0
	valRange := maxVal - minVal
	if valRange < 0.001 {
		valRange = 1
	}

	barH := float64(ph) / float64(len(items)) * 0.7
	if barH > 26 {
		barH = 26
	}
	gap := (float64(ph) - barH*float64(len(items))) / float64(len(items)+1)

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="22" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	// Vertical grid with value labels.
	gridLines := 5
	for i := 0; i <= gridLines; i++ {
		val := minVal + valRange*float64(i)/float64(gridLines)
		x := float64(px) + ((val - minVal) / valRange * float64(pw))
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			x, py, x, py+ph, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%.1f</text>`,
			x, py+ph+16, cfg.FontSize, cfg.TextColor, val))
	}

	// Zero line when values mix signs.
	zeroX := float64(px)
	if hasNegative {
		zeroX = float64(px) + (-minVal/valRange)*float64(pw)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#999" stroke-width="1"/>`,
			zeroX, py, zeroX, py+ph))
	}

	for i, item := range items {
		by := float64(py) + gap + float64(i)*(barH+gap)
		color := item.Color
		if color == "" {
			if item.Value >= 0 {
				color = "#2196f3"
			} else {
				color = "#ef5350"
			}
		}

		var bx, bw float64
		if hasNegative {
			if item.Value >= 0 {
				bx = zeroX
				bw = (item.Value / valRange) * float64(pw)
			} else {
				bw = (-item.Value / valRange) * float64(pw)
				bx = zeroX - bw
			}
		} else {
			bx = float64(px)
			bw = (item.Value / maxVal) * float64(pw)
		}

		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" rx="2"/>`,
			bx, by, bw, barH, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, by+barH/2+4, cfg.FontSize, cfg.TextColor, escapeXML(item.Label)))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s">%.2f</text>`,
			bx+bw+5, by+barH/2+4, cfg.FontSize, cfg.TextColor, item.Value))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
