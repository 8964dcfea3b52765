package output

import (
	"fmt"
	"html"
	"strings"

	"msindex/internal/engine/exchange"
)

// Bar colours cycle through a qualitative palette.
var barPalette = []string{
	"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00",
	"#ffff33", "#a65628", "#f781bf", "#999999",
}

const (
	chartBarWidth = 28
	chartBarGap   = 10
	chartHeight   = 420
	chartMarginL  = 60
	chartMarginB  = 160
	chartMarginT  = 50
)

// FrequencyChartSVG draws exchange frequencies as a bar chart, bars in the
// order given.
func FrequencyChartSVG(title string, counts []exchange.Count) string {
	peak := 1
	for _, c := range counts {
		if c.Pairs > peak {
			peak = c.Pairs
		}
	}
	width := chartMarginL + len(counts)*(chartBarWidth+chartBarGap) + chartBarGap + 20
	if width < 320 {
		width = 320
	}
	plotH := chartHeight - chartMarginT - chartMarginB
	baseY := chartMarginT + plotH

	var b strings.Builder
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\" font-family=\"Helvetica, Arial, sans-serif\">\n", width, chartHeight)
	fmt.Fprintf(&b, "  <rect width=\"%d\" height=\"%d\" fill=\"white\"/>\n", width, chartHeight)
	fmt.Fprintf(&b, "  <text x=\"%d\" y=\"24\" font-size=\"14\" text-anchor=\"middle\">%s</text>\n", width/2, html.EscapeString(title))
	fmt.Fprintf(&b, "  <line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\" stroke=\"black\"/>\n", chartMarginL, chartMarginT, chartMarginL, baseY)
	fmt.Fprintf(&b, "  <line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\" stroke=\"black\"/>\n", chartMarginL, baseY, width-10, baseY)
	fmt.Fprintf(&b, "  <text x=\"16\" y=\"%d\" font-size=\"11\" transform=\"rotate(-90 16 %d)\" text-anchor=\"middle\">exchange frequency</text>\n",
		chartMarginT+plotH/2, chartMarginT+plotH/2)

	for tick := 0; tick <= peak; tick++ {
		y := baseY - tick*plotH/peak
		fmt.Fprintf(&b, "  <text x=\"%d\" y=\"%d\" font-size=\"9\" text-anchor=\"end\">%d</text>\n", chartMarginL-6, y+3, tick)
	}

	for i, c := range counts {
		x := chartMarginL + chartBarGap + i*(chartBarWidth+chartBarGap)
		h := c.Pairs * plotH / peak
		fmt.Fprintf(&b, "  <rect x=\"%d\" y=\"%d\" width=\"%d\" height=\"%d\" fill=\"%s\"><title>%s: %d</title></rect>\n",
			x, baseY-h, chartBarWidth, h, barPalette[i%len(barPalette)], html.EscapeString(c.Metabolite), c.Pairs)
		lx := x + chartBarWidth/2
		ly := baseY + 12
		fmt.Fprintf(&b, "  <text x=\"%d\" y=\"%d\" font-size=\"9\" text-anchor=\"end\" transform=\"rotate(-45 %d %d)\">%s</text>\n",
			lx, ly, lx, ly, html.EscapeString(c.Metabolite))
	}
	b.WriteString("</svg>\n")
	return b.String()
}
