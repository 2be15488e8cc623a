package report

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/harrison/dora/internal/submission"
)

// Chart geometry defaults.
const (
	DefaultChartWidth = 640
	DefaultBarHeight  = 28

	chartTitleHeight = 40
	chartBarGap      = 10
	chartPadding     = 16
	chartValueWidth  = 56
)

// ChartMIMEType is the media type of charts produced by SVGChart.
const ChartMIMEType = "image/svg+xml"

// ErrNoCategories is returned when there is nothing to chart.
var ErrNoCategories = errors.New("no categories to chart")

// SVGChart renders per-category scores as a horizontal bar chart scaled to
// 0-100. Categories without data get an outlined empty bar and the
// request's no-data label instead of a value.
type SVGChart struct {
	Width     int
	BarHeight int
}

// NewSVGChart returns a renderer, falling back to the defaults for
// non-positive dimensions.
func NewSVGChart(width, barHeight int) *SVGChart {
	if width <= 0 {
		width = DefaultChartWidth
	}
	if barHeight <= 0 {
		barHeight = DefaultBarHeight
	}
	return &SVGChart{Width: width, BarHeight: barHeight}
}

// Render implements submission.ChartRenderer.
func (c *SVGChart) Render(ctx context.Context, req submission.ChartRequest) (*submission.Chart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Scores) == 0 {
		return nil, ErrNoCategories
	}

	labelWidth := c.Width * 35 / 100
	barArea := c.Width - labelWidth - chartValueWidth - 2*chartPadding
	if barArea <= 0 {
		return nil, fmt.Errorf("chart width %d too small", c.Width)
	}
	rowHeight := c.BarHeight + chartBarGap
	height := chartTitleHeight + len(req.Scores)*rowHeight + chartPadding
	barX := chartPadding + labelWidth

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="13">`,
		c.Width, height, c.Width, height)
	buf.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>`)
	fmt.Fprintf(&buf, `<text x="%d" y="26" font-size="16" font-weight="bold">`, chartPadding)
	escape(&buf, req.Title)
	buf.WriteString(`</text>`)

	for i, s := range req.Scores {
		y := chartTitleHeight + i*rowHeight
		textY := y + c.BarHeight/2 + 5

		fmt.Fprintf(&buf, `<text x="%d" y="%d">`, chartPadding, textY)
		escape(&buf, s.Label)
		buf.WriteString(`</text>`)

		pct, ok := s.Percent()
		if !ok {
			fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="#9e9e9e" stroke-dasharray="4 3"/>`,
				barX, y, barArea, c.BarHeight)
			fmt.Fprintf(&buf, `<text x="%d" y="%d" fill="#757575" font-style="italic">`, barX+8, textY)
			escape(&buf, req.NoDataLabel)
			buf.WriteString(`</text>`)
			continue
		}

		fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" fill="#eceff1"/>`, barX, y, barArea, c.BarHeight)
		fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`,
			barX, y, int(float64(barArea)*pct/100+0.5), c.BarHeight, barColor(pct))
		fmt.Fprintf(&buf, `<text x="%d" y="%d">%.0f%%</text>`, barX+barArea+8, textY, pct)
	}

	buf.WriteString(`</svg>`)
	return &submission.Chart{MIMEType: ChartMIMEType, Data: buf.Bytes()}, nil
}

// barColor grades a percentage from red through amber to green.
func barColor(pct float64) string {
	switch {
	case pct < 40:
		return "#e53935"
	case pct < 70:
		return "#fb8c00"
	default:
		return "#43a047"
	}
}

func escape(buf *bytes.Buffer, s string) {
	// xml.EscapeText only fails when the writer does; bytes.Buffer never does.
	_ = xml.EscapeText(buf, []byte(s))
}
