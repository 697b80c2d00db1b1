package app

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/views"
)

// ErrUnsupportedChart is returned for chart kinds without a PNG rendering.
var ErrUnsupportedChart = errors.New("chart kind cannot be exported as png")

const (
	pngWidth  = 800
	pngHeight = 400
)

var fallbackPalette = []drawing.Color{
	chart.ColorBlue, chart.ColorGreen, chart.ColorOrange, chart.ColorRed, chart.ColorCyan, chart.ColorAlternateGray,
}

// namedColors covers the CSS names the pages use.
var namedColors = map[string]drawing.Color{
	"red":    chart.ColorRed,
	"blue":   chart.ColorBlue,
	"green":  chart.ColorGreen,
	"orange": chart.ColorOrange,
	"gold":   drawing.ColorFromHex("FFD700"),
	"purple": drawing.ColorFromHex("800080"),
	"gray":   chart.ColorAlternateGray,
}

func color(name string, i int) drawing.Color {
	if strings.HasPrefix(name, "#") && len(name) == 7 {
		return drawing.ColorFromHex(name[1:])
	}
	if c, ok := namedColors[strings.ToLower(name)]; ok {
		return c
	}
	return fallbackPalette[i%len(fallbackPalette)]
}

// RenderPNG draws line, bar and pie charts. Other kinds return ErrUnsupportedChart.
// Series with a single point or a flat range fail to render.
func RenderPNG(w io.Writer, c views.Chart) error {
	if !c.Exportable() {
		return fmt.Errorf("%w: %s", ErrUnsupportedChart, c.Kind)
	}
	if len(c.Traces) == 0 {
		return fmt.Errorf("chart %s: no data", c.ID)
	}
	switch c.Kind {
	case views.ChartLine:
		return renderLine(w, c)
	case views.ChartBar:
		return renderBar(w, c)
	default:
		return renderPie(w, c)
	}
}

// categorical x values are drawn at 0..n-1 with the labels as ticks
func renderLine(w io.Writer, c views.Chart) error {
	var labels []string
	var series []chart.Series
	for i, t := range c.Traces {
		ys := t.Series(c.Kind)
		if len(ys) == 0 {
			continue
		}
		xs := make([]float64, len(ys))
		for j := range ys {
			xs[j] = float64(j)
		}
		if len(t.X) > len(labels) {
			labels = t.X
		}
		col := color(t.Color, i)
		style := chart.Style{StrokeColor: col, StrokeWidth: 2}
		if t.Markers {
			style.DotColor = col
			style.DotWidth = 3
		}
		series = append(series, chart.ContinuousSeries{Name: t.Name, XValues: xs, YValues: ys, Style: style})
	}
	if len(series) == 0 {
		return fmt.Errorf("chart %s: no data", c.ID)
	}
	var ticks []chart.Tick
	for i, l := range labels {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: l})
	}
	ch := chart.Chart{
		Title:      c.Title,
		Width:      pngWidth,
		Height:     pngHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: c.Layout.XTitle, Ticks: ticks},
		YAxis:      chart.YAxis{Name: c.Layout.YTitle},
		Series:     series,
	}
	if !c.Layout.HideLegend {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(chart.PNG, w)
}

// only the first trace of a bar chart is exported
func renderBar(w io.Writer, c views.Chart) error {
	t := c.Traces[0]
	ys := t.Series(c.Kind)
	if len(ys) == 0 {
		return fmt.Errorf("chart %s: no data", c.ID)
	}
	bars := make([]chart.Value, len(ys))
	for i, v := range ys {
		label := ""
		if i < len(t.X) {
			label = t.X[i]
		}
		name := t.Color
		if i < len(t.Colors) {
			name = t.Colors[i]
		}
		col := color(name, i)
		bars[i] = chart.Value{Value: v, Label: label, Style: chart.Style{FillColor: col, StrokeColor: col}}
	}
	bc := chart.BarChart{
		Title:      c.Title,
		Width:      pngWidth,
		Height:     pngHeight,
		BarWidth:   40,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, w)
}

func renderPie(w io.Writer, c views.Chart) error {
	t := c.Traces[0]
	vals := t.Series(c.Kind)
	if len(vals) == 0 {
		return fmt.Errorf("chart %s: no data", c.ID)
	}
	values := make([]chart.Value, len(vals))
	for i, v := range vals {
		label := ""
		if i < len(t.Labels) {
			label = t.Labels[i]
		}
		name := ""
		if i < len(t.Colors) {
			name = t.Colors[i]
		}
		values[i] = chart.Value{Value: v, Label: label, Style: chart.Style{FillColor: color(name, i)}}
	}
	pc := chart.PieChart{
		Title:  c.Title,
		Width:  pngHeight,
		Height: pngHeight,
		Values: values,
	}
	return pc.Render(chart.PNG, w)
}
