package views

type ChartKind string

const (
	ChartLine    ChartKind = "line"
	ChartBar     ChartKind = "bar"
	ChartPie     ChartKind = "pie"
	ChartRadar   ChartKind = "radar"
	ChartHeatmap ChartKind = "heatmap"
	ChartMap     ChartKind = "map"
	ChartScatter ChartKind = "scatter"
)

// Chart is a figure addressable by ID within its page.
type Chart struct {
	ID     string    `json:"id"`
	Title  string    `json:"title,omitempty"`
	Kind   ChartKind `json:"kind"`
	Traces []Trace   `json:"traces"`
	Layout Layout    `json:"layout"`
}

// Trace is one data series. Which fields are used depends on the chart kind:
// X/Y for line, bar and scatter, Labels/Values for pie, R/Theta for radar,
// X/Y/Z for heatmaps and Lat/Lon for maps.
type Trace struct {
	Name        string      `json:"name,omitempty"`
	X           []string    `json:"x,omitempty"`
	Y           []float64   `json:"y,omitempty"`
	Z           [][]float64 `json:"z,omitempty"`
	YLabels     []string    `json:"y_labels,omitempty"`
	Labels      []string    `json:"labels,omitempty"`
	Values      []float64   `json:"values,omitempty"`
	R           []float64   `json:"r,omitempty"`
	Theta       []string    `json:"theta,omitempty"`
	Lat         []float64   `json:"lat,omitempty"`
	Lon         []float64   `json:"lon,omitempty"`
	Text        []string    `json:"text,omitempty"`
	Sizes       []float64   `json:"sizes,omitempty"`
	Color       string      `json:"color,omitempty"`
	Colors      []string    `json:"colors,omitempty"`
	Markers     bool        `json:"markers,omitempty"`
	Dash        string      `json:"dash,omitempty"`
	Width       float64     `json:"width,omitempty"`
	Fill        bool        `json:"fill,omitempty"`
	Hole        float64     `json:"hole,omitempty"`
	SecondAxis  bool        `json:"second_axis,omitempty"`
	Horizontal  bool        `json:"horizontal,omitempty"`
	ColorScale  string      `json:"color_scale,omitempty"`
	ColorBar    string      `json:"color_bar,omitempty"`
	ShowNumbers bool        `json:"show_numbers,omitempty"`
}

type Layout struct {
	Height     int      `json:"height,omitempty"`
	XTitle     string   `json:"x_title,omitempty"`
	YTitle     string   `json:"y_title,omitempty"`
	Y2Title    string   `json:"y2_title,omitempty"`
	RadialMax  float64  `json:"radial_max,omitempty"`
	Zoom       float64  `json:"zoom,omitempty"`
	CenterLat  float64  `json:"center_lat,omitempty"`
	CenterLon  float64  `json:"center_lon,omitempty"`
	HideLegend bool     `json:"hide_legend,omitempty"`
	TargetLine *float64 `json:"target_line,omitempty"`
	Stacked    bool     `json:"stacked,omitempty"`
}

// Figure converts the chart into a Plotly figure ({data, layout}).
func (c Chart) Figure() map[string]any {
	data := make([]map[string]any, 0, len(c.Traces))
	for _, t := range c.Traces {
		data = append(data, c.plotlyTrace(t))
	}
	layout := map[string]any{
		"title":      c.Title,
		"font":       map[string]any{"family": "SimHei, sans-serif", "size": 12},
		"margin":     map[string]any{"l": 40, "r": 40, "t": 40, "b": 40},
		"showlegend": !c.Layout.HideLegend,
	}
	if c.Layout.Height > 0 {
		layout["height"] = c.Layout.Height
	}
	if c.Layout.XTitle != "" {
		layout["xaxis"] = map[string]any{"title": c.Layout.XTitle}
	}
	if c.Layout.YTitle != "" {
		layout["yaxis"] = map[string]any{"title": c.Layout.YTitle, "side": "left"}
	}
	if c.Layout.Y2Title != "" {
		layout["yaxis2"] = map[string]any{"title": c.Layout.Y2Title, "side": "right", "overlaying": "y"}
	}
	if c.Layout.Stacked {
		layout["barmode"] = "stack"
	}
	if c.Layout.TargetLine != nil {
		layout["shapes"] = []map[string]any{{
			"type": "line", "xref": "paper", "x0": 0, "x1": 1,
			"y0": *c.Layout.TargetLine, "y1": *c.Layout.TargetLine,
			"line": map[string]any{"color": "red", "dash": "dash"},
		}}
	}
	switch c.Kind {
	case ChartRadar:
		top := c.Layout.RadialMax
		if top == 0 {
			top = 100
		}
		layout["polar"] = map[string]any{"radialaxis": map[string]any{"visible": true, "range": []float64{0, top}}}
	case ChartMap:
		zoom := c.Layout.Zoom
		if zoom == 0 {
			zoom = 15
		}
		layout["mapbox"] = map[string]any{
			"style":  "open-street-map",
			"zoom":   zoom,
			"center": map[string]any{"lat": c.Layout.CenterLat, "lon": c.Layout.CenterLon},
		}
	}
	return map[string]any{"data": data, "layout": layout}
}

func (c Chart) plotlyTrace(t Trace) map[string]any {
	out := map[string]any{}
	if t.Name != "" {
		out["name"] = t.Name
	}
	line := map[string]any{}
	if t.Color != "" {
		line["color"] = t.Color
	}
	if t.Width > 0 {
		line["width"] = t.Width
	}
	if t.Dash != "" {
		line["dash"] = t.Dash
	}
	marker := map[string]any{}
	if len(t.Colors) > 0 {
		marker["colors"] = t.Colors
		marker["color"] = t.Colors
	} else if t.Color != "" {
		marker["color"] = t.Color
	}
	if len(t.Sizes) > 0 {
		marker["size"] = t.Sizes
	}

	switch c.Kind {
	case ChartLine, ChartScatter:
		out["type"] = "scatter"
		out["x"], out["y"] = t.X, t.Y
		switch {
		case c.Kind == ChartScatter:
			out["mode"] = "markers"
		case t.Markers:
			out["mode"] = "lines+markers"
		default:
			out["mode"] = "lines"
		}
		if len(t.Text) > 0 {
			out["text"] = t.Text
		}
		out["line"] = line
		out["marker"] = marker
		if t.SecondAxis {
			out["yaxis"] = "y2"
		}
		if t.Fill {
			out["fill"] = "tozeroy"
		}
	case ChartBar:
		out["type"] = "bar"
		if t.Horizontal {
			out["orientation"] = "h"
			out["x"], out["y"] = t.Y, t.X
		} else {
			out["x"], out["y"] = t.X, t.Y
		}
		out["marker"] = marker
		if t.ShowNumbers {
			out["textposition"] = "auto"
			out["texttemplate"] = "%{value}"
		}
		if t.SecondAxis {
			out["yaxis"] = "y2"
		}
	case ChartPie:
		out["type"] = "pie"
		out["labels"], out["values"] = t.Labels, t.Values
		if t.Hole > 0 {
			out["hole"] = t.Hole
		}
		out["marker"] = marker
	case ChartRadar:
		out["type"] = "scatterpolar"
		out["r"], out["theta"] = t.R, t.Theta
		if t.Fill {
			out["fill"] = "toself"
		}
		out["line"] = line
	case ChartHeatmap:
		out["type"] = "heatmap"
		out["x"], out["z"] = t.X, t.Z
		if len(t.YLabels) > 0 {
			out["y"] = t.YLabels
		}
		if t.ColorScale != "" {
			out["colorscale"] = t.ColorScale
		}
		if t.ColorBar != "" {
			out["colorbar"] = map[string]any{"title": t.ColorBar}
		}
	case ChartMap:
		out["type"] = "scattermapbox"
		out["mode"] = "markers"
		out["lat"], out["lon"] = t.Lat, t.Lon
		if len(t.Text) > 0 {
			out["text"] = t.Text
			out["hoverinfo"] = "text"
		}
		out["marker"] = marker
	}
	return out
}

// Series reports the numeric series exportable as a flat chart: Y for line and
// bar charts, Values for pies.
func (t Trace) Series(kind ChartKind) []float64 {
	if kind == ChartPie {
		return t.Values
	}
	return t.Y
}

// Exportable reports whether the chart has a static PNG rendering.
func (c Chart) Exportable() bool {
	return c.Kind == ChartLine || c.Kind == ChartBar || c.Kind == ChartPie
}
