// Package views is the presentation-neutral model of a rendered dashboard
// page. The HTML shell and the JSON API both serialize the same Page.
package views

import "time"

// Page is one rendered dashboard page.
type Page struct {
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle,omitempty"`
	Controls    []Control `json:"controls,omitempty"`
	Sections    []Section `json:"sections"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Section groups widgets under an optional heading. Child sections are laid
// out as columns, or as tabs when Tabs is set.
type Section struct {
	Title    string    `json:"title,omitempty"`
	Tabs     bool      `json:"tabs,omitempty"`
	Metrics  []Metric  `json:"metrics,omitempty"`
	Alerts   []Alert   `json:"alerts,omitempty"`
	Cards    []Card    `json:"cards,omitempty"`
	Tables   []Table   `json:"tables,omitempty"`
	Charts   []Chart   `json:"charts,omitempty"`
	Notes    []string  `json:"notes,omitempty"`
	Links    []Link    `json:"links,omitempty"`
	Actions  []Action  `json:"actions,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

// Empty reports whether the section has nothing to show.
func (s Section) Empty() bool {
	return len(s.Metrics) == 0 && len(s.Alerts) == 0 && len(s.Cards) == 0 &&
		len(s.Tables) == 0 && len(s.Charts) == 0 && len(s.Notes) == 0 &&
		len(s.Links) == 0 && len(s.Actions) == 0 && len(s.Sections) == 0
}

// Metric is a headline value. Compact metrics render as a single label/value row.
type Metric struct {
	Label   string   `json:"label"`
	Value   string   `json:"value"`
	Unit    string   `json:"unit,omitempty"`
	Delta   *float64 `json:"delta,omitempty"`
	Color   string   `json:"color,omitempty"`
	Compact bool     `json:"compact,omitempty"`
}

// DeltaUp reports whether the delta arrow points up.
func (m Metric) DeltaUp() bool { return m.Delta != nil && *m.Delta > 0 }

type AlertLevel string

const (
	AlertSuccess AlertLevel = "success"
	AlertInfo    AlertLevel = "info"
	AlertWarning AlertLevel = "warning"
	AlertError   AlertLevel = "error"
)

type Alert struct {
	Level AlertLevel `json:"level"`
	Title string     `json:"title,omitempty"`
	Text  string     `json:"text"`
}

// Field is a label/value pair inside a card.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// Card is a bordered block: recommendation cards, plot cards, info panels.
type Card struct {
	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle,omitempty"`
	Icon       string   `json:"icon,omitempty"`
	Image      string   `json:"image,omitempty"`
	Badge      string   `json:"badge,omitempty"`
	Color      string   `json:"color,omitempty"`
	Stars      string   `json:"stars,omitempty"`
	Progress   *int     `json:"progress,omitempty"` // %
	Fields     []Field  `json:"fields,omitempty"`
	Lines      []string `json:"lines,omitempty"`
	Text       string   `json:"text,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
}

type Table struct {
	Title   string     `json:"title,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Icon  string `json:"icon,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Action is a button bound to a POST endpoint of the dashboard API.
type Action struct {
	Label    string `json:"label"`
	Endpoint string `json:"endpoint"`
	Value    string `json:"value,omitempty"`
	Plot     string `json:"plot,omitempty"`
	Primary  bool   `json:"primary,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
}

type ControlKind string

const (
	ControlSelect      ControlKind = "select"
	ControlMultiSelect ControlKind = "multiselect"
	ControlNumber      ControlKind = "number"
	ControlSlider      ControlKind = "slider"
	ControlText        ControlKind = "text"
	ControlDate        ControlKind = "date"
	ControlRadio       ControlKind = "radio"
)

// Control is a page input. Its current value travels back as a query parameter named Name.
type Control struct {
	Name    string      `json:"name"`
	Label   string      `json:"label"`
	Kind    ControlKind `json:"kind"`
	Options []string    `json:"options,omitempty"`
	Value   string      `json:"value,omitempty"`
	Values  []string    `json:"values,omitempty"`
	Min     *float64    `json:"min,omitempty"`
	Max     *float64    `json:"max,omitempty"`
	Step    *float64    `json:"step,omitempty"`
	Help    string      `json:"help,omitempty"`
}

// Selected reports whether opt is part of the control's current value.
func (c Control) Selected(opt string) bool {
	if c.Value == opt {
		return true
	}
	for _, v := range c.Values {
		if v == opt {
			return true
		}
	}
	return false
}

// F returns a pointer to v, for the optional numeric fields.
func F(v float64) *float64 { return &v }

// I returns a pointer to v.
func I(v int) *int { return &v }
