package pages

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/catalog"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/views"
)

// MetricCard is a headline metric. A zero delta shows no arrow.
func MetricCard(label, value, unit string, delta float64) views.Metric {
	m := views.Metric{Label: label, Value: value, Unit: unit}
	if delta != 0 {
		m.Delta = views.F(delta)
	}
	return m
}

// CompactMetric is a single label/value row; color defaults to the primary colour.
func CompactMetric(colors catalog.Colors, label, value, color string) views.Metric {
	if color == "" {
		color = colors.Primary
	}
	return views.Metric{Label: label, Value: value, Color: color, Compact: true}
}

// Stars renders a 0-100 score as five stars, one per full 20 points.
func Stars(score int) string {
	n := score / 20
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// RiskBand: <30 低, <70 中, else 高.
func RiskBand(colors catalog.Colors, risk int) (string, string) {
	switch {
	case risk < 30:
		return "低", colors.Success
	case risk < 70:
		return "中", colors.Warning
	default:
		return "高", colors.Danger
	}
}

// ProfitBand: >70 高, >40 中, else 低.
func ProfitBand(colors catalog.Colors, profit int) (string, string) {
	switch {
	case profit > 70:
		return "高", colors.Success
	case profit > 40:
		return "中", colors.Warning
	default:
		return "低", colors.Danger
	}
}

// SuitabilityBand labels a match score: ≥90 非常适合, ≥80 比较适合, else 一般适合.
func SuitabilityBand(colors catalog.Colors, score int) (string, string) {
	switch {
	case score >= 90:
		return "非常适合", colors.Success
	case score >= 80:
		return "比较适合", colors.Info
	default:
		return "一般适合", colors.Warning
	}
}

// RecommendationCard summarises a recommended crop with stars and bands.
func RecommendationCard(colors catalog.Colors, name, variety string, suitability, profit, risk int) views.Card {
	profitText, profitColor := ProfitBand(colors, profit)
	riskText, riskColor := RiskBand(colors, risk)
	c := views.Card{
		Title: name,
		Color: colors.Primary,
		Stars: Stars(suitability),
		Fields: []views.Field{
			{Label: "适应性", Value: Stars(suitability), Color: colors.Accent},
			{Label: "收益", Value: profitText, Color: profitColor},
			{Label: "风险", Value: riskText, Color: riskColor},
		},
	}
	if variety != "" {
		c.Subtitle = "品种: " + variety
	}
	return c
}

// SensorBadge colours 在线 green and every other status red.
func SensorBadge(colors catalog.Colors, status string) views.Field {
	color := colors.Danger
	if status == "在线" {
		color = colors.Success
	}
	return views.Field{Label: "●", Value: status, Color: color}
}

// InfoPanel is a bordered note with an icon.
func InfoPanel(colors catalog.Colors, title, content, icon string) views.Card {
	if icon == "" {
		icon = "ℹ️"
	}
	return views.Card{Title: title, Icon: icon, Text: content, Color: colors.Accent}
}

// helpers di formattazione
func itoa(v int) string    { return strconv.Itoa(v) }
func f1(v float64) string  { return strconv.FormatFloat(v, 'f', 1, 64) }
func f2(v float64) string  { return strconv.FormatFloat(v, 'f', 2, 64) }
func pct(v float64) string { return fmt.Sprintf("%.0f%%", v) }

// columns lays sections out side by side.
func columns(sections ...views.Section) views.Section {
	return views.Section{Sections: sections}
}

func tabs(sections ...views.Section) views.Section {
	return views.Section{Tabs: true, Sections: sections}
}
