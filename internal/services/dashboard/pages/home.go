package pages

import (
	"context"
	"fmt"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/views"
)

var homePlots = []struct {
	name     string
	lat, lon float64
	area     float64
	crop     string
}{
	{"A", 39.9042, 116.4074, 50, "玉米"},
	{"B", 39.9052, 116.4084, 30, "大豆"},
	{"C", 39.9032, 116.4064, 80, "向日葵"},
	{"D", 39.9062, 116.4094, 45, "小麦"},
	{"E", 39.9022, 116.4054, 60, "棉花"},
}

var homeCropColors = map[string]string{
	"玉米": "#FFD700", "大豆": "#90EE90", "向日葵": "#FFA500", "小麦": "#F4A460", "棉花": "#DDA0DD",
}

// Home is the overview page.
func Home(_ context.Context, env *Env) (views.Page, error) {
	c := env.catalog()
	colors := c.Colors

	overview := views.Section{
		Title: "📊 系统概览",
		Metrics: []views.Metric{
			MetricCard("管理地块", "12", "个", 2),
			MetricCard("推荐作物", "28", "种", 3),
			MetricCard("微区数量", "48", "个", 5),
			MetricCard("活跃用户", "156", "人", 12),
		},
	}

	quick := views.Section{
		Title: "🚀 快速操作",
		Links: []views.Link{
			{Label: "地块管理", Href: "/pages/plots", Icon: "📍"},
			{Label: "智能推荐", Href: "/pages/recommend", Icon: "🌾"},
			{Label: "数据分析", Href: "/pages/analysis", Icon: "📊"},
		},
	}

	latest := views.Table{
		Columns: []string{"地块", "推荐作物", "适应性", "收益", "时间"},
		Rows: [][]string{
			{"地块A", "玉米", "95", "高", "10:30"},
			{"地块B", "大豆", "88", "中高", "09:45"},
			{"地块C", "向日葵", "82", "中", "09:12"},
			{"地块D", "小麦", "91", "高", "16:20"},
		},
	}

	var mapTraces []views.Trace
	for _, p := range homePlots {
		mapTraces = append(mapTraces, views.Trace{
			Name:  p.crop,
			Lat:   []float64{p.lat},
			Lon:   []float64{p.lon},
			Sizes: []float64{p.area / 4},
			Text:  []string{fmt.Sprintf("地块%s<br>面积: %.0f亩", p.name, p.area)},
			Color: homeCropColors[p.crop],
		})
	}
	distribution := views.Chart{
		ID:     "plot-map",
		Title:  "地块位置分布",
		Kind:   views.ChartMap,
		Traces: mapTraces,
		Layout: views.Layout{Height: 280, Zoom: 12, CenterLat: 39.9042, CenterLon: 116.4074},
	}

	left := views.Section{
		Sections: []views.Section{
			{Title: "📈 最新推荐", Tables: []views.Table{latest}},
			{Title: "🗺️ 地块分布", Charts: []views.Chart{distribution}},
		},
	}

	right := views.Section{
		Sections: []views.Section{
			{Title: "📢 通知", Alerts: []views.Alert{
				{Level: views.AlertSuccess, Title: "✅ 推荐完成", Text: "地块A玉米推荐完成"},
				{Level: views.AlertWarning, Title: "⚠️ 传感器异常", Text: "S003连接异常"},
				{Level: views.AlertInfo, Title: "ℹ️ 数据更新", Text: "市场价格已更新"},
			}},
			{Title: "🌤️ 实时状态", Metrics: []views.Metric{
				CompactMetric(colors, "温度", "18°C", ""),
				CompactMetric(colors, "湿度", "65%", ""),
				CompactMetric(colors, "风速", "2.1m/s", ""),
			}},
			{Title: "📡 传感器", Metrics: []views.Metric{
				MetricCard("在线", "15", "", 0),
				MetricCard("离线", "3", "", 0),
			}},
		},
	}

	crops := []string{"玉米", "大豆", "向日葵", "小麦", "棉花"}
	success := []float64{95, 88, 82, 91, 85}
	stats := views.Chart{
		ID:    "crop-stats",
		Title: "作物推荐统计",
		Kind:  views.ChartBar,
		Traces: []views.Trace{{
			Name:   "推荐次数",
			X:      crops,
			Y:      []float64{25, 18, 15, 22, 12},
			Colors: greens(success),
		}},
		Layout: views.Layout{Height: 220, HideLegend: true},
	}
	trend := views.Chart{
		ID:    "recommend-trend",
		Title: "推荐趋势",
		Kind:  views.ChartLine,
		Traces: []views.Trace{{
			Name:    "推荐数量",
			X:       []string{"8月", "9月", "10月", "11月", "12月", "1月"},
			Y:       []float64{45, 52, 38, 65, 58, 72},
			Color:   "lightgreen",
			Width:   2,
			Markers: true,
		}},
		Layout: views.Layout{Height: 220, YTitle: "数量", HideLegend: true},
	}

	status := InfoPanel(colors, "系统状态",
		fmt.Sprintf("运行正常 | 更新: %s | 在线: 23人", env.now().Format("15:04")), "💡")

	return views.Page{
		Title:    "🌱 " + c.App.Title,
		Subtitle: c.App.Subtitle,
		Sections: []views.Section{
			overview,
			quick,
			columns(left, right),
			{Title: "📊 统计概览", Sections: []views.Section{
				{Charts: []views.Chart{stats}},
				{Charts: []views.Chart{trend}},
			}},
			{Cards: []views.Card{status}},
		},
	}, nil
}

// greens maps values onto a light-to-dark green scale.
func greens(values []float64) []string {
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	out := make([]string, len(values))
	for i, v := range values {
		t := 0.5
		if hi > lo {
			t = (v - lo) / (hi - lo)
		}
		// #e5f5e0 -> #006d2c
		r := 0xe5 + t*(0x00-0xe5)
		g := 0xf5 + t*(0x6d-0xf5)
		b := 0xe0 + t*(0x2c-0xe0)
		out[i] = fmt.Sprintf("#%02x%02x%02x", int(r), int(g), int(b))
	}
	return out
}
