package pages

import (
	"context"
	"fmt"
	"time"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/mock"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/views"
)

// AnalysisTypes in menu order; the first is the default.
var AnalysisTypes = []string{"综合分析", "推荐效果分析", "作物产量分析", "环境数据分析", "收益分析", "风险分析"}

// DefaultEnvMetrics are preselected on the environmental analysis.
var DefaultEnvMetrics = []string{"温度", "湿度", "pH值"}

// maxAnalysisSpan bounds the date window of the trend, matching the ten years a date picker offers.
const maxAnalysisSpan = 10

var yieldFactors = []string{"温度", "pH值", "盐碱度", "氮含量", "磷含量", "钾含量", "降水量"}

// Analysis is the data analysis page.
func Analysis(ctx context.Context, env *Env) (views.Page, error) {
	kind := env.opt("type", AnalysisTypes[0], AnalysisTypes...)
	page := views.Page{
		Title:    "📊 数据分析",
		Subtitle: "历史数据分析与趋势预测",
		Controls: []views.Control{{Name: "type", Label: "选择分析类型", Kind: views.ControlSelect, Options: AnalysisTypes, Value: kind}},
	}

	switch kind {
	case "推荐效果分析":
		page.Sections = recommendationAnalysis()
	case "作物产量分析":
		page.Sections = yieldAnalysis(env)
	case "环境数据分析":
		controls, sections := environmentalAnalysis(ctx, env)
		page.Controls = append(page.Controls, controls...)
		page.Sections = sections
	case "收益分析":
		page.Sections = profitAnalysis()
	case "风险分析":
		page.Sections = riskAnalysis()
	default:
		controls, sections := comprehensiveAnalysis(env)
		page.Controls = append(page.Controls, controls...)
		page.Sections = sections
	}
	return page, nil
}

func dateLabels(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Format(time.DateOnly)
	}
	return out
}

func comprehensiveAnalysis(env *Env) ([]views.Control, []views.Section) {
	today := env.now().UTC()
	start := env.date("start", today.AddDate(-1, 0, 0))
	end := env.date("end", today)
	controls := []views.Control{
		{Name: "start", Label: "开始日期", Kind: views.ControlDate, Value: start.Format(time.DateOnly)},
		{Name: "end", Label: "结束日期", Kind: views.ControlDate, Value: end.Format(time.DateOnly)},
	}

	kpis := views.Section{
		Title: "📈 综合数据分析",
		Metrics: []views.Metric{
			MetricCard("推荐成功率", "91.5", "%", 2.3),
			MetricCard("平均收益", "1348", "元/亩", 125),
			MetricCard("用户满意度", "94.2", "%", 1.8),
			MetricCard("数据完整度", "96.7", "%", 0.5),
		},
	}

	trend := views.Section{Title: "📊 关键指标趋势"}
	switch {
	case end.Before(start):
		trend.Alerts = []views.Alert{{Level: views.AlertWarning, Text: "结束日期早于开始日期，无法生成趋势"}}
	case end.After(start.AddDate(maxAnalysisSpan, 0, 0)):
		trend.Alerts = []views.Alert{{Level: views.AlertWarning, Text: fmt.Sprintf("日期范围超过%d年，请缩小范围", maxAnalysisSpan)}}
	default:
		s := mock.MonthlyKPIs(env.random(), start, end)
		x := dateLabels(s.Dates)
		trend.Charts = []views.Chart{{
			ID:    "kpi-trend",
			Title: "关键指标趋势分析",
			Kind:  views.ChartLine,
			Traces: []views.Trace{
				{Name: "推荐成功率(%)", X: x, Y: s.SuccessRate, Color: "green", Width: 3, Markers: true},
				{Name: "用户满意度(%)", X: x, Y: s.Satisfaction, Color: "blue", Width: 3, Markers: true},
				{Name: "平均收益(元/亩)", X: x, Y: s.Profit, Color: "orange", Width: 3, Markers: true, SecondAxis: true},
			},
			Layout: views.Layout{Height: 500, XTitle: "时间", YTitle: "成功率/满意度(%)", Y2Title: "收益(元/亩)"},
		}}
	}

	success := []float64{95, 88, 92, 85, 90}
	performance := views.Chart{
		ID:    "plot-performance",
		Title: "各地块推荐表现",
		Kind:  views.ChartBar,
		Traces: []views.Trace{{
			X:      []string{"地块A", "地块B", "地块C", "地块D", "地块E"},
			Y:      []float64{25, 18, 32, 15, 28},
			Colors: greens(success),
		}},
		Layout: views.Layout{Height: 400, YTitle: "推荐次数"},
	}
	distribution := views.Chart{
		ID:    "crop-distribution",
		Title: "作物推荐分布",
		Kind:  views.ChartPie,
		Traces: []views.Trace{{
			Labels: []string{"玉米", "大豆", "向日葵", "小麦", "其他"},
			Values: []float64{35, 25, 20, 15, 5},
			Colors: []string{"#90EE90", "#98FB98", "#00CED1", "#87CEEB", "#DDA0DD"},
		}},
		Layout: views.Layout{Height: 400},
	}

	return controls, []views.Section{
		kpis,
		trend,
		columns(
			views.Section{Title: "🏞️ 地块表现对比", Charts: []views.Chart{performance}},
			views.Section{Title: "🌾 作物推荐分布", Charts: []views.Chart{distribution}},
		),
	}
}

func recommendationAnalysis() []views.Section {
	versions := []string{"v1.0", "v1.1", "v1.2", "v2.0", "v2.1"}
	algo := views.Chart{
		ID:    "algorithm",
		Title: "算法性能演进",
		Kind:  views.ChartLine,
		Traces: []views.Trace{
			{Name: "准确率", X: versions, Y: []float64{85, 88, 90, 92, 94}, Width: 3, Markers: true},
			{Name: "召回率", X: versions, Y: []float64{82, 85, 88, 90, 93}, Width: 3, Markers: true},
			{Name: "F1得分", X: versions, Y: []float64{83.5, 86.5, 89, 91, 93.5}, Width: 3, Markers: true},
		},
		Layout: views.Layout{Height: 400, XTitle: "算法版本", YTitle: "性能指标(%)"},
	}
	accuracy := views.Chart{
		ID:    "accuracy",
		Title: "用户对推荐结果准确性评价",
		Kind:  views.ChartPie,
		Traces: []views.Trace{{
			Labels: []string{"非常准确", "比较准确", "一般准确", "不太准确", "完全不准确"},
			Values: []float64{45, 35, 15, 4, 1},
			Colors: []string{"#228B22", "#90EE90", "#98FB98", "#FFA500", "#FF6347"},
			Hole:   0.4,
		}},
		Layout: views.Layout{Height: 400},
	}
	importance := []float64{0.18, 0.16, 0.14, 0.12, 0.11, 0.09, 0.08, 0.07, 0.05}
	factors := views.Chart{
		ID:    "factors",
		Title: "推荐因子重要性排序",
		Kind:  views.ChartBar,
		Traces: []views.Trace{{
			X:          []string{"土壤pH值", "盐碱度", "温度", "湿度", "氮含量", "磷含量", "钾含量", "历史产量", "市场价格"},
			Y:          importance,
			Colors:     greens(importance),
			Horizontal: true,
		}},
		Layout: views.Layout{Height: 500, XTitle: "重要性"},
	}
	details := views.Table{
		Columns: []string{"时间", "推荐次数", "成功推荐", "成功率(%)", "用户反馈平均分", "实际采用率(%)"},
		Rows: [][]string{
			{"2024-01", "45", "42", "93.3", "4.2", "78"},
			{"2024-02", "52", "48", "92.3", "4.3", "82"},
			{"2024-03", "38", "35", "92.1", "4.1", "75"},
			{"2024-04", "65", "60", "92.3", "4.4", "85"},
			{"2024-05", "58", "54", "93.1", "4.5", "88"},
		},
	}
	return []views.Section{
		{Title: "🎯 推荐效果分析"},
		columns(
			views.Section{Title: "🔬 算法性能对比", Charts: []views.Chart{algo}},
			views.Section{Title: "📊 推荐结果准确性", Charts: []views.Chart{accuracy}},
		),
		{Title: "🔍 推荐因子重要性分析", Charts: []views.Chart{factors}},
		{Title: "📋 推荐效果详细数据", Tables: []views.Table{details}},
	}
}

func yieldAnalysis(env *Env) []views.Section {
	years := []string{"2019", "2020", "2021", "2022", "2023"}
	trend := views.Chart{
		ID:    "yield-trend",
		Title: "主要作物产量趋势(kg/亩)",
		Kind:  views.ChartLine,
		Traces: []views.Trace{
			{Name: "玉米", X: years, Y: []float64{580, 595, 610, 625, 635}, Color: "gold", Width: 3, Markers: true},
			{Name: "大豆", X: years, Y: []float64{240, 245, 250, 255, 260}, Color: "green", Width: 3, Markers: true},
			{Name: "向日葵", X: years, Y: []float64{290, 295, 300, 305, 310}, Color: "orange", Width: 3, Markers: true},
		},
		Layout: views.Layout{Height: 400, XTitle: "年份", YTitle: "产量(kg/亩)"},
	}
	achieved := []float64{105.8, 104.0, 103.3, 97.8, 96.7}
	colors := make([]string, len(achieved))
	for i, v := range achieved {
		colors[i] = "#1a9850"
		if v < 100 {
			colors[i] = "#d73027"
		}
	}
	target := views.Chart{
		ID:    "yield-target",
		Title: "产量目标达成情况(%)",
		Kind:  views.ChartBar,
		Traces: []views.Trace{{
			X:      []string{"玉米", "大豆", "向日葵", "小麦", "棉花"},
			Y:      achieved,
			Colors: colors,
		}},
		Layout: views.Layout{Height: 400, TargetLine: views.F(100)},
	}
	heat := views.Chart{
		ID:    "yield-correlation",
		Title: "环境因子与产量相关性分析",
		Kind:  views.ChartHeatmap,
		Traces: []views.Trace{{
			X:          yieldFactors,
			YLabels:    yieldFactors,
			Z:          mock.CorrelationMatrix(env.random(), len(yieldFactors)),
			ColorScale: "RdYlGn",
		}},
		Layout: views.Layout{Height: 500},
	}
	return []views.Section{
		{Title: "🌾 作物产量分析"},
		columns(
			views.Section{Title: "📈 历年产量趋势", Charts: []views.Chart{trend}},
			views.Section{Title: "🎯 产量目标达成率", Charts: []views.Chart{target}},
		),
		{Title: "🔬 产量影响因子分析", Charts: []views.Chart{heat}},
	}
}

// EnvironmentalSeries returns the daily series of metric m over the 30 days
// up to now, from the history source when it has data and simulated
// otherwise. The second value names where the data came from.
func EnvironmentalSeries(ctx context.Context, env *Env, g *mock.Generator, m mock.EnvMetric) ([]entities.Sample, string) {
	now := env.now().UTC()
	if env.History != nil {
		samples, err := env.History.History(ctx, m.Key, now.AddDate(0, 0, -30), now)
		if err != nil {
			env.log().Warnf("analysis: history %s unavailable: %v", m.Key, err)
		} else if len(samples) > 0 {
			return samples, "influxdb"
		}
	}
	return mock.EnvironmentalSeries(g, m, now), "mock"
}

func environmentalAnalysis(ctx context.Context, env *Env) ([]views.Control, []views.Section) {
	names := make([]string, len(mock.EnvMetrics))
	for i, m := range mock.EnvMetrics {
		names[i] = m.Name
	}
	selected := env.opts("metrics", DefaultEnvMetrics, names)
	controls := []views.Control{{Name: "metrics", Label: "选择监测指标", Kind: views.ControlMultiSelect, Options: names, Values: selected}}

	g := env.random()
	var traces []views.Trace
	sources := map[string]bool{}
	for _, name := range selected {
		m, ok := mock.LookupEnvMetric(name)
		if !ok {
			continue
		}
		samples, src := EnvironmentalSeries(ctx, env, g, m)
		sources[src] = true
		x := make([]string, len(samples))
		y := make([]float64, len(samples))
		for i, s := range samples {
			x[i] = s.Time.Format(time.DateOnly)
			y[i] = s.Value
		}
		traces = append(traces, views.Trace{
			Name: fmt.Sprintf("%s(%s)", m.Name, m.Unit), X: x, Y: y, Color: m.Color, Width: 2, Markers: true,
		})
	}

	monitor := views.Section{Title: "🌡️ 环境数据分析"}
	if len(traces) > 0 {
		monitor.Charts = []views.Chart{{
			ID:     "env-trend",
			Title:  "环境监测数据趋势",
			Kind:   views.ChartLine,
			Traces: traces,
			Layout: views.Layout{Height: 500, XTitle: "时间", YTitle: "监测值"},
		}}
		if sources["influxdb"] {
			monitor.Notes = []string{"数据来源: 传感器历史数据"}
		}
	}

	quality := views.Table{
		Columns: []string{"指标", "当前值", "目标值", "状态"},
		Rows: [][]string{
			{"数据完整率", "96.5", "95.0", "优秀"},
			{"异常值比例", "2.1", "3.0", "良好"},
			{"传感器在线率", "94.2", "90.0", "优秀"},
			{"数据时效性", "98.8", "95.0", "优秀"},
		},
	}
	anomalies := views.Chart{
		ID:    "anomalies",
		Title: "近30天异常事件统计",
		Kind:  views.ChartBar,
		Traces: []views.Trace{{
			X:      []string{"温度异常", "pH值异常", "湿度异常", "传感器故障"},
			Y:      []float64{3, 2, 1, 2},
			Colors: []string{"#cb181d", "#fb6a4a", "#fcae91", "#fb6a4a"},
		}},
		Layout: views.Layout{Height: 300},
	}
	return controls, []views.Section{
		monitor,
		columns(
			views.Section{Title: "📊 数据质量统计", Tables: []views.Table{quality}},
			views.Section{Title: "🚨 异常数据统计", Charts: []views.Chart{anomalies}},
		),
	}
}

func profitAnalysis() []views.Section {
	revenue := views.Chart{
		ID:    "revenue-breakdown",
		Title: "收益构成比例(%)",
		Kind:  views.ChartPie,
		Traces: []views.Trace{{
			Labels: []string{"主产品销售", "副产品利用", "政府补贴", "其他收入"},
			Values: []float64{75, 15, 8, 2},
			Colors: []string{"#90EE90", "#98FB98", "#00CED1", "#87CEEB"},
		}},
		Layout: views.Layout{Height: 400},
	}
	items := []string{"种子", "肥料", "农药", "机械", "人工"}
	costs := []float64{150, 300, 100, 200, 50}
	contrib := []float64{20, 35, 15, 20, 10}
	var traces []views.Trace
	for i, it := range items {
		traces = append(traces, views.Trace{
			Name: it, X: []string{itoa(int(costs[i]))}, Y: []float64{contrib[i]}, Sizes: []float64{costs[i] / 10},
		})
	}
	costBenefit := views.Chart{
		ID:     "cost-benefit",
		Title:  "成本投入与产出贡献关系",
		Kind:   views.ChartScatter,
		Traces: traces,
		Layout: views.Layout{Height: 400, XTitle: "成本(元/亩)", YTitle: "产出贡献(%)"},
	}
	return []views.Section{
		{Title: "💰 收益分析", Metrics: []views.Metric{
			{Label: "总收益", Value: "168.5万元", Delta: views.F(12.3)},
			{Label: "平均收益", Value: "1348元/亩", Delta: views.F(125)},
			{Label: "利润率", Value: "68.2%", Delta: views.F(3.5)},
		}},
		columns(
			views.Section{Title: "💹 收益构成分析", Charts: []views.Chart{revenue}},
			views.Section{Title: "📊 成本效益分析", Charts: []views.Chart{costBenefit}},
		),
	}
}

func riskAnalysis() []views.Section {
	radar := views.Chart{
		ID:    "risk-radar",
		Title: "风险评估雷达图",
		Kind:  views.ChartRadar,
		Traces: []views.Trace{{
			Name:  "当前风险水平",
			R:     []float64{25, 15, 30, 10, 12, 18},
			Theta: []string{"自然灾害", "病虫害", "市场波动", "技术风险", "政策风险", "资金风险"},
			Fill:  true,
			Color: "red",
		}},
		Layout: views.Layout{Height: 500, RadialMax: 50},
	}
	events := views.Chart{
		ID:     "risk-events",
		Title:  "月度风险事件统计",
		Kind:   views.ChartLine,
		Traces: []views.Trace{{X: []string{"1月", "2月", "3月", "4月", "5月", "6月"}, Y: []float64{2, 1, 3, 4, 2, 1}, Markers: true}},
		Layout: views.Layout{Height: 300, HideLegend: true},
	}
	effectiveness := []float64{85, 78, 82, 75}
	mitigation := views.Chart{
		ID:    "mitigation",
		Title: "风险缓解措施有效性(%)",
		Kind:  views.ChartBar,
		Traces: []views.Trace{{
			X:      []string{"保险覆盖", "技术培训", "预警系统", "应急预案"},
			Y:      effectiveness,
			Colors: greens(effectiveness),
		}},
		Layout: views.Layout{Height: 300},
	}
	return []views.Section{
		{Title: "⚠️ 风险分析", Charts: []views.Chart{radar}},
		columns(
			views.Section{Title: "📈 风险事件趋势", Charts: []views.Chart{events}},
			views.Section{Title: "🛡️ 风险缓解措施效果", Charts: []views.Chart{mitigation}},
		),
	}
}
