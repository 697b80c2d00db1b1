package pages

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/mock"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/views"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/dashboard/session"
)

var modeButtons = []struct{ mode, label string }{
	{session.ModeDrone, "🛩️ 无人机遥感"},
	{session.ModeSensors, "📡 微传感器网"},
	{session.ModeMultiCrop, "🌱 同田异种"},
	{session.ModePrecision, "🎯 精准管理"},
}

var statusColors = map[entities.PlotStatus]string{
	entities.StatusMultiCrop:   "#28a745",
	entities.StatusPrecision:   "#17a2b8",
	entities.StatusTraditional: "#6c757d",
}

// StatusColor is the card border colour of a plot status.
func StatusColor(s entities.PlotStatus) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return "#6c757d"
}

// IrrigationCommands are the values accepted by the irrigation action.
var IrrigationCommands = map[string]string{
	"start":  "智能灌溉系统已启动",
	"pause":  "灌溉系统已暂停",
	"report": "正在生成灌溉效果报告...",
}

// Plots is the microzone management page. The mode comes from the "mode"
// option, falling back to the session.
func Plots(_ context.Context, env *Env) (views.Page, error) {
	c := env.catalog()
	if len(c.Plots) == 0 {
		return views.Page{}, fmt.Errorf("plots: catalog has no plots")
	}

	active := env.Flags.ActiveMode
	if !session.ValidMode(active) {
		active = session.DefaultMode
	}
	active = env.opt("mode", active, session.Modes...)

	ids := make([]string, 0, len(c.Plots))
	labels := make([]string, 0, len(c.Plots))
	for _, p := range c.Plots {
		ids = append(ids, p.ID)
		labels = append(labels, fmt.Sprintf("%s - %.0f亩 (AI评分:%d)", p.Name, p.Area, p.AIScore))
	}
	plotID := env.opt("plot", ids[0], ids...)
	plot, _ := c.Plot(plotID)

	nav := views.Section{Title: "🚀 核心创新功能"}
	for _, b := range modeButtons {
		nav.Actions = append(nav.Actions, views.Action{
			Label:    b.label,
			Endpoint: "/api/plots/mode",
			Value:    b.mode,
			Primary:  b.mode == active,
		})
	}

	list := views.Section{Title: "📍 智能地块"}
	for _, p := range c.Plots {
		list.Cards = append(list.Cards, plotCard(p))
	}

	var detail views.Section
	switch active {
	case session.ModeDrone:
		detail = droneSection(env, plot)
	case session.ModeSensors:
		detail = sensorsSection(env, plot)
	case session.ModePrecision:
		detail = precisionSection(env, plot)
	default:
		detail = multiCropSection(env, plot)
	}

	return views.Page{
		Title:    "🌾 智能微区管理",
		Subtitle: "无人机遥感+微传感器驱动的精细种植管理",
		Controls: []views.Control{
			{Name: "mode", Label: "管理模式", Kind: views.ControlRadio, Options: session.Modes, Value: active},
			{Name: "plot", Label: "选择智能地块", Kind: views.ControlSelect, Options: ids, Value: plotID, Help: strings.Join(labels, " / ")},
		},
		Sections: []views.Section{nav, columns(list, detail)},
	}, nil
}

func plotCard(p entities.Plot) views.Card {
	return views.Card{
		Title: "🌾 " + p.Name,
		Badge: string(p.Status),
		Color: StatusColor(p.Status),
		Lines: []string{
			fmt.Sprintf("📐 面积: %.0f亩 | 🔬 微区: %d个", p.Area, p.Zones),
			fmt.Sprintf("🛩️ 遥感覆盖: %d%% | 📡 传感器: %d个", p.DroneCoverage, p.SensorDensity),
			fmt.Sprintf("🌱 作物种类: %d种 | 🤖 AI评分: %d", p.CropDiversity, p.AIScore),
		},
	}
}

type pest struct {
	zone, kind, severity string
	confidence           int
	advice               string
}

var pests = []pest{
	{"Z02", "玉米螟", "轻微", 92, "生物防治"},
	{"Z05", "蚜虫", "中等", 88, "化学防治"},
	{"Z07", "叶斑病", "轻微", 95, "预防为主"},
}

var severityColors = map[string]string{"轻微": "green", "中等": "orange", "严重": "red"}

func droneSection(env *Env, plot entities.Plot) views.Section {
	colors := env.catalog().Colors
	g := env.fixed()
	ndvi := mock.NDVIGrid(g)
	soil := mock.SoilSamples(g, 8)

	xs := make([]string, len(ndvi.X))
	for i, v := range ndvi.X {
		xs[i] = f1(v)
	}
	ys := make([]string, len(ndvi.Y))
	for i, v := range ndvi.Y {
		ys[i] = f1(v)
	}
	heat := views.Chart{
		ID:    "ndvi",
		Title: "植被覆盖度热力图",
		Kind:  views.ChartHeatmap,
		Traces: []views.Trace{{
			X: xs, YLabels: ys, Z: ndvi.Z, ColorScale: "RdYlGn", ColorBar: "NDVI值",
		}},
		Layout: views.Layout{Height: 300, XTitle: "东西方向(米)", YTitle: "南北方向(米)"},
	}

	radar := views.Chart{ID: "soil-radar", Kind: views.ChartRadar, Layout: views.Layout{Height: 300, RadialMax: 100}}
	for _, s := range soil {
		if s.Zone == "Z01" || s.Zone == "Z04" || s.Zone == "Z08" {
			radar.Traces = append(radar.Traces, views.Trace{
				Name: s.Zone, R: s.RadarScores(), Theta: mock.SoilAxes, Fill: true, Width: 2,
			})
		}
	}

	var pestCards []views.Card
	for _, p := range pests {
		pestCards = append(pestCards, views.Card{
			Title: fmt.Sprintf("🐛 %s - %s", p.kind, p.zone),
			Color: severityColors[p.severity],
			Lines: []string{
				fmt.Sprintf("严重程度: %s | 置信度: %d%%", p.severity, p.confidence),
				"建议: " + p.advice,
			},
		})
	}
	health := views.Chart{
		ID:    "health",
		Title: "地块健康度分布",
		Kind:  views.ChartPie,
		Traces: []views.Trace{{
			Labels: []string{"健康", "轻微异常", "需要关注", "严重问题"},
			Values: []float64{70, 20, 8, 2},
			Colors: []string{"#28a745", "#ffc107", "#fd7e14", "#dc3545"},
		}},
		Layout: views.Layout{Height: 250},
	}

	return views.Section{
		Title: fmt.Sprintf("🛩️ %s - 无人机遥感", plot.Name),
		Metrics: []views.Metric{
			CompactMetric(colors, "覆盖率", fmt.Sprintf("%d%%", plot.DroneCoverage), "#28a745"),
			CompactMetric(colors, "最新飞行", "2小时前", "#17a2b8"),
			CompactMetric(colors, "数据质量", "优秀", "#28a745"),
		},
		Sections: []views.Section{tabs(
			views.Section{Title: "植被指数", Charts: []views.Chart{heat}, Alerts: []views.Alert{
				{Level: views.AlertInfo, Title: "🌱 高NDVI区域 (>0.7)", Text: "适合高产作物种植"},
				{Level: views.AlertWarning, Title: "🟡 中NDVI区域 (0.4-0.7)", Text: "需要精准施肥管理"},
			}},
			views.Section{Title: "土壤分析", Notes: []string{"高光谱土壤成分检测"}, Charts: []views.Chart{radar}},
			views.Section{Title: "病虫害识别", Sections: []views.Section{
				{Cards: pestCards},
				{Charts: []views.Chart{health}},
			}},
		)},
	}
}

// ParamStat is the mean and sample deviation of one sensor parameter.
type ParamStat struct {
	Label string
	Unit  string
	Mean  float64
	Std   float64
}

// SensorStats summarises the grid per parameter, in display order.
func SensorStats(grid []entities.SensorReading) []ParamStat {
	pick := func(f func(entities.SensorReading) float64) []float64 {
		out := make([]float64, len(grid))
		for i, r := range grid {
			out[i] = f(r)
		}
		return out
	}
	cols := []struct {
		label, unit string
		values      []float64
	}{
		{"温度", "°C", pick(func(r entities.SensorReading) float64 { return r.Temperature })},
		{"湿度", "%", pick(func(r entities.SensorReading) float64 { return r.Humidity })},
		{"pH值", "", pick(func(r entities.SensorReading) float64 { return r.PH })},
		{"盐碱度", "‰", pick(func(r entities.SensorReading) float64 { return r.Salinity })},
		{"电导率", "mS/cm", pick(func(r entities.SensorReading) float64 { return r.EC })},
	}
	out := make([]ParamStat, 0, len(cols))
	for _, c := range cols {
		out = append(out, ParamStat{Label: c.label, Unit: c.unit, Mean: mock.Mean(c.values), Std: mock.StdDev(c.values)})
	}
	return out
}

var sensorStatusColors = map[entities.SensorStatus]string{
	entities.SensorNormal:  "green",
	entities.SensorWarning: "orange",
	entities.SensorFault:   "red",
}

func sensorsSection(env *Env, plot entities.Plot) views.Section {
	colors := env.catalog().Colors
	g := env.random()
	grid := mock.SensorGrid(g, plot.Zones)

	// una traccia per stato
	byStatus := map[entities.SensorStatus]*views.Trace{}
	var order []entities.SensorStatus
	for _, r := range grid {
		t, ok := byStatus[r.Status]
		if !ok {
			t = &views.Trace{Name: string(r.Status), Color: sensorStatusColors[r.Status]}
			byStatus[r.Status] = t
			order = append(order, r.Status)
		}
		t.Lat = append(t.Lat, r.Latitude)
		t.Lon = append(t.Lon, r.Longitude)
		t.Sizes = append(t.Sizes, r.Temperature/2)
		t.Text = append(t.Text, fmt.Sprintf("%s<br>%s | %.1f°C | %.1f%% | pH %.1f", r.ID, r.Zone, r.Temperature, r.Humidity, r.PH))
	}
	sensorMap := views.Chart{
		ID:     "sensor-map",
		Title:  "传感器网络分布",
		Kind:   views.ChartMap,
		Layout: views.Layout{Height: 350, Zoom: 16, CenterLat: 39.9042, CenterLon: 116.4074},
	}
	for _, s := range order {
		sensorMap.Traces = append(sensorMap.Traces, *byStatus[s])
	}

	var statCards []views.Card
	for _, st := range SensorStats(grid) {
		statCards = append(statCards, views.Card{
			Title: st.Label,
			Text:  fmt.Sprintf("均值: %.1f%s ±%.1f", st.Mean, st.Unit, st.Std),
		})
	}

	var alerts []views.Alert
	for _, r := range grid {
		if r.Status != entities.SensorNormal {
			alerts = append(alerts, views.Alert{Level: views.AlertWarning, Text: fmt.Sprintf("⚠️ %s: %s", r.ID, r.Status)})
		}
	}
	if len(alerts) == 0 {
		alerts = []views.Alert{{Level: views.AlertSuccess, Text: "✅ 所有传感器运行正常"}}
	}

	trend := mock.DailyTrend(g, env.now())
	hours := make([]string, len(trend))
	temp := make([]float64, len(trend))
	hum := make([]float64, len(trend))
	for i, p := range trend {
		hours[i] = p.Time.Format("01-02 15:04")
		temp[i] = mock.Round(p.Temperature, 2)
		hum[i] = mock.Round(p.Humidity, 2)
	}
	trendChart := views.Chart{
		ID:    "trend-24h",
		Title: "24小时环境参数趋势",
		Kind:  views.ChartLine,
		Traces: []views.Trace{
			{Name: "温度(°C)", X: hours, Y: temp, Color: "red", Width: 2},
			{Name: "湿度(%)", X: hours, Y: hum, Color: "blue", Width: 2, SecondAxis: true},
		},
		Layout: views.Layout{Height: 300, XTitle: "时间", YTitle: "温度(°C)", Y2Title: "湿度(%)"},
	}

	return views.Section{
		Title: fmt.Sprintf("📡 %s - 微传感器网络", plot.Name),
		Metrics: []views.Metric{
			CompactMetric(colors, "传感器总数", fmt.Sprintf("%d个", plot.SensorDensity), "#17a2b8"),
			CompactMetric(colors, "在线数量", fmt.Sprintf("%d个", plot.OnlineSensors()), "#28a745"),
			CompactMetric(colors, "数据密度", "2米/个", "#6f42c1"),
			CompactMetric(colors, "更新频率", "5分钟", "#fd7e14"),
		},
		Sections: []views.Section{
			{Title: "📊 实时环境监测", Sections: []views.Section{
				{Charts: []views.Chart{sensorMap}},
				{Title: "环境参数统计", Cards: statCards, Sections: []views.Section{{Title: "异常告警", Alerts: alerts}}},
			}},
			{Title: "📈 历史趋势分析", Charts: []views.Chart{trendChart}},
		},
	}
}

// CropShare is the zone count and mean yield of one crop in an allocation.
type CropShare struct {
	Crop      string
	Zones     int
	MeanYield float64
}

// Shares groups an allocation by crop in allocator order, skipping absent crops.
func Shares(zones []entities.Zone) []CropShare {
	var out []CropShare
	for _, crop := range mock.AllocatedCrops {
		var ys []float64
		for _, z := range zones {
			if z.Crop == crop {
				ys = append(ys, z.ExpectedYield)
			}
		}
		if len(ys) > 0 {
			out = append(out, CropShare{Crop: crop, Zones: len(ys), MeanYield: mock.Mean(ys)})
		}
	}
	return out
}

func multiCropSection(env *Env, plot entities.Plot) views.Section {
	colors := env.catalog().Colors
	g := env.fixed()
	zones := mock.AllocateZones(g, plot.Zones)
	econ := mock.Economics(g, zones)

	allocation := views.Chart{
		ID:     "allocation",
		Title:  "微区作物智能分配图",
		Kind:   views.ChartMap,
		Layout: views.Layout{Height: 400, Zoom: 15, CenterLat: 39.9042, CenterLon: 116.4074},
	}
	for _, crop := range mock.AllocatedCrops {
		t := views.Trace{Name: crop, Color: mock.CropColors[crop]}
		for _, z := range zones {
			if z.Crop != crop {
				continue
			}
			t.Lat = append(t.Lat, z.Latitude)
			t.Lon = append(t.Lon, z.Longitude)
			t.Sizes = append(t.Sizes, z.ExpectedYield/40)
			t.Text = append(t.Text, fmt.Sprintf("%s<br>%s | %s<br>土壤评分: %.2f | 预期产量: %.0f", z.ID, z.Crop, z.Variety, z.SoilScore, z.ExpectedYield))
		}
		if len(t.Lat) > 0 {
			allocation.Traces = append(allocation.Traces, t)
		}
	}

	shares := Shares(zones)
	// value_counts: più frequente prima
	byCount := append([]CropShare(nil), shares...)
	sort.SliceStable(byCount, func(i, j int) bool { return byCount[i].Zones > byCount[j].Zones })
	pie := views.Chart{ID: "allocation-pie", Title: "作物面积分配", Kind: views.ChartPie, Layout: views.Layout{Height: 200}}
	pieTrace := views.Trace{}
	for _, s := range byCount {
		pieTrace.Labels = append(pieTrace.Labels, s.Crop)
		pieTrace.Values = append(pieTrace.Values, float64(s.Zones))
		pieTrace.Colors = append(pieTrace.Colors, mock.CropColors[s.Crop])
	}
	pie.Traces = []views.Trace{pieTrace}

	var yieldCards []views.Card
	for _, s := range shares {
		yieldCards = append(yieldCards, views.Card{
			Title: s.Crop,
			Color: mock.CropColors[s.Crop],
			Text:  fmt.Sprintf("微区数: %d | 平均产量: %.0fkg/亩", s.Zones, s.MeanYield),
		})
	}

	table := views.Table{Columns: []string{"微区", "作物", "品种", "生长期", "土壤评分", "预期产量", "投入成本", "预期收益", "管理建议"}}
	for _, e := range econ {
		z := e.Zone
		table.Rows = append(table.Rows, []string{
			z.ID, z.Crop, z.Variety, z.GrowthStage, f2(z.SoilScore),
			fmt.Sprintf("%.0f", z.ExpectedYield), fmt.Sprintf("%.0f", e.Cost), fmt.Sprintf("%.0f", e.Revenue), e.Advice,
		})
	}

	return views.Section{
		Title: fmt.Sprintf("🌱 %s - 同田异种精准管理", plot.Name),
		Metrics: []views.Metric{
			CompactMetric(colors, "作物种类", fmt.Sprintf("%d种", plot.CropDiversity), "#28a745"),
			CompactMetric(colors, "种植模式", "差异化", "#17a2b8"),
			CompactMetric(colors, "多样性指数", fmt.Sprint(plot.DiversityIndex()), "#6f42c1"),
			CompactMetric(colors, "预期增产", "+15%", "#fd7e14"),
		},
		Sections: []views.Section{
			{Title: "🗺️ 微区作物智能分配", Sections: []views.Section{
				{Charts: []views.Chart{allocation}},
				{Title: "作物分配统计", Charts: []views.Chart{pie}, Sections: []views.Section{{Title: "预期收益分析", Cards: yieldCards}}},
			}},
			{Title: "📋 微区管理详情", Tables: []views.Table{table}},
			{Title: "🤖 AI优化建议", Sections: []views.Section{
				{Alerts: []views.Alert{
					{Level: views.AlertSuccess, Title: "🎯 优化策略", Text: "Z02、Z06微区土壤条件优秀，建议种植高产玉米\nZ03、Z07微区适合豆科作物，可提升土壤肥力\n建议轮作方案：玉米-大豆-向日葵循环"},
					{Level: views.AlertInfo, Title: "📊 数据驱动洞察", Text: "当前配置预期增产15%\n多样性种植降低风险30%\n建议投入传感器密度+20%"},
				}},
				{Alerts: []views.Alert{
					{Level: views.AlertWarning, Title: "⚠️ 注意事项", Text: "Z05微区盐碱度偏高，需加强改良\n相邻作物需考虑病虫害传播\n建议设置隔离带防止杂交"},
				}, Notes: []string{"🔄 动态调整: 根据生长监测数据实时调整；市场价格变化时优化种植结构；气候异常时启动应急预案"}},
			}},
		},
	}
}

type protection struct {
	zone, risk  string
	probability float64 // %
	measure     string
	cost        string
}

var protections = []protection{
	{"Z02", "玉米螟", 15, "生物防治", "50元/亩"},
	{"Z05", "蚜虫", 25, "天敌释放", "30元/亩"},
	{"Z07", "叶斑病", 8, "预防喷药", "25元/亩"},
}

// ProtectionRisk: >20% 高, >10% 中, else 低.
func ProtectionRisk(probability float64) (string, string) {
	switch {
	case probability > 20:
		return "高", "#dc3545"
	case probability > 10:
		return "中", "#ffc107"
	default:
		return "低", "#28a745"
	}
}

func precisionSection(env *Env, plot entities.Plot) views.Section {
	colors := env.catalog().Colors
	g := env.fixed()
	fert := mock.FertilizationMap(g, plot.Zones)
	irrigation := mock.IrrigationPlan(g, plot.Zones)
	harvest := mock.HarvestPlan(g, plot.Zones)

	fertMap := views.Chart{
		ID:     "fertilization",
		Title:  "氮肥需求分布",
		Kind:   views.ChartMap,
		Layout: views.Layout{Height: 300, Zoom: 15, CenterLat: 39.9042, CenterLon: 116.4074},
	}
	ft := views.Trace{Name: "氮肥(kg)", ColorScale: "RdYlGn_r"}
	var totN, totP, totK, totCost []float64
	maxN := 0.0
	for _, f := range fert {
		maxN = max(maxN, f.Nitrogen)
	}
	for _, f := range fert {
		ft.Lat = append(ft.Lat, f.Latitude)
		ft.Lon = append(ft.Lon, f.Longitude)
		ft.Sizes = append(ft.Sizes, 6+f.Cost/100)
		ft.Colors = append(ft.Colors, nitrogenColor(f.Nitrogen, maxN))
		ft.Text = append(ft.Text, fmt.Sprintf("%s<br>N %.1f | P %.1f | K %.1f<br>成本 %.0f元", f.Zone, f.Nitrogen, f.Phosphorus, f.Potassium, f.Cost))
		totN = append(totN, f.Nitrogen)
		totP = append(totP, f.Phosphorus)
		totK = append(totK, f.Potassium)
		totCost = append(totCost, f.Cost)
	}
	fertMap.Traces = []views.Trace{ft}
	fertTab := views.Section{
		Title: "变量施肥",
		Sections: []views.Section{
			{Title: "🧪 变量施肥处方图", Charts: []views.Chart{fertMap}},
			{Cards: []views.Card{
				{Title: "施肥总用量", Lines: []string{
					fmt.Sprintf("氮肥: %.1f kg", mock.Sum(totN)),
					fmt.Sprintf("磷肥: %.1f kg", mock.Sum(totP)),
					fmt.Sprintf("钾肥: %.1f kg", mock.Sum(totK)),
					fmt.Sprintf("总成本: %.0f 元", mock.Sum(totCost)),
				}},
				{Title: "节约效果", Lines: []string{"比传统施肥节约: 18%", "减少环境污染: 25%", "提高利用效率: 22%"}},
			}},
		},
	}

	irrTable := views.Table{Columns: []string{"微区", "当前含水量", "目标含水量", "灌溉需求", "灌水量", "下次灌溉"}}
	for _, r := range irrigation {
		irrTable.Rows = append(irrTable.Rows, []string{
			r.Zone, f1(r.CurrentMoisture), fmt.Sprintf("%.0f", r.TargetMoisture), r.Need, itoa(r.WaterAmount), r.NextIrrigation,
		})
	}
	irrTab := views.Section{
		Title:  "精准灌溉",
		Notes:  []string{"💧 精准灌溉控制"},
		Tables: []views.Table{irrTable},
		Actions: []views.Action{
			{Label: "🚿 启动智能灌溉", Endpoint: "/api/plots/irrigation", Value: "start", Primary: true, Plot: plot.ID},
			{Label: "⏸️ 暂停灌溉", Endpoint: "/api/plots/irrigation", Value: "pause", Plot: plot.ID},
			{Label: "📊 生成灌溉报告", Endpoint: "/api/plots/irrigation", Value: "report", Plot: plot.ID},
		},
	}

	var protCards []views.Card
	for _, p := range protections {
		level, color := ProtectionRisk(p.probability)
		protCards = append(protCards, views.Card{
			Title: fmt.Sprintf("🛡️ %s - %s", p.zone, p.risk),
			Color: color,
			Lines: []string{
				fmt.Sprintf("预测概率: %.0f%% | 风险等级: %s", p.probability, level),
				fmt.Sprintf("建议措施: %s | 预计成本: %s", p.measure, p.cost),
			},
		})
	}
	protTab := views.Section{Title: "智能植保", Notes: []string{"🛡️ 智能植保方案"}, Cards: protCards}

	harvestTable := views.Table{Columns: []string{"微区", "成熟度", "状态", "预计收获", "预期产量"}}
	for _, h := range harvest {
		harvestTable.Rows = append(harvestTable.Rows, []string{
			h.Zone, fmt.Sprintf("%.1f%%", h.Maturity), h.Status, h.EstimatedDate, fmt.Sprintf("%.0fkg/亩", h.ExpectedYield),
		})
	}
	harvestTab := views.Section{
		Title:  "收获优化",
		Notes:  []string{"🌾 智能收获优化"},
		Tables: []views.Table{harvestTable},
		Alerts: []views.Alert{{Level: views.AlertInfo, Title: "🚜 收获路径优化建议:",
			Text: "1. 优先收获Z01、Z03、Z06（成熟度>90%）\n2. 建议收获路径：Z01→Z03→Z06→Z02→Z05\n3. 预计总收获时间：3天，节约燃料15%"}},
	}

	return views.Section{
		Title: fmt.Sprintf("🎯 %s - 精准管理系统", plot.Name),
		Metrics: []views.Metric{
			CompactMetric(colors, "精准度", "98.5%", "#28a745"),
			CompactMetric(colors, "资源利用率", "95.2%", "#17a2b8"),
			CompactMetric(colors, "成本节约", "22%", "#fd7e14"),
			CompactMetric(colors, "环境友好", "A级", "#28a745"),
		},
		Sections: []views.Section{{Title: "🚜 精准作业控制", Sections: []views.Section{tabs(fertTab, irrTab, protTab, harvestTab)}}},
	}
}

// nitrogenColor runs green (low need) to red (high need).
func nitrogenColor(n, top float64) string {
	t := 0.0
	if top > 0 {
		t = n / top
	}
	r := 0x1a + t*(0xd7-0x1a)
	g := 0x98 + t*(0x30-0x98)
	b := 0x50 + t*(0x27-0x50)
	return fmt.Sprintf("#%02x%02x%02x", int(r), int(g), int(b))
}
