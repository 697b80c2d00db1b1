package pages

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/catalog"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/views"
)

var (
	plantingTips = []string{
		"🌱 播种时间: 3月下旬至4月上旬，土温稳定在10°C以上",
		"🌱 播种深度: 3-5cm，覆土厚度2-3cm",
		"🌱 株行距: 行距60cm，株距25-30cm",
		"🌱 种植密度: 每亩3500-4000株",
		"🌱 选地要求: 排水良好，pH值6.0-7.5",
	}
	fieldTips = []string{
		"💧 灌溉管理: 拔节期、抽穗期、灌浆期适时浇水",
		"🌿 施肥管理: 基肥+追肥结合，注意氮磷钾配比",
		"🔪 中耕除草: 出苗后及时中耕，保持土壤疏松",
		"✂️ 整枝打杈: 及时摘除无效分蘖和病弱枝",
		"🌡️ 温度调控: 适宜生长温度18-25°C",
	}
	diseaseTips = []string{
		"🦠 大斑病 - 喷施三唑酮",
		"🦠 小斑病 - 使用代森锰锌",
		"🦠 纹枯病 - 井冈霉素防治",
		"🦠 锈病 - 三唑类杀菌剂",
	}
	pestTips = []string{
		"🐛 玉米螟 - 苏云金杆菌",
		"🐛 蚜虫 - 吡虫啉防治",
		"🐛 地老虎 - 辛硫磷颗粒",
		"🐛 红蜘蛛 - 阿维菌素",
	}
	harvestTips = []string{
		"📅 收获时机: 籽粒含水量25-30%时适时收获",
		"🚜 收获方式: 机械收获为主，人工收获为辅",
		"☀️ 晾晒干燥: 收获后及时晾晒，水分降至14%以下",
		"📦 储存管理: 通风干燥处储存，防虫防霉",
		"🏭 加工利用: 可用于饲料、食品、工业原料",
	}
)

// CropActions are the buttons at the bottom of the crop page, keyed by the
// value posted to /api/crop/action, with the message each one answers.
var CropActions = map[string]string{
	"report": "正在生成详细分析报告...",
	"save":   "种植方案已保存",
	"expert": "正在联系农技专家...",
}

// ResolveVariety keeps variety only when it belongs to category; otherwise
// the first variety of the category is used. Unknown categories fall back to
// the first one.
func ResolveVariety(c *catalog.Catalog, category, variety string) (string, string) {
	names := c.CategoryNames()
	if len(names) == 0 {
		return "", ""
	}
	cat, ok := c.Category(category)
	if !ok {
		cat, _ = c.Category(names[0])
	}
	if len(cat.Varieties) == 0 {
		return cat.Name, ""
	}
	if contains(cat.Varieties, variety) {
		return cat.Name, variety
	}
	return cat.Name, cat.Varieties[0]
}

// ProfileKey is the crop name of a variety label such as "玉米 郑单958".
func ProfileKey(variety string) string {
	fields := strings.Fields(variety)
	if len(fields) == 0 {
		return catalog.FallbackCrop
	}
	return fields[0]
}

// Crop is the crop detail page.
func Crop(_ context.Context, env *Env) (views.Page, error) {
	c := env.catalog()
	colors := c.Colors

	category, variety := ResolveVariety(c, env.Options.Get("category"), env.Options.Get("variety"))
	var varieties []string
	if cat, ok := c.Category(category); ok {
		varieties = cat.Varieties
	}
	condition := ""
	if len(c.PlotConditions) > 0 {
		condition = env.opt("condition", c.PlotConditions[0], c.PlotConditions...)
	}

	page := views.Page{
		Title:    "🌾 作物详情",
		Subtitle: "作物品种分析与种植指导",
		Controls: []views.Control{
			{Name: "category", Label: "作物类别", Kind: views.ControlSelect, Options: c.CategoryNames(), Value: category},
			{Name: "variety", Label: "品种选择", Kind: views.ControlSelect, Options: varieties, Value: variety},
			{Name: "condition", Label: "地块条件", Kind: views.ControlSelect, Options: c.PlotConditions, Value: condition},
		},
	}
	if variety == "" {
		page.Sections = []views.Section{{Alerts: []views.Alert{{Level: views.AlertInfo, Text: "请选择作物类别和品种"}}}}
		return page, nil
	}

	profile := c.CropProfile(ProfileKey(variety))
	score := env.random().IntN(75, 95)
	band, _ := SuitabilityBand(colors, score)

	basics := views.Section{
		Title: "📋 " + variety + " 基本信息",
		Metrics: []views.Metric{
			CompactMetric(colors, "生长周期", profile.Cycle, ""),
			CompactMetric(colors, "预期产量", profile.Yield, ""),
			CompactMetric(colors, "预期收益", profile.Revenue, ""),
			CompactMetric(colors, "种植成本", profile.Cost, ""),
		},
		Cards: []views.Card{{
			Title:    fmt.Sprintf("🎯 地块匹配度: %d%%", score),
			Text:     band + "当前地块条件",
			Color:    colors.Success,
			Progress: views.I(score),
		}},
	}

	radar := views.Chart{
		ID:   "adaptability",
		Kind: views.ChartRadar,
		Traces: []views.Trace{
			{Name: "当前条件", R: []float64{85, 90, 80, 88, 92}, Theta: cropAxes, Fill: true, Color: "blue"},
			{Name: "最佳条件", R: []float64{95, 95, 95, 95, 95}, Theta: cropAxes, Fill: true, Color: "green"},
		},
		Layout: views.Layout{Height: 250, RadialMax: 100},
	}
	revenue := views.Chart{
		ID:     "revenue",
		Kind:   views.ChartPie,
		Traces: []views.Trace{{Labels: []string{"销售收入", "政府补贴", "其他收入"}, Values: []float64{1200, 200, 100}}},
		Layout: views.Layout{Height: 200},
	}
	cost := views.Chart{
		ID:   "cost",
		Kind: views.ChartBar,
		Traces: []views.Trace{{
			X:      []string{"种子", "肥料", "农药", "人工", "其他"},
			Y:      []float64{200, 180, 150, 200, 70},
			Colors: []string{"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A"},
		}},
		Layout: views.Layout{Height: 200, HideLegend: true},
	}
	price := views.Chart{
		ID:   "price",
		Kind: views.ChartLine,
		Traces: []views.Trace{{
			Name: "价格趋势", X: []string{"1月", "2月", "3月", "4月", "5月", "6月"},
			Y: []float64{4.8, 5.2, 4.9, 5.1, 5.5, 5.3}, Color: "orange", Width: 2, Markers: true,
		}},
		Layout: views.Layout{Height: 180, YTitle: "价格(元/kg)", HideLegend: true},
	}

	analysis := columns(
		views.Section{Sections: []views.Section{
			{Title: "🌱 环境适应性", Charts: []views.Chart{radar}},
			{Title: "💰 收益分析", Charts: []views.Chart{revenue}},
		}},
		views.Section{Sections: []views.Section{
			{Title: "💸 成本构成", Charts: []views.Chart{cost}},
			{Title: "📈 市场分析", Charts: []views.Chart{price}},
		}},
	)

	guidance := tabs(
		views.Section{Title: "种植技术", Notes: plantingTips},
		views.Section{Title: "田间管理", Notes: fieldTips},
		views.Section{Title: "病虫害防治", Sections: []views.Section{
			{Title: "主要病害", Notes: diseaseTips},
			{Title: "主要虫害", Notes: pestTips},
		}},
		views.Section{Title: "收获加工", Notes: harvestTips},
	)

	risks := views.Section{
		Title: "⚠️ 风险评估",
		Tables: []views.Table{{
			Columns: []string{"风险因素", "风险等级", "影响程度", "防范措施"},
			Rows: [][]string{
				{"天气风险", "中", "较大", "天气预报监测，适时调整"},
				{"病虫害", "低", "一般", "定期检查，预防为主"},
				{"市场风险", "中", "较大", "合同种植，期货套保"},
				{"技术风险", "低", "较小", "技术培训，专家指导"},
				{"资金风险", "低", "一般", "合理预算，分期投入"},
			},
		}},
	}

	reload := "/pages/crop?" + url.Values{
		"category":  {category},
		"variety":   {variety},
		"condition": {condition},
	}.Encode()
	actions := views.Section{
		Actions: []views.Action{
			{Label: "📊 生成报告", Endpoint: "/api/crop/action", Value: "report"},
			{Label: "💾 保存方案", Endpoint: "/api/crop/action", Value: "save"},
			{Label: "📞 专家咨询", Endpoint: "/api/crop/action", Value: "expert"},
		},
		Links: []views.Link{{Label: "🔄 重新分析", Href: reload}},
	}

	page.Sections = []views.Section{
		basics,
		analysis,
		{Title: "📖 技术指导", Sections: []views.Section{guidance}},
		risks,
		actions,
	}
	return page, nil
}

var cropAxes = []string{"温度", "pH", "水分", "养分", "盐碱度"}
