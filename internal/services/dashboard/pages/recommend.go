package pages

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/catalog"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/views"
)

var ErrInvalidConfig = errors.New("invalid recommendation config")

const (
	DataModeAuto   = "auto"
	DataModeManual = "manual"
)

// RecommendConfig is the recommendation form. Tags serve both the query
// string of the page and the POST body of the actions.
type RecommendConfig struct {
	Plot       string `form:"plot" json:"plot"`
	Season     string `form:"season" json:"season"`
	TargetUse  string `form:"target_use" json:"target_use"`
	Risk       string `form:"risk" json:"risk"`
	Budget     int    `form:"budget" json:"budget" binding:"omitempty,min=500,max=5000"`
	YieldPref  string `form:"yield_pref" json:"yield_pref"`
	SensorID   string `form:"sensor_id" json:"sensor_id"`
	SensorType string `form:"sensor_type" json:"sensor_type"`
	DataMode   string `form:"data_mode" json:"data_mode" binding:"omitempty,oneof=auto manual"`

	// valori manuali
	Temperature   float64 `form:"temperature" json:"temperature"`
	Humidity      float64 `form:"humidity" json:"humidity"`
	PH            float64 `form:"ph_value" json:"ph_value"`
	Salinity      float64 `form:"salinity" json:"salinity"`
	Nitrogen      float64 `form:"nitrogen" json:"nitrogen"`
	Phosphorus    float64 `form:"phosphorus" json:"phosphorus"`
	Potassium     float64 `form:"potassium" json:"potassium"`
	OrganicMatter float64 `form:"organic_matter" json:"organic_matter"`
}

// DefaultConfig is the form as first shown: first option of every list,
// budget 1500, sensor S001-A1, automatic data and the reference readings.
func DefaultConfig(c *catalog.Catalog) RecommendConfig {
	first := func(xs []string) string {
		if len(xs) == 0 {
			return ""
		}
		return xs[0]
	}
	return RecommendConfig{
		Plot:          first(c.PlotOptions),
		Season:        first(c.Seasons),
		TargetUse:     first(c.TargetUses),
		Risk:          first(c.RiskPreferences),
		Budget:        1500,
		YieldPref:     first(c.YieldPreferences),
		SensorID:      "S001-A1",
		SensorType:    first(c.Sensors.SupportedTypes),
		DataMode:      DataModeAuto,
		Temperature:   18.5,
		Humidity:      65.2,
		PH:            6.8,
		Salinity:      0.35,
		Nitrogen:      45.2,
		Phosphorus:    28.1,
		Potassium:     156.8,
		OrganicMatter: 2.8,
	}
}

// ConfigFromValues overlays v on the defaults. Unparseable numbers keep the default.
func ConfigFromValues(c *catalog.Catalog, v url.Values) RecommendConfig {
	cfg := DefaultConfig(c)
	str := func(dst *string, key string) {
		if s := strings.TrimSpace(v.Get(key)); s != "" {
			*dst = s
		}
	}
	num := func(dst *float64, key string) {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.Get(key)), 64); err == nil {
			*dst = f
		}
	}
	str(&cfg.Plot, "plot")
	str(&cfg.Season, "season")
	str(&cfg.TargetUse, "target_use")
	str(&cfg.Risk, "risk")
	str(&cfg.YieldPref, "yield_pref")
	str(&cfg.SensorID, "sensor_id")
	str(&cfg.SensorType, "sensor_type")
	str(&cfg.DataMode, "data_mode")
	if b, err := strconv.Atoi(strings.TrimSpace(v.Get("budget"))); err == nil {
		cfg.Budget = b
	}
	num(&cfg.Temperature, "temperature")
	num(&cfg.Humidity, "humidity")
	num(&cfg.PH, "ph_value")
	num(&cfg.Salinity, "salinity")
	num(&cfg.Nitrogen, "nitrogen")
	num(&cfg.Phosphorus, "phosphorus")
	num(&cfg.Potassium, "potassium")
	num(&cfg.OrganicMatter, "organic_matter")
	return cfg
}

// SensorValue is one environmental reading as displayed and validated.
type SensorValue struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Status string  `json:"status"`
}

// referenceReadings are shown in automatic mode until live data is synced.
var referenceReadings = []SensorValue{
	{"temperature", "温度", 18.5, "°C", "正常"},
	{"humidity", "湿度", 65.2, "%", "正常"},
	{"ph_value", "pH值", 6.8, "", "偏碱"},
	{"salinity", "盐碱度", 0.35, "‰", "轻微"},
	{"nitrogen", "氮含量", 45.2, "mg/kg", "中等"},
	{"phosphorus", "磷含量", 28.1, "mg/kg", "充足"},
	{"potassium", "钾含量", 156.8, "mg/kg", "丰富"},
	{"organic_matter", "有机质", 2.8, "%", "良好"},
}

// ReferenceReadings returns a copy of the mock sensor readings.
func ReferenceReadings() []SensorValue {
	return append([]SensorValue(nil), referenceReadings...)
}

// ManualReadings turns the manual inputs into readings labelled by the catalog ranges.
func (cfg RecommendConfig) ManualReadings(c *catalog.Catalog) []SensorValue {
	values := map[string]float64{
		"temperature":    cfg.Temperature,
		"humidity":       cfg.Humidity,
		"ph_value":       cfg.PH,
		"salinity":       cfg.Salinity,
		"nitrogen":       cfg.Nitrogen,
		"phosphorus":     cfg.Phosphorus,
		"potassium":      cfg.Potassium,
		"organic_matter": cfg.OrganicMatter,
	}
	out := make([]SensorValue, 0, len(values))
	for _, r := range c.Sensors.Ranges {
		v, ok := values[r.Key]
		if !ok {
			continue
		}
		out = append(out, SensorValue{Key: r.Key, Label: r.Label, Value: v, Unit: r.Unit, Status: "手动"})
	}
	return out
}

// LiveValues converts a live reading; metrics the sensor did not report are left out.
func LiveValues(r entities.SensorReading) []SensorValue {
	var out []SensorValue
	add := func(m entities.Metric, key, label, unit string, v float64) {
		if r.Has(m) {
			out = append(out, SensorValue{Key: key, Label: label, Value: v, Unit: unit, Status: "实时"})
		}
	}
	add(entities.MetricTemperature, "temperature", "温度", "°C", r.Temperature)
	add(entities.MetricHumidity, "humidity", "湿度", "%", r.Humidity)
	add(entities.MetricPH, "ph_value", "pH值", "", r.PH)
	add(entities.MetricSalinity, "salinity", "盐碱度", "‰", r.Salinity)
	add(entities.MetricMoisture, "moisture", "土壤含水率", "%", r.Moisture)
	return out
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// ValidateConfig checks the form against the catalog and every reading
// against its sensor range. Readings without a range are not checked.
func ValidateConfig(c *catalog.Catalog, cfg RecommendConfig, readings []SensorValue) error {
	var errs []error
	check := func(field, v string, allowed []string) {
		if !contains(allowed, v) {
			errs = append(errs, fmt.Errorf("%s: %q is not an option", field, v))
		}
	}
	check("plot", cfg.Plot, c.PlotOptions)
	check("season", cfg.Season, c.Seasons)
	check("target_use", cfg.TargetUse, c.TargetUses)
	check("risk", cfg.Risk, c.RiskPreferences)
	check("yield_pref", cfg.YieldPref, c.YieldPreferences)
	check("sensor_type", cfg.SensorType, c.Sensors.SupportedTypes)
	if cfg.Budget < 500 || cfg.Budget > 5000 || cfg.Budget%100 != 0 {
		errs = append(errs, fmt.Errorf("budget: %d outside 500-5000 step 100", cfg.Budget))
	}
	if strings.TrimSpace(cfg.SensorID) == "" {
		errs = append(errs, errors.New("sensor_id: empty"))
	}
	if cfg.DataMode != DataModeAuto && cfg.DataMode != DataModeManual {
		errs = append(errs, fmt.Errorf("data_mode: %q", cfg.DataMode))
	}
	for _, r := range readings {
		rng, ok := c.Range(r.Key)
		if !ok {
			continue
		}
		if !rng.Contains(r.Value) {
			errs = append(errs, fmt.Errorf("%s: %g outside [%g, %g]%s", rng.Label, r.Value, rng.Min, rng.Max, rng.Unit))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// CurrentReadings picks what the form shows and validates: the manual
// inputs, the synced live reading of the configured sensor (or the first one),
// or the reference readings. The second result names the source.
func CurrentReadings(ctx context.Context, env *Env, cfg RecommendConfig) ([]SensorValue, string) {
	c := env.catalog()
	if cfg.DataMode == DataModeManual {
		return cfg.ManualReadings(c), "manual"
	}
	if env.Flags.SensorSynced && env.Live != nil {
		rs, src, err := env.Live.Latest(ctx)
		if err != nil {
			env.log().Warnf("recommend: live readings unavailable: %v", err)
		}
		if len(rs) > 0 {
			pick := rs[0]
			for _, r := range rs {
				if r.ID == cfg.SensorID {
					pick = r
					break
				}
			}
			if vals := LiveValues(pick); len(vals) > 0 {
				return vals, src
			}
		}
	}
	return ReferenceReadings(), "mock"
}

func readingColor(status string) string {
	switch {
	case status == "正常" || status == "实时":
		return "#28a745"
	case strings.Contains(status, "轻微") || strings.Contains(status, "中等"):
		return "#ffc107"
	default:
		return "#17a2b8"
	}
}

// detailOptions are the crops of the detailed plan selector.
var detailOptions = []string{"🌽 玉米 - 郑单958", "🌿 大豆 - 东农42", "🌻 向日葵 - 三瑞3号"}

// CropFromDetail extracts the crop name from a selector label like "🌽 玉米 - 郑单958".
func CropFromDetail(label string) string {
	head, _, _ := strings.Cut(label, " - ")
	fields := strings.Fields(head)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

var weightLabels = []string{"环境适应性", "收益潜力", "风险控制", "技术可行性", "市场前景"}

// Recommend is the crop recommendation page.
func Recommend(ctx context.Context, env *Env) (views.Page, error) {
	c := env.catalog()
	cfg := ConfigFromValues(c, env.Options)
	readings, source := CurrentReadings(ctx, env, cfg)

	controls := []views.Control{
		{Name: "plot", Label: "🌾 选择地块", Kind: views.ControlSelect, Options: c.PlotOptions, Value: cfg.Plot},
		{Name: "season", Label: "🗓️ 种植季节", Kind: views.ControlSelect, Options: c.Seasons, Value: cfg.Season},
		{Name: "target_use", Label: "🎯 种植目标", Kind: views.ControlSelect, Options: c.TargetUses, Value: cfg.TargetUse},
		{Name: "risk", Label: "📊 风险偏好", Kind: views.ControlSelect, Options: c.RiskPreferences, Value: cfg.Risk},
		{Name: "budget", Label: "💰 投资预算(元/亩)", Kind: views.ControlSlider, Value: itoa(cfg.Budget),
			Min: views.F(500), Max: views.F(5000), Step: views.F(100)},
		{Name: "yield_pref", Label: "📈 期望产量水平", Kind: views.ControlSelect, Options: c.YieldPreferences, Value: cfg.YieldPref},
		{Name: "sensor_id", Label: "传感器ID", Kind: views.ControlText, Value: cfg.SensorID, Help: "例：S001-A1"},
		{Name: "sensor_type", Label: "设备类型", Kind: views.ControlSelect, Options: c.Sensors.SupportedTypes, Value: cfg.SensorType},
		{Name: "data_mode", Label: "数据获取方式", Kind: views.ControlRadio, Options: []string{DataModeAuto, DataModeManual},
			Value: cfg.DataMode, Help: "📡 自动获取 / ✏️ 手动输入"},
	}
	if cfg.DataMode == DataModeManual {
		manual := map[string]float64{
			"temperature": cfg.Temperature, "humidity": cfg.Humidity, "ph_value": cfg.PH, "salinity": cfg.Salinity,
			"nitrogen": cfg.Nitrogen, "phosphorus": cfg.Phosphorus, "potassium": cfg.Potassium, "organic_matter": cfg.OrganicMatter,
		}
		for _, r := range c.Sensors.Ranges {
			v, ok := manual[r.Key]
			if !ok {
				continue
			}
			step := 1.0
			if r.Max-r.Min <= 20 {
				step = 0.1
			}
			if r.Key == "salinity" {
				step = 0.01
			}
			label := r.Label
			if r.Unit != "" {
				label += " (" + r.Unit + ")"
			}
			controls = append(controls, views.Control{
				Name: r.Key, Label: label, Kind: views.ControlNumber, Value: strconv.FormatFloat(v, 'f', -1, 64),
				Min: views.F(r.Min), Max: views.F(r.Max), Step: views.F(step),
			})
		}
	}

	sensor := views.Section{Title: "📡 传感器配置"}
	if cfg.DataMode == DataModeManual {
		sensor.Alerts = []views.Alert{{Level: views.AlertInfo, Text: "📝 手动输入环境参数"}}
	} else {
		sensor.Alerts = []views.Alert{{Level: views.AlertSuccess, Text: "🔄 自动从传感器网络获取实时数据"}}
		updated := "30秒前"
		if source != "mock" {
			updated = "已同步 (" + source + ")"
		}
		sensor.Metrics = []views.Metric{
			CompactMetric(c.Colors, "在线状态", "正常", "#28a745"),
			CompactMetric(c.Colors, "更新时间", updated, "#17a2b8"),
		}
		sensor.Actions = []views.Action{{Label: "🔄 立即同步数据", Endpoint: "/api/sensors/sync"}}
	}
	readingCards := make([]views.Card, 0, len(readings))
	for _, r := range readings {
		readingCards = append(readingCards, views.Card{
			Title: r.Label,
			Badge: r.Status,
			Color: readingColor(r.Status),
			Text:  strconv.FormatFloat(r.Value, 'f', -1, 64) + r.Unit,
		})
	}
	sensor.Sections = []views.Section{{Title: "📊 实时环境数据", Cards: readingCards}}
	if env.Flags.SensorSynced {
		sensor.Alerts = append(sensor.Alerts, views.Alert{Level: views.AlertSuccess, Text: "✅ 数据同步完成"})
	}

	actions := views.Section{
		Title: "🚀 生成推荐",
		Actions: []views.Action{
			{Label: "🔍 验证数据", Endpoint: "/api/recommend/validate"},
			{Label: "🌱 智能推荐", Endpoint: "/api/recommend/generate", Primary: true},
		},
	}
	if env.Flags.ConfigValidated {
		actions.Alerts = []views.Alert{{Level: views.AlertSuccess, Text: "✅ 配置数据验证通过"}}
	}
	if env.Flags.RecommendationsReady {
		actions.Actions = append(actions.Actions, views.Action{Label: "↩️ 重置", Endpoint: "/api/recommend/reset"})
	}

	left := views.Section{
		Title: "⚙️ 推荐配置",
		Sections: []views.Section{
			{Title: "📋 基本设置", Notes: []string{fmt.Sprintf("%s | %s | %s | %d元/亩", cfg.Plot, cfg.Season, cfg.Risk, cfg.Budget)}},
			sensor,
			actions,
			weightsSection(c),
		},
	}

	var right views.Section
	if !env.Flags.RecommendationsReady {
		right = recommendIntro()
	} else {
		detail := env.opt("detail", detailOptions[0], detailOptions...)
		controls = append(controls, views.Control{Name: "detail", Label: "选择查看详细方案", Kind: views.ControlSelect, Options: detailOptions, Value: detail})
		right = recommendResults(c, CropFromDetail(detail))
	}

	return views.Page{
		Title:    "🌾 智能作物推荐",
		Subtitle: "AI驱动的精准作物推荐与种植方案",
		Controls: controls,
		Sections: []views.Section{columns(left, right)},
	}, nil
}

func weightsSection(c *catalog.Catalog) views.Section {
	w := c.Weights
	values := []float64{w.Environmental, w.Profit, w.Risk, w.Technical, w.Market}
	t := views.Table{Columns: []string{"因素", "权重"}}
	for i, v := range values {
		t.Rows = append(t.Rows, []string{weightLabels[i], pct(v * 100)})
	}
	return views.Section{
		Title:  "⚖️ 算法权重",
		Tables: []views.Table{t},
		Notes:  []string{fmt.Sprintf("权重合计 %.2f", w.Sum())},
	}
}

func recommendIntro() views.Section {
	return views.Section{
		Title:  "🤖 AI智能推荐系统",
		Alerts: []views.Alert{{Level: views.AlertInfo, Text: "👈 请先在左侧完成推荐配置，然后点击\"智能推荐\"按钮"}},
		Cards: []views.Card{
			{Title: "🧠 AI智能分析", Lines: []string{"多维度环境数据融合分析", "深度学习作物适应性评估", "历史数据与实时监测结合"}},
			{Title: "🎯 精准推荐", Lines: []string{"作物品种精确匹配", "个性化种植方案", "风险评估与收益预测"}},
			{Title: "🌱 同田异种管理", Lines: []string{"微区差异化种植", "多作物轮作优化", "生态协调发展"}},
		},
		Notes: []string{"🌟 推荐系统特色"},
	}
}

// TopCard is the headline card of one recommended crop.
func TopCard(colors catalog.Colors, r entities.Recommendation) views.Card {
	band, color := SuitabilityBand(colors, r.Suitability)
	card := RecommendationCard(colors, r.Name+" - "+r.Variety, "", r.Suitability, r.Profit, r.Risk)
	card.Icon = r.Emoji
	card.Image = r.Image
	card.Color = color
	card.Text = r.Description
	card.Badge = fmt.Sprintf("适应性: %d%% - %s", r.Suitability, band)
	card.Lines = []string{
		"📊 预期产量: " + r.Yield,
		"💰 预期收益: " + r.Revenue,
		fmt.Sprintf("⚠️ 风险指数: %d%%", r.Risk),
	}
	return card
}

// planCard shows the planned variety with the crop's optimal conditions when the crops database knows it.
func planCard(c *catalog.Catalog, plan entities.CropPlan) views.Card {
	card := views.Card{Title: plan.Crop + " - " + plan.Variety, Icon: plan.Emoji, Image: plan.Image}
	if crop, ok := c.Crop(plan.Crop); ok {
		cond := crop.Conditions
		card.Fields = []views.Field{
			{Label: "适宜温度", Value: fmt.Sprintf("%g-%g°C", cond.Temperature.Min, cond.Temperature.Max)},
			{Label: "适宜pH", Value: fmt.Sprintf("%g-%g", cond.PH.Min, cond.PH.Max)},
			{Label: "耐盐上限", Value: fmt.Sprintf("%g‰", cond.Salinity.Max)},
		}
	}
	return card
}

func recommendResults(c *catalog.Catalog, crop string) views.Section {
	top := views.Section{}
	for _, r := range c.Recommendations {
		top.Cards = append(top.Cards, TopCard(c.Colors, r))
	}

	plan := c.CropPlan(crop)
	name := plan.Crop

	timeline := views.Chart{
		ID:     "timeline",
		Title:  name + "种植时间轴",
		Kind:   views.ChartLine,
		Layout: views.Layout{Height: 300, XTitle: "种植进程", YTitle: "生长阶段", HideLegend: true},
	}
	schedule := views.Table{Columns: []string{"阶段", "时间", "关键操作"}}
	for i, s := range plan.Schedule {
		timeline.Traces = append(timeline.Traces, views.Trace{
			Name:    s.Stage,
			X:       []string{itoa(i), itoa(i + 1)},
			Y:       []float64{float64(i + 1), float64(i + 1)},
			Text:    []string{s.Stage, s.Stage},
			Width:   8,
			Markers: true,
		})
		schedule.Rows = append(schedule.Rows, []string{s.Stage, s.Period, s.Operation})
	}

	tips := func(title string, lines ...string) views.Section {
		return views.Section{Title: title, Notes: lines}
	}

	return views.Section{
		Title: "🌱 智能推荐结果",
		Sections: []views.Section{
			top,
			{Title: "📋 详细推荐方案", Sections: []views.Section{
				columns(
					views.Section{Cards: []views.Card{planCard(c, plan)}},
					views.Section{Title: "🎯 推荐理由", Notes: plan.Reasons},
				),
				{Title: "📅 种植时间安排", Charts: []views.Chart{timeline}, Tables: []views.Table{schedule}},
				{Title: "🌱 同田异种管理方案", Alerts: []views.Alert{
					{Level: views.AlertSuccess, Title: "🎯 " + name + "主导方案", Text: fmt.Sprintf(
						"主作物: %s（占比60%%）\n搭配作物: 大豆（占比25%%）、向日葵（占比15%%）\n种植模式: 条带间作\n预期效果: 增产15%%，降低风险30%%", name)},
					{Level: views.AlertInfo, Title: "🔄 多轮作保种方案", Text: "第一年: 玉米-大豆轮作\n第二年: 向日葵-小麦轮作\n第三年: 绿肥作物休耕\n轮作周期: 3年一循环"},
				}},
				{Title: "💡 后续管理建议", Sections: []views.Section{tabs(
					tips("水肥管理", "💧 "+name+"水肥管理方案",
						"灌溉建议: 播种期保持土壤湿润，促进发芽；生长期根据土壤墒情，适时补水；开花结实期保证充足水分",
						"施肥建议: 基肥有机肥2000kg/亩 + 复合肥40kg/亩；追肥分2-3次追施，以氮肥为主；生长关键期喷施微量元素"),
					tips("病虫防治", "🛡️ "+name+"病虫害防治",
						"主要病害预防: 选用抗病品种，合理轮作；种子处理，土壤消毒；及时排水，降低田间湿度",
						"主要虫害防治: 物理防治用性信息素诱捕器；生物防治释放天敌昆虫；化学防治用低毒高效农药"),
					tips("田间管理", "🚜 "+name+"田间管理",
						"日常管理: 定期中耕除草，保持田间清洁；及时查苗补苗，确保种植密度；搭建支架，防止倒伏",
						"监测要点: 每日观察作物生长状况；定期检查病虫害发生情况；关注天气变化，及时应对"),
					tips("收获储存", "📦 "+name+"收获储存",
						"收获时机: 观察作物成熟度指标；选择晴朗天气收获；避免过早或过晚收获",
						"储存方法: 充分晾晒，降低水分含量；清理杂质，分级包装；通风干燥，防潮防虫"),
				)}},
				{Title: "📊 预期效益分析", Metrics: []views.Metric{
					CompactMetric(c.Colors, "预期产量", "650kg/亩", "#28a745"),
					CompactMetric(c.Colors, "预期收益", "1600元/亩", "#17a2b8"),
					CompactMetric(c.Colors, "投资回报率", "160%", "#fd7e14"),
				}},
			}},
		},
	}
}
