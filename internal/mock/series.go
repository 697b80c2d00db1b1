package mock

import (
	"math"
	"time"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
)

// TrendPoint is one hourly average of the sensor network.
type TrendPoint struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"avg_temp"`
	Humidity    float64   `json:"avg_humidity"`
	PH          float64   `json:"avg_ph"`
	Salinity    float64   `json:"avg_salinity"`
}

// DailyTrend returns 24 hourly points ending at now with a daily temperature cycle.
func DailyTrend(g *Generator, now time.Time) []TrendPoint {
	const n = 24
	start := now.Add(-23 * time.Hour)
	out := make([]TrendPoint, n)
	for i := range out {
		out[i].Time = start.Add(time.Duration(i) * time.Hour)
	}
	// columns are drawn one at a time
	for i := range out {
		out[i].Temperature = g.Normal(20, 2) + 3*math.Sin(float64(i)*2*math.Pi/24)
	}
	for i := range out {
		out[i].Humidity = g.Normal(65, 3) - 2*math.Sin(float64(i)*2*math.Pi/24)
	}
	for i := range out {
		out[i].PH = g.Normal(6.8, 0.1)
	}
	for i := range out {
		out[i].Salinity = g.Normal(0.35, 0.05)
	}
	return out
}

// MonthEnds returns the last day of every month whose month end lies in [from, to].
func MonthEnds(from, to time.Time) []time.Time {
	if to.Before(from) {
		return nil
	}
	from = truncateDay(from)
	to = truncateDay(to)
	var out []time.Time
	// first day of the month after from, minus one day
	m := time.Date(from.Year(), from.Month()+1, 1, 0, 0, 0, 0, from.Location()).AddDate(0, 0, -1)
	for !m.After(to) {
		out = append(out, m)
		m = time.Date(m.Year(), m.Month()+2, 1, 0, 0, 0, 0, m.Location()).AddDate(0, 0, -1)
	}
	return out
}

// Days returns one timestamp per day from from to to, inclusive.
func Days(from, to time.Time) []time.Time {
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// KPISeries holds the monthly points of the comprehensive analysis trend.
type KPISeries struct {
	Dates        []time.Time `json:"dates"`
	SuccessRate  []float64   `json:"success_rate"`
	Satisfaction []float64   `json:"satisfaction"`
	Profit       []float64   `json:"profit"`
}

func MonthlyKPIs(g *Generator, from, to time.Time) KPISeries {
	dates := MonthEnds(from, to)
	s := KPISeries{Dates: dates}
	for range dates {
		s.SuccessRate = append(s.SuccessRate, g.Normal(91, 3))
	}
	for range dates {
		s.Satisfaction = append(s.Satisfaction, g.Normal(94, 2))
	}
	for range dates {
		s.Profit = append(s.Profit, g.Normal(1350, 100))
	}
	return s
}

// EnvMetric describes how a monitored environmental metric is simulated and drawn.
type EnvMetric struct {
	Name  string
	Key   string // telemetry field name
	Unit  string
	Color string
	Mean  float64
	Std   float64
}

// EnvMetrics are the selectable metrics of the environmental analysis, in order.
var EnvMetrics = []EnvMetric{
	{Name: "温度", Key: "temperature", Unit: "°C", Color: "red", Mean: 18, Std: 3},
	{Name: "湿度", Key: "humidity", Unit: "%", Color: "blue", Mean: 65, Std: 8},
	{Name: "pH值", Key: "ph", Unit: "", Color: "green", Mean: 6.8, Std: 0.3},
	{Name: "盐碱度", Key: "salinity", Unit: "‰", Color: "orange", Mean: 0.3, Std: 0.1},
	{Name: "氮含量", Key: "nitrogen", Unit: "mg/kg", Color: "purple", Mean: 50, Std: 10},
	{Name: "磷含量", Key: "phosphorus", Unit: "mg/kg", Color: "purple", Mean: 50, Std: 10},
	{Name: "钾含量", Key: "potassium", Unit: "mg/kg", Color: "purple", Mean: 50, Std: 10},
}

// LookupEnvMetric finds a metric by display name.
func LookupEnvMetric(name string) (EnvMetric, bool) {
	for _, m := range EnvMetrics {
		if m.Name == name {
			return m, true
		}
	}
	return EnvMetric{}, false
}

// EnvironmentalSeries simulates one daily series over the 30 days up to now.
func EnvironmentalSeries(g *Generator, m EnvMetric, now time.Time) []entities.Sample {
	days := Days(now.AddDate(0, 0, -30), now)
	out := make([]entities.Sample, len(days))
	for i, d := range days {
		out[i] = entities.Sample{Time: d, Value: g.Normal(m.Mean, m.Std)}
	}
	return out
}

// CorrelationMatrix returns a symmetric n x n matrix with off-diagonal values
// in [0.3, 0.9) and a unit diagonal.
func CorrelationMatrix(g *Generator, n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = g.Uniform(0.3, 0.9)
		}
		m[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := (m[i][j] + m[j][i]) / 2
			m[i][j], m[j][i] = v, v
		}
	}
	return m
}
