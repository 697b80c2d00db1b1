package mock

import (
	"fmt"
	"math"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
)

const (
	baseLat = 39.9042
	baseLon = 116.4074
)

var growthStages = []string{"播种期", "出苗期", "拔节期", "开花期"}

// AllocatedCrops lists the crops the allocator can assign, in display order.
var AllocatedCrops = []string{"玉米", "大豆", "向日葵", "小麦"}

// CropColors is the map colour of each allocated crop.
var CropColors = map[string]string{
	"玉米":  "#FFD700",
	"大豆":  "#90EE90",
	"向日葵": "#FFA500",
	"小麦":  "#F4A460",
}

func zoneID(i int) string { return fmt.Sprintf("Z%02d", i+1) }

// AllocateZones assigns a crop to each of n zones from a simulated soil score.
func AllocateZones(g *Generator, n int) []entities.Zone {
	out := make([]entities.Zone, 0, n)
	for i := 0; i < n; i++ {
		score := g.Uniform(0.6, 1.0)
		var crop string
		switch {
		case score > 0.9:
			crop = "玉米"
		case score > 0.8:
			crop = "大豆"
		case score > 0.7:
			crop = "向日葵"
		default:
			crop = "小麦"
		}
		out = append(out, entities.Zone{
			ID:            zoneID(i),
			Crop:          crop,
			Variety:       fmt.Sprintf("%s_优选品种%d", crop, g.IntN(1, 4)),
			Latitude:      baseLat + float64(i%4)*0.0008,
			Longitude:     baseLon + float64(i/4)*0.0008,
			SoilScore:     Round(score, 2),
			ExpectedYield: math.Round(g.Uniform(400, 800)),
			PlantingDate:  fmt.Sprintf("3月%d日", 15+i%15),
			GrowthStage:   Choice(g, growthStages),
		})
	}
	return out
}

// ManagementAdvice derives the per-zone advice from the rounded soil score.
func ManagementAdvice(z entities.Zone) string {
	switch {
	case z.SoilScore > 0.9:
		return fmt.Sprintf("优质土壤，%s加强水肥管理", z.GrowthStage)
	case z.SoilScore > 0.8:
		return fmt.Sprintf("土壤良好，%s常规管理", z.GrowthStage)
	default:
		return fmt.Sprintf("土壤需改良，%s增施有机肥", z.GrowthStage)
	}
}

// ZoneEconomics is the cost/revenue row of the zone management table.
type ZoneEconomics struct {
	Zone    entities.Zone `json:"zone"`
	Advice  string        `json:"advice"`
	Cost    float64       `json:"cost"`    // 元
	Revenue float64       `json:"revenue"` // 元
}

// Economics prices every zone: cost ~ U(600,1000) per zone, revenue is the
// expected yield times a single price factor ~ U(2.5,4.0).
func Economics(g *Generator, zones []entities.Zone) []ZoneEconomics {
	out := make([]ZoneEconomics, len(zones))
	for i, z := range zones {
		out[i] = ZoneEconomics{Zone: z, Advice: ManagementAdvice(z), Cost: math.Round(g.Uniform(600, 1000))}
	}
	factor := g.Uniform(2.5, 4.0)
	for i := range out {
		out[i].Revenue = math.Round(out[i].Zone.ExpectedYield * factor)
	}
	return out
}

var statusChoices = []entities.SensorStatus{entities.SensorNormal, entities.SensorNormal, entities.SensorNormal, entities.SensorWarning}
var statusWeights = []float64{0.85, 0.1, 0.04, 0.01}

// SensorGrid simulates two sensors per zone.
func SensorGrid(g *Generator, zones int) []entities.SensorReading {
	out := make([]entities.SensorReading, 0, zones*2)
	for i := 0; i < zones; i++ {
		for j := 0; j < 2; j++ {
			out = append(out, entities.SensorReading{
				Sensor: entities.Sensor{
					ID:        fmt.Sprintf("S%02d-%d", i+1, j+1),
					Zone:      zoneID(i),
					Latitude:  baseLat + float64(i%4)*0.0005 + float64(j)*0.0002,
					Longitude: baseLon + float64(i/4)*0.0005 + float64(j)*0.0002,
				},
				Temperature: Round(g.Normal(20, 2), 1),
				Humidity:    Round(g.Normal(65, 5), 1),
				PH:          Round(g.Uniform(6.2, 7.8), 1),
				Salinity:    Round(g.Uniform(0.1, 0.6), 2),
				EC:          Round(g.Uniform(0.5, 2.0), 2),
				Status:      WeightedChoice(g, statusChoices, statusWeights),
			})
		}
	}
	return out
}

// Grid is a regular heatmap surface; Z is indexed [row(y)][col(x)].
type Grid struct {
	X []float64   `json:"x"`
	Y []float64   `json:"y"`
	Z [][]float64 `json:"z"`
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// NDVIGrid is a 20x16 vegetation index survey over a 100m x 80m plot with a
// vigorous centre and noise.
func NDVIGrid(g *Generator) Grid {
	x := linspace(0, 100, 20)
	y := linspace(0, 80, 16)
	z := make([][]float64, len(y))
	for r, yy := range y {
		z[r] = make([]float64, len(x))
		for c, xx := range x {
			bump := math.Exp(-((xx-50)*(xx-50) + (yy-40)*(yy-40)) / 800)
			z[r][c] = 0.3 + 0.5*bump + g.Normal(0, 0.1)
		}
	}
	return Grid{X: x, Y: y, Z: z}
}

// SoilSample is one hyperspectral soil survey row.
type SoilSample struct {
	Zone          string  `json:"zone"`
	OrganicMatter float64 `json:"organic_matter"` // %
	Nitrogen      float64 `json:"nitrogen"`       // g/kg
	Phosphorus    float64 `json:"phosphorus"`     // mg/kg
	Potassium     float64 `json:"potassium"`      // mg/kg
	Moisture      float64 `json:"moisture"`       // %
}

// SoilAxes names the radar axes of RadarScores.
var SoilAxes = []string{"有机质", "全氮", "有效磷", "速效钾", "含水率"}

// RadarScores scales the sample onto a 0-100 radar.
func (s SoilSample) RadarScores() []float64 {
	return []float64{s.OrganicMatter * 25, s.Nitrogen * 50, s.Phosphorus * 2, s.Potassium * 0.6, s.Moisture * 3}
}

// SoilSamples draws n samples column by column, as a survey table is filled.
func SoilSamples(g *Generator, n int) []SoilSample {
	out := make([]SoilSample, n)
	for i := range out {
		out[i].Zone = zoneID(i)
	}
	for i := range out {
		out[i].OrganicMatter = g.Uniform(1.5, 4.2)
	}
	for i := range out {
		out[i].Nitrogen = g.Uniform(0.8, 2.1)
	}
	for i := range out {
		out[i].Phosphorus = g.Uniform(15, 45)
	}
	for i := range out {
		out[i].Potassium = g.Uniform(80, 180)
	}
	for i := range out {
		out[i].Moisture = g.Uniform(15, 35)
	}
	return out
}

// Fertilization is a variable-rate prescription for one zone, in kg.
type Fertilization struct {
	Zone       string  `json:"zone"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
	Nitrogen   float64 `json:"nitrogen_kg"`
	Phosphorus float64 `json:"phosphorus_kg"`
	Potassium  float64 `json:"potassium_kg"`
	Cost       float64 `json:"total_cost"`
}

// Prescribe computes the fertilizer need from soil N (g/kg), P and K (mg/kg).
func Prescribe(soilN, soilP, soilK float64) (n, p, k, cost float64) {
	n = math.Max(0, 120-soilN*60)
	p = math.Max(0, 80-soilP*2)
	k = math.Max(0, 100-soilK*0.6)
	return n, p, k, n*6 + p*8 + k*4
}

func FertilizationMap(g *Generator, zones int) []Fertilization {
	out := make([]Fertilization, 0, zones)
	for i := 0; i < zones; i++ {
		sn := g.Uniform(0.8, 2.1)
		sp := g.Uniform(15, 45)
		sk := g.Uniform(80, 180)
		n, p, k, cost := Prescribe(sn, sp, sk)
		out = append(out, Fertilization{
			Zone:       zoneID(i),
			Latitude:   baseLat + float64(i%4)*0.0008,
			Longitude:  baseLon + float64(i/4)*0.0008,
			Nitrogen:   Round(n, 1),
			Phosphorus: Round(p, 1),
			Potassium:  Round(k, 1),
			Cost:       math.Round(cost),
		})
	}
	return out
}

// TargetMoisture is the soil water content the irrigation plan aims for, in %.
const TargetMoisture = 25

type IrrigationNeed struct {
	Zone            string  `json:"zone"`
	CurrentMoisture float64 `json:"current_moisture"`
	TargetMoisture  float64 `json:"target_moisture"`
	Need            string  `json:"irrigation_need"`
	WaterAmount     int     `json:"water_amount"`
	NextIrrigation  string  `json:"next_irrigation"`
}

// ClassifyMoisture maps soil moisture (%) onto an irrigation level and water amount.
func ClassifyMoisture(m float64) (need string, water int) {
	switch {
	case m < 20:
		return "高", 30
	case m < TargetMoisture:
		return "中", 20
	default:
		return "低", 10
	}
}

func IrrigationPlan(g *Generator, zones int) []IrrigationNeed {
	out := make([]IrrigationNeed, 0, zones)
	for i := 0; i < zones; i++ {
		m := g.Uniform(15, 35)
		need, water := ClassifyMoisture(m)
		out = append(out, IrrigationNeed{
			Zone:            zoneID(i),
			CurrentMoisture: Round(m, 1),
			TargetMoisture:  TargetMoisture,
			Need:            need,
			WaterAmount:     water,
			NextIrrigation:  fmt.Sprintf("%d天后", g.IntN(1, 4)),
		})
	}
	return out
}

type HarvestForecast struct {
	Zone          string  `json:"zone"`
	Maturity      float64 `json:"maturity"` // %
	Status        string  `json:"status"`
	EstimatedDate string  `json:"estimated_date"`
	ExpectedYield float64 `json:"expected_yield"` // kg/mu
}

// ClassifyMaturity maps a maturity percentage onto a harvest status and window.
func ClassifyMaturity(m float64) (status, window string) {
	switch {
	case m >= 90:
		return "可收获", "3天内"
	case m >= 85:
		return "接近成熟", "5-7天"
	default:
		return "未成熟", "10天以上"
	}
}

func HarvestPlan(g *Generator, zones int) []HarvestForecast {
	out := make([]HarvestForecast, 0, zones)
	for i := 0; i < zones; i++ {
		m := g.Uniform(70, 95)
		status, window := ClassifyMaturity(m)
		out = append(out, HarvestForecast{
			Zone:          zoneID(i),
			Maturity:      Round(m, 1),
			Status:        status,
			EstimatedDate: window,
			ExpectedYield: math.Round(g.Uniform(500, 800)),
		})
	}
	return out
}
