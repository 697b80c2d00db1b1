package entities

// PlotStatus is the management mode shown on a plot card.
type PlotStatus string

const (
	StatusMultiCrop   PlotStatus = "同田异种"
	StatusPrecision   PlotStatus = "精准管理"
	StatusTraditional PlotStatus = "传统管理"
)

// Plot represents a named tract of farmland split into microzones.
type Plot struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	Area          float64    `json:"area" yaml:"area"` // mu
	Zones         int        `json:"zones" yaml:"zones"`
	Status        PlotStatus `json:"status" yaml:"status"`
	DroneCoverage int        `json:"drone_coverage" yaml:"drone_coverage"` // %
	SensorDensity int        `json:"sensor_density" yaml:"sensor_density"` // sensors per plot
	CropDiversity int        `json:"crop_diversity" yaml:"crop_diversity"`
	AIScore       int        `json:"ai_score" yaml:"ai_score"`
}

// DiversityIndex is the number of crop kinds per zone, rounded to two decimals.
func (p Plot) DiversityIndex() float64 {
	if p.Zones <= 0 {
		return 0
	}
	v := float64(p.CropDiversity) / float64(p.Zones)
	return float64(int(v*100+0.5)) / 100
}

// OnlineSensors is the share of sensors the UI reports as online (95%, truncated).
func (p Plot) OnlineSensors() int {
	return int(float64(p.SensorDensity) * 0.95)
}

// Zone is one microzone of a plot with the crop allocated to it.
type Zone struct {
	ID            string  `json:"zone_id"`
	Crop          string  `json:"crop"`
	Variety       string  `json:"variety"`
	Latitude      float64 `json:"lat"`
	Longitude     float64 `json:"lon"`
	SoilScore     float64 `json:"soil_score"`
	ExpectedYield float64 `json:"expected_yield"` // kg/mu
	PlantingDate  string  `json:"planting_date"`
	GrowthStage   string  `json:"growth_stage"`
}
