package mock

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
)

func TestFixedSeedIsReproducible(t *testing.T) {
	a := AllocateZones(New(FixedSeed), 8)
	b := AllocateZones(New(FixedSeed), 8)
	assert.Equal(t, a, b)

	assert.Equal(t, NDVIGrid(New(FixedSeed)), NDVIGrid(New(FixedSeed)))
}

func TestGeneratorRanges(t *testing.T) {
	g := New(7)
	for i := 0; i < 1000; i++ {
		u := g.Uniform(2, 3)
		assert.True(t, u >= 2 && u < 3)
		n := g.IntN(1, 4)
		assert.True(t, n >= 1 && n <= 3, "IntN is half-open, got %d", n)
	}
	assert.Equal(t, 5, g.IntN(5, 5))
}

func TestWeightedChoiceSkipsZeroWeights(t *testing.T) {
	g := New(1)
	for i := 0; i < 200; i++ {
		assert.Equal(t, "b", WeightedChoice(g, []string{"a", "b", "c"}, []float64{0, 1, 0}))
	}
}

func TestAllocateZones(t *testing.T) {
	zones := AllocateZones(New(3), 12)
	require.Len(t, zones, 12)

	for i, z := range zones {
		assert.Regexp(t, `^Z\d{2}$`, z.ID)
		assert.True(t, z.SoilScore >= 0.6 && z.SoilScore <= 1.0)
		assert.True(t, z.ExpectedYield >= 400 && z.ExpectedYield <= 800)
		assert.Contains(t, growthStages, z.GrowthStage)
		assert.Contains(t, AllocatedCrops, z.Crop)
		assert.Regexp(t, `^`+z.Crop+`_优选品种[123]$`, z.Variety)
		assert.InDelta(t, 39.9042+float64(i%4)*0.0008, z.Latitude, 1e-9)
		assert.InDelta(t, 116.4074+float64(i/4)*0.0008, z.Longitude, 1e-9)
	}
	assert.Equal(t, "Z01", zones[0].ID)
	assert.Equal(t, "3月15日", zones[0].PlantingDate)
	assert.Equal(t, "3月26日", zones[11].PlantingDate)
}

func TestManagementAdvice(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.95, "优质土壤，开花期加强水肥管理"},
		{0.9, "土壤良好，开花期常规管理"},
		{0.85, "土壤良好，开花期常规管理"},
		{0.8, "土壤需改良，开花期增施有机肥"},
	}
	for _, tt := range tests {
		z := entities.Zone{SoilScore: tt.score, GrowthStage: "开花期"}
		assert.Equal(t, tt.want, ManagementAdvice(z))
	}
}

func TestEconomicsUsesOnePriceFactor(t *testing.T) {
	zones := []entities.Zone{{ID: "Z01", ExpectedYield: 400}, {ID: "Z02", ExpectedYield: 800}}
	rows := Economics(New(5), zones)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.True(t, r.Cost >= 600 && r.Cost <= 1000)
	}
	assert.InDelta(t, rows[0].Revenue*2, rows[1].Revenue, 1)
}

func TestSensorGrid(t *testing.T) {
	grid := SensorGrid(New(9), 6)
	require.Len(t, grid, 12)
	assert.Equal(t, "S01-1", grid[0].ID)
	assert.Equal(t, "S01-2", grid[1].ID)
	assert.Equal(t, "Z06", grid[11].Zone)
	for _, s := range grid {
		assert.True(t, s.PH >= 6.2 && s.PH <= 7.8)
		assert.True(t, s.Salinity >= 0.1 && s.Salinity <= 0.6)
		assert.Contains(t, []entities.SensorStatus{entities.SensorNormal, entities.SensorWarning}, s.Status)
	}
	assert.InDelta(t, 39.9042+0.0002, grid[1].Latitude, 1e-9)
}

func TestNDVIGridShape(t *testing.T) {
	grid := NDVIGrid(New(FixedSeed))
	require.Len(t, grid.X, 20)
	require.Len(t, grid.Y, 16)
	require.Len(t, grid.Z, 16)
	assert.Len(t, grid.Z[0], 20)
	assert.Equal(t, 0.0, grid.X[0])
	assert.Equal(t, 100.0, grid.X[19])
	assert.Equal(t, 80.0, grid.Y[15])
}

func TestPrescribe(t *testing.T) {
	n, p, k, cost := Prescribe(1.0, 20, 100)
	assert.InDelta(t, 60, n, 1e-9)
	assert.InDelta(t, 40, p, 1e-9)
	assert.InDelta(t, 40, k, 1e-9)
	assert.InDelta(t, 60*6+40*8+40*4, cost, 1e-9)

	n, p, k, cost = Prescribe(3, 50, 200)
	assert.Zero(t, n)
	assert.Zero(t, p)
	assert.Zero(t, k)
	assert.Zero(t, cost)
}

func TestClassifiers(t *testing.T) {
	need, water := ClassifyMoisture(19.9)
	assert.Equal(t, "高", need)
	assert.Equal(t, 30, water)
	need, water = ClassifyMoisture(20)
	assert.Equal(t, "中", need)
	assert.Equal(t, 20, water)
	need, water = ClassifyMoisture(25)
	assert.Equal(t, "低", need)
	assert.Equal(t, 10, water)

	status, window := ClassifyMaturity(90)
	assert.Equal(t, "可收获", status)
	assert.Equal(t, "3天内", window)
	status, _ = ClassifyMaturity(85)
	assert.Equal(t, "接近成熟", status)
	status, window = ClassifyMaturity(84.9)
	assert.Equal(t, "未成熟", status)
	assert.Equal(t, "10天以上", window)
}

func TestPlans(t *testing.T) {
	g := New(11)
	for _, row := range IrrigationPlan(g, 8) {
		assert.EqualValues(t, TargetMoisture, row.TargetMoisture)
		assert.Regexp(t, `^[123]天后$`, row.NextIrrigation)
	}
	for _, row := range HarvestPlan(g, 8) {
		assert.True(t, row.Maturity >= 70 && row.Maturity <= 95)
	}
	fert := FertilizationMap(g, 4)
	require.Len(t, fert, 4)
	assert.Equal(t, "Z04", fert[3].Zone)
}

func TestSoilSamplesRadar(t *testing.T) {
	s := SoilSample{OrganicMatter: 2, Nitrogen: 1, Phosphorus: 30, Potassium: 100, Moisture: 20}
	assert.Equal(t, []float64{50, 50, 60, 60, 60}, s.RadarScores())
	assert.Len(t, SoilSamples(New(1), 8), 8)
}

func TestMonthEnds(t *testing.T) {
	from := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 4, 10, 0, 0, 0, 0, time.UTC)
	got := MonthEnds(from, to)
	require.Len(t, got, 3)
	assert.Equal(t, time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), got[0])
	assert.Equal(t, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), got[1])
	assert.Equal(t, time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC), got[2])

	assert.Empty(t, MonthEnds(to, from))
}

func TestDailyTrendAndEnvironmentalSeries(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	trend := DailyTrend(New(2), now)
	require.Len(t, trend, 24)
	assert.Equal(t, now, trend[23].Time)

	m, ok := LookupEnvMetric("钾含量")
	require.True(t, ok)
	assert.Equal(t, "purple", m.Color)
	series := EnvironmentalSeries(New(2), m, now)
	assert.Len(t, series, 31)

	_, ok = LookupEnvMetric("风速")
	assert.False(t, ok)
}

func TestCorrelationMatrix(t *testing.T) {
	m := CorrelationMatrix(New(4), 7)
	for i := range m {
		assert.Equal(t, 1.0, m[i][i])
		for j := range m {
			assert.Equal(t, m[i][j], m[j][i])
			if i != j {
				assert.True(t, m[i][j] >= 0.3 && m[i][j] < 0.9)
			}
		}
	}
}

func TestStats(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.Equal(t, 5.0, Mean(xs))
	assert.InDelta(t, math.Sqrt(32.0/7), StdDev(xs), 1e-12)
	assert.Zero(t, StdDev([]float64{1}))
	assert.Zero(t, Mean(nil))
	assert.Equal(t, 40.0, Sum(xs))
	assert.Equal(t, 1.3, Round(1.25, 1))
}
