package sensor_simulator

import (
	"math"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/mock"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/messages"
)

const (
	// gainPerMin: +0.6% per minuto con irrigazione attiva (in [0..1]).
	gainPerMin = 0.006

	// defaultSeed: umidità del suolo iniziale.
	defaultSeed = 0.30

	// pull of the random walks back towards the metric mean, per tick
	meanReversion = 0.1
)

// walked are the environmental metrics carried by a simulated payload.
var walked = []string{"temperature", "humidity", "ph", "salinity"}

type sensorState struct {
	moisture float64 // [0..1]
	last     time.Time
	until    time.Time // irrigazione attiva fino a
	env      map[string]float64
}

// DataGenerator keeps per-sensor state: soil moisture decays while the
// valve is off and rises while irrigating; the environmental metrics follow
// a mean reverting random walk around the dashboard's reference values.
type DataGenerator struct {
	mu          sync.Mutex
	rng         *mock.Generator
	now         func() time.Time
	decayPerMin float64
	sensors     map[string]*sensorState
}

// DecayForHalfLife is the per-minute decay rate that halves dry soil moisture every halfLife.
func DecayForHalfLife(halfLife time.Duration) float64 {
	if halfLife <= 0 {
		return 0
	}
	return math.Ln2 / halfLife.Minutes()
}

// NewDataGenerator crea un generatore con dato tasso di decadimento per minuto.
// While dry, moisture decays as m·e^(-decayPerMin·t).
func NewDataGenerator(decayPerMin float64, seed int64) *DataGenerator {
	return &DataGenerator{
		rng:         mock.New(seed),
		now:         time.Now,
		decayPerMin: math.Max(0, decayPerMin),
		sensors:     map[string]*sensorState{},
	}
}

// WithClock replaces the time source; used by tests.
func (g *DataGenerator) WithClock(now func() time.Time) *DataGenerator {
	g.now = now
	return g
}

func (g *DataGenerator) state(sensorID string, now time.Time) *sensorState {
	s, ok := g.sensors[sensorID]
	if ok {
		return s
	}
	s = &sensorState{moisture: defaultSeed, last: now, env: map[string]float64{}}
	for _, key := range walked {
		if m, ok := metric(key); ok {
			s.env[key] = m.Mean
		}
	}
	g.sensors[sensorID] = s
	return s
}

func metric(key string) (mock.EnvMetric, bool) {
	for _, m := range mock.EnvMetrics {
		if m.Key == key {
			return m, true
		}
	}
	return mock.EnvMetric{}, false
}

// Track registers sensors so that Irrigate reaches them before their first reading.
func (g *DataGenerator) Track(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now().UTC()
	for _, id := range ids {
		g.state(id, now)
	}
}

// Next advances the sensor's state to now and returns its reading.
func (g *DataGenerator) Next(fieldID, sensorID string) messages.SensorData {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	s := g.state(sensorID, now)

	// prima il tratto irrigato (guadagno lineare), poi quello asciutto (decadimento esponenziale)
	wet := 0.0
	if s.until.After(s.last) {
		wet = math.Max(0, math.Min(now.Sub(s.last).Minutes(), s.until.Sub(s.last).Minutes()))
	}
	dry := math.Max(0, now.Sub(s.last).Minutes()-wet)
	s.moisture = clamp01(s.moisture + gainPerMin*wet)
	s.moisture = clamp01(s.moisture * math.Exp(-g.decayPerMin*dry))
	s.last = now

	out := messages.SensorData{
		FieldId:    fieldID,
		SensorID:   sensorID,
		Moisture:   math.Round(s.moisture * 100),
		Aggregated: true,
		Timestamp:  now,
	}
	for _, key := range walked {
		m, _ := metric(key)
		v := s.env[key]
		v += g.rng.Normal(0, m.Std*0.2) + (m.Mean-v)*meanReversion
		v = math.Max(m.Mean-3*m.Std, math.Min(m.Mean+3*m.Std, v))
		s.env[key] = v
		rounded := math.Round(v*100) / 100
		switch key {
		case "temperature":
			out.Temperature = &rounded
		case "humidity":
			out.Humidity = &rounded
		case "ph":
			out.PH = &rounded
		case "salinity":
			out.Salinity = &rounded
		}
	}
	return out
}

// Irrigate opens the valve of sensorID for d; an empty id means every known sensor.
// A zero or negative d closes it.
func (g *DataGenerator) Irrigate(sensorID string, d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now().UTC()
	apply := func(s *sensorState) {
		if d <= 0 {
			s.until = time.Time{}
			return
		}
		s.until = now.Add(d)
	}
	if sensorID != "" {
		apply(g.state(sensorID, now))
		return
	}
	for _, s := range g.sensors {
		apply(s)
	}
}

// Moisture is the current soil moisture of sensorID in [0..1].
func (g *DataGenerator) Moisture(sensorID string) (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sensors[sensorID]
	if !ok {
		return 0, false
	}
	return s.moisture, true
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
