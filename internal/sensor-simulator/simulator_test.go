package sensor_simulator

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/messages"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/live"
)

type clock struct{ t time.Time }

func newClock() *clock                   { return &clock{t: time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)} }
func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newGen(c *clock) *DataGenerator {
	return NewDataGenerator(DecayForHalfLife(2*time.Hour), 7).WithClock(c.now)
}

func eventPayload(evt messages.DashboardEvent) []byte {
	b, _ := json.Marshal(evt)
	return b
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	bodies [][]byte
}

func (p *recordingPublisher) PublishJSON(_ context.Context, topic string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.bodies = append(p.bodies, b)
	return nil
}

func (p *recordingPublisher) Close() {}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestSensorIDs(t *testing.T) {
	ids := SensorIDs(entities.Plot{Zones: 2}, 3)
	assert.Equal(t, []string{"S001-A1", "S002-B2", "S003-A1"}, ids)
	assert.Len(t, SensorIDs(entities.Plot{}, 2), 2)
}

func TestMoistureDecaysAndIrrigates(t *testing.T) {
	c := newClock()
	g := newGen(c)

	first := g.Next("P001", "S001-A1")
	assert.Equal(t, 30.0, first.Moisture)

	// mezzo tempo di dimezzamento
	c.advance(time.Hour)
	assert.Equal(t, 21.0, g.Next("P001", "S001-A1").Moisture)
	m, _ := g.Moisture("S001-A1")
	assert.InDelta(t, 0.30/math.Sqrt2, m, 1e-9)

	c.advance(time.Hour)
	assert.Equal(t, 15.0, g.Next("P001", "S001-A1").Moisture)
	m, _ = g.Moisture("S001-A1")
	assert.InDelta(t, 0.15, m, 1e-9)

	g.Irrigate("", 50*time.Minute)
	c.advance(100 * time.Minute)
	// 50 minuti irrigati (+30%), poi 50 asciutti
	wet := g.Next("P001", "S001-A1")
	assert.Equal(t, 34.0, wet.Moisture)

	m, ok := g.Moisture("S001-A1")
	require.True(t, ok)
	assert.InDelta(t, 0.45*math.Pow(0.5, 50.0/120), m, 1e-9)
}

func TestMoistureHalvesEveryHalfLife(t *testing.T) {
	c := newClock()
	g := newGen(c)
	g.Next("P001", "S001-A1")
	want := 0.30
	for i := 0; i < 4; i++ {
		c.advance(2 * time.Hour)
		g.Next("P001", "S001-A1")
		want /= 2
		m, _ := g.Moisture("S001-A1")
		assert.InDelta(t, want, m, 1e-9)
	}
	assert.Zero(t, DecayForHalfLife(0))
}

func TestEnvironmentStaysNearReference(t *testing.T) {
	c := newClock()
	g := newGen(c)
	for i := 0; i < 200; i++ {
		c.advance(time.Minute)
		sd := g.Next("P001", "S001-A1")
		require.NotNil(t, sd.Temperature)
		require.NotNil(t, sd.PH)
		assert.InDelta(t, 18, *sd.Temperature, 9.01)
		assert.InDelta(t, 6.8, *sd.PH, 0.91)
	}
}

func TestPublishFeedsTheDashboard(t *testing.T) {
	c := newClock()
	pub := &recordingPublisher{}
	sim := NewSensorSimulator(nil, pub, newGen(c), "P001", []string{"S001-A1", "S002-B2"}, nil)

	require.NoError(t, sim.PublishOnce(context.Background()))
	require.Len(t, pub.topics, 2)
	assert.Equal(t, "sensor/aggregated/P001/S001-A1", pub.topics[0])

	feed := live.NewFeed(nil, nil)
	for i, topic := range pub.topics {
		require.NoError(t, feed.Ingest(topic, pub.bodies[i]))
	}
	rs, err := feed.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "S001-A1", rs[0].ID)
	assert.Equal(t, "P001", rs[0].FieldID)
	assert.NotZero(t, rs[0].Temperature)
}

func TestIrrigationCommands(t *testing.T) {
	c := newClock()
	g := newGen(c)
	sim := NewSensorSimulator(nil, &recordingPublisher{}, g, "P001", []string{"S001-A1"}, nil).
		WithIrrigation(10 * time.Minute)

	start := eventPayload(messages.DashboardEvent{Kind: "irrigation.command", Tags: map[string]string{"action": "start"}})
	require.NoError(t, sim.handleMessage("event/recommendation/all", fakeMessage{"event/recommendation/all", start}))
	c.advance(10 * time.Minute)
	assert.Equal(t, 36.0, g.Next("P001", "S001-A1").Moisture)

	pause := eventPayload(messages.DashboardEvent{Kind: "irrigation.command", Tags: map[string]string{"action": "pause"}})
	g.Irrigate("", time.Hour)
	require.NoError(t, sim.handleMessage("event/recommendation/all", fakeMessage{"event/recommendation/all", pause}))
	c.advance(10 * time.Minute)
	assert.Equal(t, 34.0, g.Next("P001", "S001-A1").Moisture)

	// other kinds and malformed payloads
	other := eventPayload(messages.DashboardEvent{Kind: "crop.action", Tags: map[string]string{"action": "start"}})
	require.NoError(t, sim.handleMessage("event/recommendation/all", fakeMessage{"event/recommendation/all", other}))
	assert.Error(t, sim.handleMessage("event/recommendation/all", fakeMessage{"event/recommendation/all", []byte("{")}))
}

func TestIrrigationForOtherPlotIsIgnored(t *testing.T) {
	c := newClock()
	g := newGen(c)
	sim := NewSensorSimulator(nil, &recordingPublisher{}, g, "P001", []string{"S001-A1"}, nil).
		WithIrrigation(10 * time.Minute)

	other := eventPayload(messages.DashboardEvent{Kind: "irrigation.command", Plot: "P002", Tags: map[string]string{"action": "start"}})
	require.NoError(t, sim.handleMessage("event/recommendation/P002", fakeMessage{"event/recommendation/P002", other}))
	c.advance(10 * time.Minute)
	assert.Equal(t, 28.0, g.Next("P001", "S001-A1").Moisture)

	own := eventPayload(messages.DashboardEvent{Kind: "irrigation.command", Plot: "P001", Tags: map[string]string{"action": "start"}})
	require.NoError(t, sim.handleMessage("event/recommendation/P001", fakeMessage{"event/recommendation/P001", own}))
	c.advance(10 * time.Minute)
	m, _ := g.Moisture("S001-A1")
	assert.InDelta(t, 0.30*math.Pow(0.5, 10.0/120)+0.06, m, 1e-9)
}

func TestStartStopsWithContext(t *testing.T) {
	pub := &recordingPublisher{}
	sim := NewSensorSimulator(nil, pub, NewDataGenerator(DecayForHalfLife(time.Hour), 7), "P001", []string{"S001-A1"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Start(ctx, 5*time.Millisecond)
		close(done)
	}()
	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.topics) > 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
