package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/messages"
	"github.com/LeonardoBeccarini/agrichain_dashboard/pkg/dedup"
	"github.com/LeonardoBeccarini/agrichain_dashboard/pkg/rabbitmq"
)

// SensorTopic is the filter the aggregator publishes readings on:
// sensor/aggregated/{field}/{sensor}.
const SensorTopic = "sensor/aggregated/#"

var feedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "agrichain",
	Subsystem: "feed",
	Name:      "messages_total",
	Help:      "Sensor messages received from the broker, by outcome.",
}, []string{"outcome"})

// Feed keeps the latest reading of every sensor seen on the broker.
type Feed struct {
	mu     sync.RWMutex
	latest map[string]entities.SensorReading
	dedup  *dedup.Deduper
	now    func() time.Time
	log    *zap.SugaredLogger
}

func NewFeed(d *dedup.Deduper, log *zap.SugaredLogger) *Feed {
	if d == nil {
		d = dedup.New(time.Minute, 10000)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Feed{latest: map[string]entities.SensorReading{}, dedup: d, now: time.Now, log: log}
}

// Handle is a rabbitmq.Handler. Malformed payloads are logged and dropped so
// the stream keeps flowing.
func (f *Feed) Handle(_ string, msg mqtt.Message) error {
	if err := f.Ingest(msg.Topic(), msg.Payload()); err != nil {
		f.log.Warnf("feed: dropped message topic=%s err=%v", msg.Topic(), err)
	}
	return nil
}

// Ingest decodes one sensor payload and stores it as the sensor's latest reading.
func (f *Feed) Ingest(topic string, payload []byte) error {
	if !f.dedup.ShouldProcessPayload(topic, payload) {
		feedMessages.WithLabelValues("duplicate").Inc()
		return nil
	}
	var m messages.SensorData
	if err := json.Unmarshal(payload, &m); err != nil {
		feedMessages.WithLabelValues("invalid").Inc()
		return fmt.Errorf("invalid JSON: %w", err)
	}
	fieldID, sensorID := pickIDs(topic, m.FieldId, m.SensorID)
	if sensorID == "" {
		feedMessages.WithLabelValues("invalid").Inc()
		return fmt.Errorf("missing sensor id")
	}

	r := entities.SensorReading{
		Sensor:    entities.Sensor{ID: sensorID},
		FieldID:   fieldID,
		Status:    entities.SensorNormal,
		Timestamp: m.Timestamp,
	}
	// il payload aggregato porta sempre l'umidità del suolo
	r.Set(entities.MetricMoisture, m.Moisture)
	if r.Timestamp.IsZero() {
		r.Timestamp = f.now().UTC()
	}
	setIf(&r, entities.MetricTemperature, m.Temperature)
	setIf(&r, entities.MetricHumidity, m.Humidity)
	setIf(&r, entities.MetricPH, m.PH)
	setIf(&r, entities.MetricSalinity, m.Salinity)

	f.mu.Lock()
	prev, ok := f.latest[sensorID]
	if !ok || !r.Timestamp.Before(prev.Timestamp) {
		f.latest[sensorID] = r
	}
	f.mu.Unlock()

	feedMessages.WithLabelValues("accepted").Inc()
	f.log.Debugf("feed: reading field=%s sensor=%s moisture=%.1f", fieldID, sensorID, m.Moisture)
	return nil
}

func setIf(r *entities.SensorReading, m entities.Metric, v *float64) {
	if v != nil {
		r.Set(m, *v)
	}
}

// pickIDs usa il payload, oppure il topic "sensor/aggregated/{field}/{sensor}".
func pickIDs(topic, fieldID, sensorID string) (string, string) {
	if strings.TrimSpace(fieldID) != "" && strings.TrimSpace(sensorID) != "" {
		return fieldID, sensorID
	}
	rest, ok := strings.CutPrefix(topic, "sensor/aggregated/")
	if !ok {
		return fieldID, sensorID
	}
	if parts := strings.Split(rest, "/"); len(parts) >= 2 {
		if fieldID == "" {
			fieldID = parts[0]
		}
		if sensorID == "" {
			sensorID = parts[1]
		}
	}
	return fieldID, sensorID
}

// Latest returns a snapshot of the cached readings sorted by sensor id.
func (f *Feed) Latest(_ context.Context) ([]entities.SensorReading, error) {
	f.mu.RLock()
	out := make([]entities.SensorReading, 0, len(f.latest))
	for _, r := range f.latest {
		out = append(out, r)
	}
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len is the number of sensors in the cache.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.latest)
}

// Run attaches the feed to consumer and blocks until ctx is done.
func (f *Feed) Run(ctx context.Context, consumer rabbitmq.IConsumer) {
	consumer.SetHandler(f.Handle)
	consumer.ConsumeMessage(ctx)
}
