// Package sensor_simulator publishes simulated field readings on the broker
// so the dashboard's live feed has data without real sensors. It follows the
// irrigation commands the dashboard emits.
package sensor_simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/messages"
	"github.com/LeonardoBeccarini/agrichain_dashboard/pkg/dedup"
	"github.com/LeonardoBeccarini/agrichain_dashboard/pkg/rabbitmq"
)

// CommandTopic carries the dashboard events; only irrigation commands are used.
const CommandTopic = "event/recommendation/#"

// DefaultIrrigation is how long a "start" command keeps the valves open.
const DefaultIrrigation = 30 * time.Minute

// SensorIDs names n sensors of plot the way the dashboard does (S001-A1, S002-A2, ...),
// cycling the zone letter over the plot's zones.
func SensorIDs(plot entities.Plot, n int) []string {
	zones := plot.Zones
	if zones <= 0 {
		zones = 1
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		zone := i % zones
		out = append(out, fmt.Sprintf("S%03d-%c%d", i+1, 'A'+rune(zone%26), zone+1))
	}
	return out
}

// Topic is where the reading of sensor in field is published.
func Topic(fieldID, sensorID string) string {
	return "sensor/aggregated/" + fieldID + "/" + sensorID
}

type SensorSimulator struct {
	field      string
	sensors    []string
	generator  *DataGenerator
	publisher  rabbitmq.IPublisher
	consumer   rabbitmq.IConsumer
	deduper    *dedup.Deduper
	irrigation time.Duration
	log        *zap.SugaredLogger
}

// NewSensorSimulator builds a simulator for sensors of field. consumer may be
// nil, in which case irrigation commands are not followed.
func NewSensorSimulator(consumer rabbitmq.IConsumer, publisher rabbitmq.IPublisher,
	gen *DataGenerator, field string, sensors []string, log *zap.SugaredLogger) *SensorSimulator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	gen.Track(sensors...)
	return &SensorSimulator{
		field:      field,
		sensors:    sensors,
		generator:  gen,
		publisher:  publisher,
		consumer:   consumer,
		deduper:    dedup.New(2*time.Minute, 10000), // TTL e cap
		irrigation: DefaultIrrigation,
		log:        log,
	}
}

// WithIrrigation sets how long a start command irrigates.
func (s *SensorSimulator) WithIrrigation(d time.Duration) *SensorSimulator {
	s.irrigation = d
	return s
}

// Start publishes one reading per sensor every interval until ctx is done.
func (s *SensorSimulator) Start(ctx context.Context, interval time.Duration) {
	if s.consumer != nil {
		s.consumer.SetHandler(s.handleMessage)
		go s.consumer.ConsumeMessage(ctx)
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-t.C:
			if err := s.PublishOnce(ctx); err != nil {
				s.log.Warnf("simulator: publish error: %v", err)
			}
		}
	}
}

// PublishOnce sends the next reading of every sensor and returns the first error.
func (s *SensorSimulator) PublishOnce(ctx context.Context) error {
	var first error
	for _, id := range s.sensors {
		sd := s.generator.Next(s.field, id)
		s.log.Debugf("simulator: pub field=%s sensor=%s moisture=%.0f%%", sd.FieldId, sd.SensorID, sd.Moisture)
		if err := s.publisher.PublishJSON(ctx, Topic(s.field, id), sd); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *SensorSimulator) handleMessage(topic string, msg mqtt.Message) error {
	// redelivery QoS1 ha lo stesso payload
	if !s.deduper.ShouldProcessPayload(topic, msg.Payload()) {
		return nil
	}
	var evt messages.DashboardEvent
	if err := json.Unmarshal(msg.Payload(), &evt); err != nil {
		return fmt.Errorf("invalid DashboardEvent: %w", err)
	}
	if evt.Kind != "irrigation.command" {
		return nil
	}
	// comandi senza plot valgono per tutti i campi
	if evt.Plot != "" && evt.Plot != s.field {
		s.log.Debugf("simulator: ignoring irrigation for plot %s", evt.Plot)
		return nil
	}
	switch evt.Tags["action"] {
	case "start":
		s.generator.Irrigate("", s.irrigation)
		s.log.Infof("simulator: irrigation on for %s (session %s)", s.irrigation, evt.SessionID)
	case "pause":
		s.generator.Irrigate("", 0)
		s.log.Infof("simulator: irrigation paused (session %s)", evt.SessionID)
	}
	return nil
}
