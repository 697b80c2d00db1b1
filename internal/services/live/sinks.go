package live

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/messages"
	"github.com/LeonardoBeccarini/agrichain_dashboard/pkg/rabbitmq"
)

// EventSink receives dashboard events (validation, generation, sync).
type EventSink interface {
	Emit(ctx context.Context, evt messages.DashboardEvent) error
}

// ReadingSource yields the latest reading of each sensor.
type ReadingSource interface {
	Latest(ctx context.Context) ([]entities.SensorReading, error)
}

// HistorySource yields the daily series of an environmental field.
type HistorySource interface {
	History(ctx context.Context, field string, from, to time.Time) ([]entities.Sample, error)
}

// EventTopic is the topic a recommendation event for plot is published on.
func EventTopic(plot string) string {
	plot = strings.TrimSpace(plot)
	if plot == "" {
		plot = "all"
	}
	return "event/recommendation/" + plot
}

// MQTTSink publishes events as JSON on event/recommendation/{plot}.
type MQTTSink struct {
	pub rabbitmq.IPublisher
}

func NewMQTTSink(pub rabbitmq.IPublisher) *MQTTSink { return &MQTTSink{pub: pub} }

// Emit publishes evt; it returns once the broker acks or ctx is done.
func (s *MQTTSink) Emit(ctx context.Context, evt messages.DashboardEvent) error {
	if s == nil || s.pub == nil {
		return ErrDisabled
	}
	return s.pub.PublishJSON(ctx, EventTopic(evt.Plot), evt)
}

// Sinks fans an event out to every sink. Disabled sinks are skipped; the
// other errors are joined.
type Sinks []EventSink

func (s Sinks) Emit(ctx context.Context, evt messages.DashboardEvent) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	var errs []error
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.Emit(ctx, evt); err != nil && !errors.Is(err, ErrDisabled) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sources tries each reading source in order; the first one returning at
// least one reading wins.
type Sources struct {
	list []namedSource
	log  *zap.SugaredLogger
}

type namedSource struct {
	name string
	src  ReadingSource
}

func NewSources(log *zap.SugaredLogger) *Sources {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Sources{log: log}
}

// Add appends a source. Nil sources are ignored.
func (s *Sources) Add(name string, src ReadingSource) *Sources {
	if src != nil {
		s.list = append(s.list, namedSource{name: name, src: src})
	}
	return s
}

// Len is the number of registered sources.
func (s *Sources) Len() int { return len(s.list) }

// Latest returns the readings of the first source that has any, and its name.
// With no data anywhere it returns an empty result and the last error seen.
func (s *Sources) Latest(ctx context.Context) ([]entities.SensorReading, string, error) {
	var last error
	for _, ns := range s.list {
		rs, err := ns.src.Latest(ctx)
		if err != nil {
			if !errors.Is(err, ErrDisabled) {
				s.log.Warnf("live: source %s failed: %v", ns.name, err)
				last = err
			}
			continue
		}
		if len(rs) > 0 {
			return rs, ns.name, nil
		}
	}
	if last != nil {
		return nil, "", fmt.Errorf("no live readings: %w", last)
	}
	return nil, "", nil
}
