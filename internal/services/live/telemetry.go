package live

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/messages"
)

// Configurazione Influx
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string

	// Measurement holding the environmental fields (temperature, humidity, ...).
	Measurement string
	// EventMeasurement receives the dashboard events.
	EventMeasurement string
	Timeout          time.Duration
}

// Enabled reports whether URL and token are set.
func (c InfluxConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Token) != ""
}

// Telemetry reads environmental history from and writes dashboard events to InfluxDB.
type Telemetry struct {
	client      influxdb2.Client
	query       api.QueryAPI
	write       api.WriteAPIBlocking
	bucket      string
	measurement string
	events      string
	timeout     time.Duration
	log         *zap.SugaredLogger
}

func NewTelemetry(cfg InfluxConfig, log *zap.SugaredLogger) (*Telemetry, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	if cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	if cfg.Measurement == "" {
		cfg.Measurement = "sensor_data"
	}
	if cfg.EventMeasurement == "" {
		cfg.EventMeasurement = "dashboard_event"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Telemetry{
		client:      client,
		query:       client.QueryAPI(cfg.Org),
		write:       client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		bucket:      cfg.Bucket,
		measurement: cfg.Measurement,
		events:      cfg.EventMeasurement,
		timeout:     cfg.Timeout,
		log:         log,
	}, nil
}

func buildHistoryFlux(bucket, measurement, field string, from, to time.Time) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q and r._field == %q)
  |> aggregateWindow(every: 1d, fn: mean, createEmpty: false)
  |> keep(columns: ["_time","_value"])
  |> sort(columns: ["_time"])
`, bucket, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339), measurement, field)
}

// History returns the daily means of field over [from, to].
func (t *Telemetry) History(ctx context.Context, field string, from, to time.Time) ([]entities.Sample, error) {
	if t == nil {
		return nil, ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	res, err := t.query.Query(ctx, buildHistoryFlux(t.bucket, t.measurement, field, from, to))
	if err != nil {
		return nil, fmt.Errorf("influx query %s: %w", field, err)
	}
	defer func() {
		if cerr := res.Close(); cerr != nil {
			t.log.Debugf("telemetry: close result: %v", cerr)
		}
	}()

	var out []entities.Sample
	for res.Next() {
		rec := res.Record()
		v, ok := toFloat(rec.Value())
		if !ok {
			continue
		}
		out = append(out, entities.Sample{Time: rec.Time().UTC(), Value: v})
	}
	if err := res.Err(); err != nil {
		return out, fmt.Errorf("influx iterate %s: %w", field, err)
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// EventToPoint normalizza un DashboardEvent in un *write.Point.
func EventToPoint(measurement string, evt messages.DashboardEvent) *write.Point {
	tags := map[string]string{"kind": evt.Kind}
	if evt.Plot != "" {
		tags["plot"] = evt.Plot
	}
	for k, v := range evt.Tags {
		tags[k] = v
	}
	fields := map[string]interface{}{}
	for k, v := range evt.Fields {
		fields[k] = v
	}
	// almeno un field per punto
	if _, ok := fields["count"]; !ok {
		fields["count"] = int64(1)
	}
	ts := evt.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return influxdb2.NewPoint(measurement, tags, fields, ts)
}

// Emit writes the event synchronously.
func (t *Telemetry) Emit(ctx context.Context, evt messages.DashboardEvent) error {
	if t == nil {
		return ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if err := t.write.WritePoint(ctx, EventToPoint(t.events, evt)); err != nil {
		return fmt.Errorf("influx write %s: %w", evt.Kind, err)
	}
	t.log.Debugf("telemetry: wrote %s kind=%s plot=%s", t.events, evt.Kind, evt.Plot)
	return nil
}

// Ping checks that the server answers.
func (t *Telemetry) Ping(ctx context.Context) error {
	if t == nil {
		return ErrDisabled
	}
	ok, err := t.client.Ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("influx not ready")
	}
	return nil
}

func (t *Telemetry) Close() {
	if t != nil {
		t.client.Close()
	}
}
