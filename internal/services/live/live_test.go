package live

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/messages"
	"github.com/LeonardoBeccarini/agrichain_dashboard/pkg/dedup"
	"github.com/LeonardoBeccarini/agrichain_dashboard/pkg/rabbitmq"
)

func TestLatestReadingTolerantDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/latest", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"field_id":"field_1","sensor_id":"S002","moisture":"27.5","time":"2024-01-15T10:00:00Z","temperature":19.2},
			{"field_id":"field_1","sensor_id":"S001","moisture":31,"aggregated":true,"timestamp":"2024-01-15T10:05:00Z","ph":"6.8"}
		]`)
	}))
	defer srv.Close()

	u := NewUpstream(UpstreamConfig{BaseURL: srv.URL + "/"})
	require.True(t, u.Enabled())

	rs, err := u.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, rs, 2)

	assert.Equal(t, "S001", rs[0].ID)
	assert.Equal(t, 31.0, rs[0].Moisture)
	assert.Equal(t, 6.8, rs[0].PH)
	assert.Equal(t, entities.SensorNormal, rs[0].Status)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 5, 0, 0, time.UTC), rs[0].Timestamp.UTC())

	assert.Equal(t, "S002", rs[1].ID)
	assert.Equal(t, 27.5, rs[1].Moisture)
	assert.Equal(t, 19.2, rs[1].Temperature)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), rs[1].Timestamp.UTC())
	assert.True(t, rs[1].Has(entities.MetricTemperature))
	assert.False(t, rs[1].Has(entities.MetricPH))
}

func TestMeasuredZeroIsReported(t *testing.T) {
	var p LatestReading
	require.NoError(t, p.UnmarshalJSON([]byte(`{"sensor_id":"S001","temperature":0,"ph":"0"}`)))
	r := p.Reading()
	assert.True(t, r.Has(entities.MetricTemperature))
	assert.True(t, r.Has(entities.MetricPH))
	assert.False(t, r.Has(entities.MetricHumidity))
	assert.False(t, r.Has(entities.MetricMoisture))

	feed := NewFeed(nil, nil)
	require.NoError(t, feed.Ingest("sensor/aggregated/P001/S001-A1", []byte(`{"moisture":0,"temperature":0}`)))
	rs, err := feed.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.True(t, rs[0].Has(entities.MetricTemperature))
	assert.True(t, rs[0].Has(entities.MetricMoisture))
	assert.False(t, rs[0].Has(entities.MetricSalinity))
}

func TestLatestReadingWithoutSensorIsFault(t *testing.T) {
	var p LatestReading
	require.NoError(t, p.UnmarshalJSON([]byte(`{"field_id":"f","moisture":true}`)))
	r := p.Reading()
	assert.Equal(t, entities.SensorFault, r.Status)
	assert.Equal(t, 1.0, r.Moisture)
}

func TestUpstreamRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[{"field_id":"f","sensor_id":"S1","moisture":20}]`)
	}))
	defer srv.Close()

	u := NewUpstream(UpstreamConfig{BaseURL: srv.URL, Retries: 3, RetryInterval: time.Millisecond})
	rs, err := u.Latest(context.Background())
	require.NoError(t, err)
	assert.Len(t, rs, 1)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "closed", u.State())
}

func TestUpstreamClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	u := NewUpstream(UpstreamConfig{Name: "persistence", BaseURL: srv.URL, Retries: 5, RetryInterval: time.Millisecond})
	_, err := u.Latest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistence: upstream status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestUpstreamBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := NewUpstream(UpstreamConfig{BaseURL: srv.URL, Retries: 0, BreakerFailures: 2, BreakerOpenFor: time.Minute})
	for i := 0; i < 2; i++ {
		_, err := u.Latest(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, "open", u.State())

	_, err := u.Latest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(2), calls.Load())
}

func TestUpstreamDisabled(t *testing.T) {
	u := NewUpstream(UpstreamConfig{})
	assert.False(t, u.Enabled())
	_, err := u.Latest(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)

	var nilUp *Upstream
	assert.Equal(t, "disabled", nilUp.State())
}

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

func TestFeedKeepsLatestPerSensor(t *testing.T) {
	f := NewFeed(dedup.New(time.Minute, 100), nil)

	require.NoError(t, f.Handle("", fakeMessage{
		topic:   "sensor/aggregated/field_1/S002",
		payload: []byte(`{"field_id":"field_1","sensor_id":"S002","moisture":30,"temperature":21.5,"timestamp":"2024-01-15T10:00:00Z"}`),
	}))
	// identifiers from the topic
	require.NoError(t, f.Ingest("sensor/aggregated/field_2/S001", []byte(`{"moisture":22,"timestamp":"2024-01-15T10:00:00Z"}`)))
	// older reading does not replace the newer one
	require.NoError(t, f.Ingest("sensor/aggregated/field_1/S002", []byte(`{"moisture":10,"timestamp":"2024-01-15T09:00:00Z"}`)))

	rs, err := f.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "S001", rs[0].ID)
	assert.Equal(t, "field_2", rs[0].FieldID)
	assert.Equal(t, 22.0, rs[0].Moisture)
	assert.Equal(t, "S002", rs[1].ID)
	assert.Equal(t, 30.0, rs[1].Moisture)
	assert.Equal(t, 21.5, rs[1].Temperature)
}

func TestFeedRejectsMalformed(t *testing.T) {
	f := NewFeed(nil, nil)
	assert.Error(t, f.Ingest("sensor/aggregated/x/y", []byte(`{`)))
	assert.Error(t, f.Ingest("sensor/aggregated", []byte(`{"moisture":1}`)))
	// Handle swallows the error
	assert.NoError(t, f.Handle("", fakeMessage{topic: "t", payload: []byte("nope")}))
	assert.Equal(t, 0, f.Len())
}

func TestFeedDropsDuplicates(t *testing.T) {
	f := NewFeed(nil, nil)
	p := []byte(`{"sensor_id":"S1","field_id":"f","moisture":1}`)
	require.NoError(t, f.Ingest("sensor/aggregated/f/S1", p))
	require.NoError(t, f.Ingest("sensor/aggregated/f/S1", p))
	assert.Equal(t, 1, f.Len())
}

type stubConsumer struct {
	handler rabbitmq.Handler
	ran     bool
}

func (s *stubConsumer) SetHandler(h rabbitmq.Handler) { s.handler = h }
func (s *stubConsumer) ConsumeMessage(ctx context.Context) {
	s.ran = true
	_ = s.handler("sensor/aggregated/#", fakeMessage{topic: "sensor/aggregated/f/S9", payload: []byte(`{"moisture":5}`)})
	<-ctx.Done()
}

func TestFeedRun(t *testing.T) {
	f := NewFeed(nil, nil)
	c := &stubConsumer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.Run(ctx, c)
	assert.True(t, c.ran)
	assert.Equal(t, 1, f.Len())
}

const historyCSV = "#datatype,string,long,dateTime:RFC3339,double\n" +
	"#group,false,false,false,false\n" +
	"#default,_result,,,\n" +
	",result,table,_time,_value\n" +
	",,0,2024-01-14T00:00:00Z,18.5\n" +
	",,0,2024-01-15T00:00:00Z,19.25\n" +
	"\n"

type fakeInflux struct {
	mu     sync.Mutex
	query  string
	writes []string
}

func (f *fakeInflux) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/query", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.query = string(b)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = io.WriteString(w, historyCSV)
	})
	mux.HandleFunc("/api/v2/write", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.writes = append(f.writes, string(b))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestTelemetry(t *testing.T) (*Telemetry, *fakeInflux) {
	t.Helper()
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	tel, err := NewTelemetry(InfluxConfig{URL: srv.URL, Token: "tok", Org: "agri", Bucket: "sensors", Measurement: "environment"}, nil)
	require.NoError(t, err)
	t.Cleanup(tel.Close)
	return tel, fake
}

func TestTelemetryHistory(t *testing.T) {
	tel, fake := newTestTelemetry(t)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 30)

	samples, err := tel.History(context.Background(), "temperature", from, to)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 18.5, samples[0].Value)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), samples[1].Time)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.query, `r._measurement == \"environment\"`)
	assert.Contains(t, fake.query, "aggregateWindow(every: 1d")
}

func TestTelemetryEmitAndPing(t *testing.T) {
	tel, fake := newTestTelemetry(t)
	require.NoError(t, tel.Ping(context.Background()))

	err := tel.Emit(context.Background(), messages.DashboardEvent{
		Kind:      "recommendation.generated",
		SessionID: "abc",
		Plot:      "P001",
		Fields:    map[string]any{"crops": int64(3)},
		Timestamp: time.Unix(1705312800, 0),
	})
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.writes, 1)
	line := fake.writes[0]
	assert.True(t, strings.HasPrefix(line, "dashboard_event,"))
	assert.Contains(t, line, "kind=recommendation.generated")
	assert.Contains(t, line, "plot=P001")
	assert.Contains(t, line, "count=1i")
	assert.Contains(t, line, "crops=3i")
}

func TestTelemetryDisabled(t *testing.T) {
	tel, err := NewTelemetry(InfluxConfig{}, nil)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Nil(t, tel)

	_, err = NewTelemetry(InfluxConfig{URL: "http://influx:8086", Token: "x"}, nil)
	assert.Error(t, err)

	var nilTel *Telemetry
	assert.ErrorIs(t, nilTel.Emit(context.Background(), messages.DashboardEvent{}), ErrDisabled)
	assert.ErrorIs(t, nilTel.Ping(context.Background()), ErrDisabled)
}

func TestBuildHistoryFlux(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q := buildHistoryFlux("b", "m", "ph", from, from.Add(24*time.Hour))
	assert.Contains(t, q, `from(bucket: "b")`)
	assert.Contains(t, q, "range(start: 2024-01-01T00:00:00Z, stop: 2024-01-02T00:00:00Z)")
	assert.Contains(t, q, `r._field == "ph"`)
}

type recordingPublisher struct {
	topics []string
	err    error
	block  bool
}

func (p *recordingPublisher) PublishJSON(ctx context.Context, topic string, _ any) error {
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	p.topics = append(p.topics, topic)
	return p.err
}
func (p *recordingPublisher) Close() {}

type errSink struct{ err error }

func (s errSink) Emit(context.Context, messages.DashboardEvent) error { return s.err }

func TestSinksFanOut(t *testing.T) {
	pub := &recordingPublisher{}
	sinks := Sinks{NewMQTTSink(pub), nil, errSink{err: ErrDisabled}}

	require.NoError(t, sinks.Emit(context.Background(), messages.DashboardEvent{Kind: "config.validated", Plot: "P002"}))
	require.NoError(t, sinks.Emit(context.Background(), messages.DashboardEvent{Kind: "sensors.synced"}))
	assert.Equal(t, []string{"event/recommendation/P002", "event/recommendation/all"}, pub.topics)

	boom := errors.New("boom")
	err := Sinks{errSink{err: boom}, NewMQTTSink(nil)}.Emit(context.Background(), messages.DashboardEvent{})
	assert.ErrorIs(t, err, boom)
}

func TestMQTTSinkHonoursDeadline(t *testing.T) {
	sink := NewMQTTSink(&recordingPublisher{block: true})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sink.Emit(ctx, messages.DashboardEvent{Kind: "recommendation.generated"}) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("Emit ignored the context deadline")
	}
}

type staticSource struct {
	rs  []entities.SensorReading
	err error
}

func (s staticSource) Latest(context.Context) ([]entities.SensorReading, error) { return s.rs, s.err }

func TestSourcesOrder(t *testing.T) {
	one := []entities.SensorReading{{Sensor: entities.Sensor{ID: "S1"}}}

	s := NewSources(nil).
		Add("feed", staticSource{}).
		Add("upstream", staticSource{rs: one}).
		Add("never", staticSource{err: errors.New("unused")})
	rs, from, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "upstream", from)
	assert.Equal(t, one, rs)

	s = NewSources(nil).Add("feed", staticSource{err: ErrDisabled}).Add("upstream", staticSource{err: errors.New("down")})
	rs, from, err = s.Latest(context.Background())
	assert.Empty(t, rs)
	assert.Empty(t, from)
	assert.ErrorContains(t, err, "down")

	rs, _, err = NewSources(nil).Latest(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, rs)
}

var _ mqtt.Message = fakeMessage{}
