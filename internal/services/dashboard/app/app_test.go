package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/messages"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/views"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/dashboard/session"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/live"
)

var testNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

type recordingSink struct {
	mu     sync.Mutex
	events []messages.DashboardEvent
	err    error
}

func (s *recordingSink) Emit(_ context.Context, evt messages.DashboardEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return s.err
}

func (s *recordingSink) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

type stubSource struct {
	rs []entities.SensorReading
}

func (s stubSource) Latest(context.Context) ([]entities.SensorReading, error) { return s.rs, nil }

func newDashboard(t *testing.T, mutate func(*Config)) *Dashboard {
	t.Helper()
	cfg := Config{Seed: 7, Now: func() time.Time { return testNow }}
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := New(cfg)
	require.NoError(t, err)
	return d
}

// client replays the session cookie across requests.
type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (c *client) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) flags() session.Flags {
	c.t.Helper()
	rec := c.do(http.MethodGet, "/api/session", nil)
	require.Equal(c.t, http.StatusOK, rec.Code)
	var f session.Flags
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &f))
	return f
}

func TestRootRedirects(t *testing.T) {
	c := &client{t: t, h: newDashboard(t, nil).Handler()}
	rec := c.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/pages/home", rec.Header().Get("Location"))
}

func TestHTMLPages(t *testing.T) {
	c := &client{t: t, h: newDashboard(t, nil).Handler()}
	for _, key := range []string{"home", "plots", "recommend", "crop", "analysis"} {
		rec := c.do(http.MethodGet, "/pages/"+key, nil)
		require.Equal(t, http.StatusOK, rec.Code, key)
		assert.Contains(t, rec.Body.String(), "系统运行正常", key)
		assert.Contains(t, rec.Body.String(), "2024-01-15", key)
	}
	require.NotNil(t, c.cookie)
	assert.True(t, c.cookie.HttpOnly)

	rec := c.do(http.MethodGet, "/pages/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "返回首页")
}

func TestPageJSON(t *testing.T) {
	c := &client{t: t, h: newDashboard(t, nil).Handler()}
	rec := c.do(http.MethodGet, "/api/pages/crop?category="+url.QueryEscape("经济作物"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p views.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "crop", p.Key)
	assert.Equal(t, testNow, p.GeneratedAt)
	assert.NotEmpty(t, p.Sections)

	rec = c.do(http.MethodGet, "/api/pages/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogEndpoint(t *testing.T) {
	c := &client{t: t, h: newDashboard(t, nil).Handler()}
	rec := c.do(http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "recommendations")
}

func TestValidateFlow(t *testing.T) {
	sink := &recordingSink{}
	c := &client{t: t, h: newDashboard(t, func(cfg *Config) { cfg.Events = sink }).Handler()}

	assert.False(t, c.flags().ConfigValidated)

	rec := c.do(http.MethodPost, "/api/recommend/validate", url.Values{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"source":"mock"`)

	f := c.flags()
	assert.True(t, f.ConfigValidated)
	assert.Equal(t, "✅ 配置数据验证通过", f.Notice)

	// the notice is consumed by the next page
	rec = c.do(http.MethodGet, "/pages/recommend", nil)
	assert.Contains(t, rec.Body.String(), "✅ 配置数据验证通过")
	assert.Empty(t, c.flags().Notice)

	rec = c.do(http.MethodPost, "/api/recommend/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, c.flags().ConfigValidated)
	assert.Equal(t, []string{"config.validated"}, sink.kinds())
}

func TestValidateRejects(t *testing.T) {
	c := &client{t: t, h: newDashboard(t, nil).Handler()}

	rec := c.do(http.MethodPost, "/api/recommend/validate", url.Values{"budget": {"1550"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, c.flags().ConfigValidated)

	rec = c.do(http.MethodPost, "/api/recommend/validate", url.Values{"data_mode": {"manual"}, "ph_value": {"13.5"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "pH值")

	// outside the binding limits
	rec = c.do(http.MethodPost, "/api/recommend/validate", url.Values{"budget": {"100"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateEmits(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	c := &client{t: t, h: newDashboard(t, func(cfg *Config) { cfg.Events = sink }).Handler()}

	rec := c.do(http.MethodPost, "/api/recommend/generate", url.Values{"budget": {"2000"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	f := c.flags()
	assert.True(t, f.RecommendationsReady)
	assert.NotEmpty(t, f.LastPlot)

	require.Len(t, sink.events, 1)
	evt := sink.events[0]
	assert.Equal(t, "recommendation.generated", evt.Kind)
	assert.Equal(t, 2000, evt.Fields["budget"])
	assert.Equal(t, 3, evt.Fields["crops"])
	assert.Equal(t, c.cookie.Value, evt.SessionID)
	assert.Equal(t, testNow, evt.Timestamp)
}

func TestSyncUsesLiveReadings(t *testing.T) {
	sources := live.NewSources(nil).Add("stub", stubSource{rs: []entities.SensorReading{{
		Sensor:      entities.Sensor{ID: "S001-A1"},
		Temperature: 21, Humidity: 55, PH: 6.5,
		Reported:    entities.MetricTemperature | entities.MetricHumidity | entities.MetricPH,
	}}})
	c := &client{t: t, h: newDashboard(t, func(cfg *Config) { cfg.Live = sources }).Handler()}

	rec := c.do(http.MethodPost, "/api/sensors/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"stub"`)
	assert.True(t, c.flags().SensorSynced)

	rec = c.do(http.MethodPost, "/api/recommend/validate", url.Values{})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"stub"`)
}

func TestSyncWithoutSources(t *testing.T) {
	c := &client{t: t, h: newDashboard(t, nil).Handler()}
	rec := c.do(http.MethodPost, "/api/sensors/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"mock"`)
}

func TestPlotMode(t *testing.T) {
	c := &client{t: t, h: newDashboard(t, nil).Handler()}

	rec := c.do(http.MethodPost, "/api/plots/mode", url.Values{"value": {session.ModeSensors}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.ModeSensors, c.flags().ActiveMode)

	rec = c.do(http.MethodPost, "/api/plots/mode", url.Values{"value": {"teleport"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = c.do(http.MethodPost, "/api/plots/mode", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// a mode in the page query sticks
	c.do(http.MethodGet, "/pages/plots?mode="+session.ModePrecision, nil)
	assert.Equal(t, session.ModePrecision, c.flags().ActiveMode)
}

func TestModeSwitchAfterControlsApplied(t *testing.T) {
	c := &client{t: t, h: newDashboard(t, nil).Handler()}
	page := "/pages/plots?mode=" + session.ModeDrone + "&plot=P001"
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, page, nil).Code)
	require.Equal(t, session.ModeDrone, c.flags().ActiveMode)

	rec := c.do(http.MethodPost, "/api/plots/mode", url.Values{"value": {session.ModeSensors}, "back": {page}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	assert.Equal(t, "/pages/plots?plot=P001", loc)

	rec = c.do(http.MethodGet, loc, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.ModeSensors, c.flags().ActiveMode)
	assert.Contains(t, rec.Body.String(), "微传感器网络")
}

func TestCommands(t *testing.T) {
	sink := &recordingSink{}
	c := &client{t: t, h: newDashboard(t, func(cfg *Config) { cfg.Events = sink }).Handler()}

	rec := c.do(http.MethodPost, "/api/plots/irrigation", url.Values{"value": {"start"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "智能灌溉系统已启动")

	rec = c.do(http.MethodPost, "/api/crop/action", url.Values{"value": {"save"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "种植方案已保存")

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/api/plots/irrigation", url.Values{"value": {"flood"}}).Code)
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/api/crop/action", url.Values{"value": {"sell"}}).Code)
	assert.Equal(t, []string{"irrigation.command", "crop.action"}, sink.kinds())
}

func TestIrrigationFormsCarryThePlot(t *testing.T) {
	sink := &recordingSink{}
	c := &client{t: t, h: newDashboard(t, func(cfg *Config) { cfg.Events = sink }).Handler()}

	rec := c.do(http.MethodGet, "/pages/plots?mode="+session.ModePrecision+"&plot=P002", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="plot" value="P002"`)

	rec = c.do(http.MethodPost, "/api/plots/irrigation", url.Values{"value": {"start"}, "plot": {"P002"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "P002", sink.events[0].Plot)
}

func TestMetricDeltaArrows(t *testing.T) {
	c := &client{t: t, h: newDashboard(t, nil).Handler()}
	rec := c.do(http.MethodGet, "/pages/analysis", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<div class="up">↑ 2.3</div>`)
}

func TestFormsRedirectBack(t *testing.T) {
	c := &client{t: t, h: newDashboard(t, nil).Handler()}
	rec := c.do(http.MethodPost, "/api/plots/mode", url.Values{"value": {session.ModeDrone}, "back": {"/pages/plots?x=1"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/pages/plots?x=1", rec.Header().Get("Location"))

	// only dashboard pages are valid targets
	rec = c.do(http.MethodPost, "/api/plots/mode", url.Values{"value": {session.ModeDrone}, "back": {"https://example.com"}})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChartPNG(t *testing.T) {
	c := &client{t: t, h: newDashboard(t, nil).Handler()}

	rec := c.do(http.MethodGet, "/charts/crop/price.png", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	assert.Equal(t, http.StatusUnsupportedMediaType, c.do(http.MethodGet, "/charts/crop/adaptability.png", nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/charts/crop/nothing.png", nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/charts/crop/price", nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/charts/nowhere/price.png", nil).Code)
}

func TestHealthAndReadiness(t *testing.T) {
	ready := errors.New("influx unreachable")
	c := &client{t: t, h: newDashboard(t, func(cfg *Config) {
		cfg.Ready = func(context.Context) error { return ready }
	}).Handler()}

	rec := c.do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = c.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "influx unreachable")

	rec = c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agrichain_http_requests_total")
}

func TestProbesDoNotCreateSessions(t *testing.T) {
	d := newDashboard(t, nil)
	h := d.Handler()
	for _, target := range []string{"/healthz", "/readyz", "/metrics", "/healthz"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Empty(t, rec.Result().Cookies(), target)
	}
	assert.Zero(t, d.Sessions().Len())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Contains(t, rec.Body.String(), `"sessions":0`)
}
