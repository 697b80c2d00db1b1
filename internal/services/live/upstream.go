package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
)

var upstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "agrichain",
	Subsystem: "upstream",
	Name:      "calls_total",
	Help:      "Calls to the upstream services, by outcome (ok, error, open).",
}, []string{"upstream", "outcome"})

// ErrDisabled is returned by optional integrations that are not configured.
var ErrDisabled = errors.New("live: integration disabled")

type UpstreamConfig struct {
	Name    string
	BaseURL string
	Path    string
	Timeout time.Duration

	Retries         int
	RetryInterval   time.Duration
	BreakerFailures int
	BreakerOpenFor  time.Duration
	BreakerInterval time.Duration

	Logger *zap.SugaredLogger
}

// Upstream incapsula le chiamate HTTP verso il persistence service con
// retry (backoff) dentro un circuit breaker.
type Upstream struct {
	name      string
	base      string
	path      string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
	retries   int
	retryWait time.Duration
	log       *zap.SugaredLogger
}

func NewUpstream(cfg UpstreamConfig) *Upstream {
	if cfg.Name == "" {
		cfg.Name = "persistence"
	}
	if cfg.Path == "" {
		cfg.Path = "/data/latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}
	if cfg.BreakerFailures < 1 {
		cfg.BreakerFailures = 3
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	fails := uint32(cfg.BreakerFailures)
	log := cfg.Logger
	return &Upstream{
		name:   cfg.Name,
		base:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		path:   "/" + strings.TrimLeft(strings.TrimSpace(cfg.Path), "/"),
		client: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     cfg.Name,
			Interval: cfg.BreakerInterval,
			Timeout:  cfg.BreakerOpenFor,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= fails
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warnf("upstream: breaker %s %s -> %s", name, from, to)
			},
		}),
		retries:   cfg.Retries,
		retryWait: cfg.RetryInterval,
		log:       log,
	}
}

// Enabled reports whether a base URL is configured.
func (u *Upstream) Enabled() bool { return u != nil && u.base != "" }

// State is the breaker state ("closed", "open", "half-open").
func (u *Upstream) State() string {
	if u == nil {
		return "disabled"
	}
	return u.breaker.State().String()
}

// Latest fetches the most recent reading per sensor, sorted by sensor id.
func (u *Upstream) Latest(ctx context.Context) ([]entities.SensorReading, error) {
	var rows []LatestReading
	if err := u.GetJSON(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]entities.SensorReading, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Reading())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetJSON esegue la GET e decodifica JSON in out.
func (u *Upstream) GetJSON(ctx context.Context, out any) error {
	if !u.Enabled() {
		return ErrDisabled
	}
	_, err := u.breaker.Execute(func() (any, error) {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = u.retryWait
		var bo backoff.BackOff = eb
		if u.retries >= 0 {
			bo = backoff.WithMaxRetries(bo, uint64(u.retries))
		}
		return nil, backoff.Retry(func() error { return u.once(ctx, out) }, backoff.WithContext(bo, ctx))
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		upstreamCalls.WithLabelValues(u.name, "open").Inc()
	case err != nil:
		upstreamCalls.WithLabelValues(u.name, "error").Inc()
	default:
		upstreamCalls.WithLabelValues(u.name, "ok").Inc()
		return nil
	}
	return fmt.Errorf("%s: %w", u.name, err)
}

func (u *Upstream) once(ctx context.Context, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.base+u.path, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := u.client.Do(req)
	if err != nil {
		u.log.Debugf("upstream: %s request error: %v", u.name, err)
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return backoff.Permanent(fmt.Errorf("upstream status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode error: %w", err))
	}
	return nil
}
