package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/dashboard/session"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrichain_http_requests_total",
		Help: "HTTP requests served by the dashboard.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agrichain_http_request_duration_seconds",
		Help:    "Latency of dashboard HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	pageRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrichain_page_renders_total",
		Help: "Page renders by page and outcome.",
	}, []string{"page", "outcome"})

	dashboardEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agrichain_dashboard_events_total",
		Help: "User actions recorded by the dashboard.",
	}, []string{"kind", "outcome"})
)

const sessionKey = "sid"

// observe logs every request and feeds the HTTP metrics.
func (d *Dashboard) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		if route == "/metrics" || route == "/healthz" {
			return
		}
		d.log.Debugf("dashboard: %s %s [%dms] status=%d", c.Request.Method, c.Request.URL.Path, elapsed.Milliseconds(), status)
	}
}

// sessionless routes are scraped by monitoring and never get a session.
var sessionless = map[string]bool{"/metrics": true, "/healthz": true, "/readyz": true}

// withSession attaches the session id, issuing a new cookie when the
// browser has none or its session expired.
func (d *Dashboard) withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionless[c.FullPath()] {
			c.Next()
			return
		}
		id, _ := c.Cookie(session.CookieName)
		sid, _, created := d.sessions.Ensure(id)
		if created || sid != id {
			ttl := d.cfg.SessionTTL
			if ttl <= 0 {
				ttl = 30 * time.Minute
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(session.CookieName, sid, int(ttl.Seconds()), "/", "", d.cfg.CookieSecure, true)
		}
		c.Set(sessionKey, sid)
		c.Next()
	}
}

func sessionID(c *gin.Context) string { return c.GetString(sessionKey) }
