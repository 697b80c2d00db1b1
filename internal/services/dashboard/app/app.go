// Package app is the HTTP shell of the dashboard: gin routes, sessions,
// the HTML layout and the JSON API.
package app

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/catalog"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/views"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/dashboard/session"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/live"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

type Config struct {
	Catalog *catalog.Catalog
	// Seed of the varying sections; 0 means time based.
	Seed         int64
	SessionTTL   time.Duration
	CookieSecure bool
	// RenderTimeout bounds page renders that reach live sources.
	RenderTimeout time.Duration

	Live    *live.Sources
	History live.HistorySource
	Events  live.EventSink

	// Ready is consulted by /readyz; nil means always ready.
	Ready func(ctx context.Context) error
	Now   func() time.Time

	Logger *zap.SugaredLogger
}

type Dashboard struct {
	cfg      Config
	sessions *session.Store
	router   *gin.Engine
	log      *zap.SugaredLogger
}

// New builds the dashboard and its routes.
func New(cfg Config) (*Dashboard, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 5 * time.Second
	}
	if cfg.Live == nil {
		cfg.Live = live.NewSources(cfg.Logger)
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"figure": figureJS,
		"deref":  func(f *float64) float64 { return *f },
	}).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		cfg:      cfg,
		sessions: session.NewStore(cfg.SessionTTL).WithClock(cfg.Now),
		log:      cfg.Logger,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), d.observe(), d.withSession())
	r.SetHTMLTemplate(tmpl)
	d.router = r
	d.routes()
	return d, nil
}

// Handler serves the dashboard.
func (d *Dashboard) Handler() http.Handler { return d.router }

// Sessions exposes the session store, for the expiry janitor.
func (d *Dashboard) Sessions() *session.Store { return d.sessions }

func figureJS(c views.Chart) (template.JS, error) {
	b, err := json.Marshal(c.Figure())
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}
