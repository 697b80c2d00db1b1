package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/catalog"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/messages"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/views"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/dashboard/pages"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/dashboard/session"
)

func (d *Dashboard) routes() {
	r := d.router

	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/pages/home") })
	r.GET("/pages/:page", d.handlePage)
	r.GET("/charts/:page/:chart", d.handleChartPNG)

	api := r.Group("/api")
	api.GET("/pages/:page", d.handlePageJSON)
	api.GET("/catalog", func(c *gin.Context) { c.JSON(http.StatusOK, d.cfg.Catalog) })
	api.GET("/session", d.handleSession)
	api.POST("/recommend/validate", d.handleValidate)
	api.POST("/recommend/generate", d.handleGenerate)
	api.POST("/recommend/reset", d.handleReset)
	api.POST("/sensors/sync", d.handleSync)
	api.POST("/plots/mode", d.handleMode)
	api.POST("/plots/irrigation", d.handleIrrigation)
	api.POST("/crop/action", d.handleCropAction)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": d.sessions.Len(), "live_sources": d.cfg.Live.Len()})
	})
	r.GET("/readyz", d.handleReady)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (d *Dashboard) env(c *gin.Context, flags session.Flags) *pages.Env {
	return &pages.Env{
		Catalog: d.cfg.Catalog,
		Seed:    d.cfg.Seed,
		Flags:   flags,
		Options: c.Request.URL.Query(),
		Live:    d.cfg.Live,
		History: d.cfg.History,
		Now:     d.cfg.Now,
		Log:     d.log,
	}
}

// render builds the page named by the :page parameter. A plot mode picked
// in the query is remembered by the session.
func (d *Dashboard) render(c *gin.Context) (views.Page, session.Flags, error) {
	entry, err := pages.Lookup(c.Param("page"))
	if err != nil {
		pageRenders.WithLabelValues("unknown", "not_found").Inc()
		return views.Page{}, session.Flags{}, err
	}
	flags, _ := d.sessions.Update(sessionID(c), func(f *session.Flags) {
		if m := c.Query("mode"); entry.Key == "plots" && session.ValidMode(m) {
			f.ActiveMode = m
		}
	})

	ctx, cancel := context.WithTimeout(c.Request.Context(), d.cfg.RenderTimeout)
	defer cancel()
	p, err := pages.Render(ctx, entry.Key, d.env(c, flags))
	if err != nil {
		pageRenders.WithLabelValues(entry.Key, "error").Inc()
		d.log.Errorf("dashboard: render %s failed: %v", entry.Key, err)
		return views.Page{}, flags, err
	}
	pageRenders.WithLabelValues(entry.Key, "ok").Inc()
	return p, flags, nil
}

func renderStatus(err error) int {
	if errors.Is(err, pages.ErrUnknownPage) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type navItem struct {
	Key, Label, Icon string
	Active           bool
}

type shell struct {
	App         catalog.AppConfig
	Title       string
	Colors      catalog.Colors
	Nav         []navItem
	Page        views.Page
	Date        string
	Temperature string
	Notice      string
}

func (d *Dashboard) handlePage(c *gin.Context) {
	p, flags, err := d.render(c)
	if err != nil {
		c.HTML(renderStatus(err), "error.tmpl", gin.H{"Status": renderStatus(err), "Error": err.Error()})
		return
	}

	// la notifica si mostra una sola volta
	var notice string
	d.sessions.Update(sessionID(c), func(f *session.Flags) {
		notice, f.Notice = f.Notice, ""
	})

	nav := make([]navItem, 0, len(pages.Registry))
	for _, e := range pages.Registry {
		nav = append(nav, navItem{Key: e.Key, Label: e.Label, Icon: e.Icon, Active: e.Key == p.Key})
	}
	date := flags.CurrentDate
	if date.IsZero() {
		date = session.DefaultDate
	}
	c.HTML(http.StatusOK, "page.tmpl", shell{
		App:         d.cfg.Catalog.App,
		Title:       d.cfg.Catalog.Page.PageTitle,
		Colors:      d.cfg.Catalog.Colors,
		Nav:         nav,
		Page:        p,
		Date:        date.Format("2006-01-02"),
		Temperature: "18°C",
		Notice:      notice,
	})
}

func (d *Dashboard) handlePageJSON(c *gin.Context) {
	p, _, err := d.render(c)
	if err != nil {
		c.JSON(renderStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func findChart(sections []views.Section, id string) (views.Chart, bool) {
	for _, s := range sections {
		for _, ch := range s.Charts {
			if ch.ID == id {
				return ch, true
			}
		}
		if ch, ok := findChart(s.Sections, id); ok {
			return ch, true
		}
	}
	return views.Chart{}, false
}

func (d *Dashboard) handleChartPNG(c *gin.Context) {
	id, ok := strings.CutSuffix(c.Param("chart"), ".png")
	if !ok || id == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "charts are served as <id>.png"})
		return
	}
	p, _, err := d.render(c)
	if err != nil {
		c.JSON(renderStatus(err), gin.H{"error": err.Error()})
		return
	}
	ch, ok := findChart(p.Sections, id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown chart " + id})
		return
	}
	var buf bytes.Buffer
	if err := RenderPNG(&buf, ch); err != nil {
		if errors.Is(err, ErrUnsupportedChart) {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
			return
		}
		d.log.Warnf("dashboard: png %s/%s failed: %v", p.Key, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (d *Dashboard) handleSession(c *gin.Context) {
	flags, ok := d.sessions.Get(sessionID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session expired"})
		return
	}
	c.JSON(http.StatusOK, flags)
}

func (d *Dashboard) handleReady(c *gin.Context) {
	if d.cfg.Ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d.cfg.RenderTimeout)
		defer cancel()
		if err := d.cfg.Ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// reply answers a browser form with a redirect back to the page it came
// from and every other client with JSON.
func (d *Dashboard) reply(c *gin.Context, status int, body gin.H) {
	d.replyBack(c, c.PostForm("back"), status, body)
}

func (d *Dashboard) replyBack(c *gin.Context, back string, status int, body gin.H) {
	if strings.HasPrefix(back, "/pages/") {
		c.Redirect(http.StatusSeeOther, back)
		return
	}
	c.JSON(status, body)
}

// withoutParam drops key from the query of a local URL.
func withoutParam(back, key string) string {
	u, err := url.Parse(back)
	if err != nil {
		return back
	}
	q := u.Query()
	if !q.Has(key) {
		return back
	}
	q.Del(key)
	u.RawQuery = q.Encode()
	return u.String()
}

func (d *Dashboard) notify(c *gin.Context, fn func(*session.Flags)) {
	d.sessions.Update(sessionID(c), fn)
}

func (d *Dashboard) emit(c *gin.Context, evt messages.DashboardEvent) {
	if d.cfg.Events == nil {
		return
	}
	evt.SessionID = sessionID(c)
	evt.Timestamp = d.cfg.Now().UTC()
	ctx, cancel := context.WithTimeout(c.Request.Context(), d.cfg.RenderTimeout)
	defer cancel()
	if err := d.cfg.Events.Emit(ctx, evt); err != nil {
		dashboardEvents.WithLabelValues(evt.Kind, "error").Inc()
		d.log.Warnf("dashboard: emit %s failed: %v", evt.Kind, err)
		return
	}
	dashboardEvents.WithLabelValues(evt.Kind, "ok").Inc()
}
