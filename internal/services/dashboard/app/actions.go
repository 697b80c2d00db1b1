package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/messages"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/dashboard/pages"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/dashboard/session"
)

// actionRequest is the body of the button endpoints.
type actionRequest struct {
	Value string `form:"value" json:"value" binding:"required"`
	Plot  string `form:"plot" json:"plot"`
}

// bindConfig overlays the request (query, form or JSON body) on the default form.
func (d *Dashboard) bindConfig(c *gin.Context) (pages.RecommendConfig, bool) {
	cfg := pages.DefaultConfig(d.cfg.Catalog)
	if err := c.ShouldBind(&cfg); err != nil {
		d.reply(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return cfg, false
	}
	return cfg, true
}

// checkConfig validates cfg against the readings the page would show.
func (d *Dashboard) checkConfig(c *gin.Context, cfg pages.RecommendConfig) ([]pages.SensorValue, string, error) {
	flags, _ := d.sessions.Get(sessionID(c))
	ctx, cancel := context.WithTimeout(c.Request.Context(), d.cfg.RenderTimeout)
	defer cancel()
	readings, source := pages.CurrentReadings(ctx, d.env(c, flags), cfg)
	return readings, source, pages.ValidateConfig(d.cfg.Catalog, cfg, readings)
}

func (d *Dashboard) handleValidate(c *gin.Context) {
	cfg, ok := d.bindConfig(c)
	if !ok {
		return
	}
	readings, source, err := d.checkConfig(c, cfg)
	if err != nil {
		d.notify(c, func(f *session.Flags) {
			f.ConfigValidated = false
			f.Notice = "❌ " + err.Error()
		})
		d.reply(c, http.StatusUnprocessableEntity, gin.H{"valid": false, "error": err.Error()})
		return
	}
	d.notify(c, func(f *session.Flags) {
		f.ConfigValidated = true
		f.Notice = "✅ 配置数据验证通过"
	})
	d.emit(c, messages.DashboardEvent{
		Kind:   "config.validated",
		Plot:   cfg.Plot,
		Fields: map[string]any{"budget": cfg.Budget, "readings": len(readings)},
		Tags:   map[string]string{"source": source, "data_mode": cfg.DataMode},
	})
	d.reply(c, http.StatusOK, gin.H{"valid": true, "source": source, "readings": readings})
}

func (d *Dashboard) handleGenerate(c *gin.Context) {
	cfg, ok := d.bindConfig(c)
	if !ok {
		return
	}
	readings, source, err := d.checkConfig(c, cfg)
	if err != nil {
		d.notify(c, func(f *session.Flags) { f.Notice = "❌ " + err.Error() })
		d.reply(c, http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	recs := d.cfg.Catalog.Recommendations
	d.notify(c, func(f *session.Flags) {
		f.RecommendationsReady = true
		f.LastPlot = cfg.Plot
		f.Notice = "🎉 推荐完成！为您生成了个性化种植方案"
	})
	d.emit(c, messages.DashboardEvent{
		Kind: "recommendation.generated",
		Plot: cfg.Plot,
		Fields: map[string]any{
			"crops":    len(recs),
			"budget":   cfg.Budget,
			"readings": len(readings),
		},
		Tags: map[string]string{
			"season":     cfg.Season,
			"risk":       cfg.Risk,
			"target_use": cfg.TargetUse,
			"source":     source,
		},
	})
	d.reply(c, http.StatusOK, gin.H{"recommendations": recs, "source": source})
}

func (d *Dashboard) handleReset(c *gin.Context) {
	d.notify(c, func(f *session.Flags) {
		f.ConfigValidated = false
		f.RecommendationsReady = false
	})
	d.reply(c, http.StatusOK, gin.H{"reset": true})
}

// handleSync marks the session as synced; pages then prefer live readings
// whenever a source has some.
func (d *Dashboard) handleSync(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), d.cfg.RenderTimeout)
	defer cancel()
	rs, source, err := d.cfg.Live.Latest(ctx)
	if err != nil {
		d.log.Warnf("dashboard: sync found no live data: %v", err)
	}
	if len(rs) == 0 {
		source = "mock"
	}
	d.notify(c, func(f *session.Flags) {
		f.SensorSynced = true
		f.Notice = "✅ 数据同步完成"
	})
	d.emit(c, messages.DashboardEvent{
		Kind:   "sensors.synced",
		Fields: map[string]any{"readings": len(rs)},
		Tags:   map[string]string{"source": source},
	})
	d.reply(c, http.StatusOK, gin.H{"synced": true, "source": source, "readings": len(rs)})
}

func (d *Dashboard) bindAction(c *gin.Context) (actionRequest, bool) {
	var req actionRequest
	if err := c.ShouldBind(&req); err != nil {
		d.reply(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

func (d *Dashboard) handleMode(c *gin.Context) {
	req, ok := d.bindAction(c)
	if !ok {
		return
	}
	if !session.ValidMode(req.Value) {
		d.reply(c, http.StatusBadRequest, gin.H{"error": "unknown mode " + req.Value})
		return
	}
	d.notify(c, func(f *session.Flags) { f.ActiveMode = req.Value })
	// un mode rimasto nella query della pagina annullerebbe la scelta
	d.replyBack(c, withoutParam(c.PostForm("back"), "mode"), http.StatusOK, gin.H{"mode": req.Value})
}

func (d *Dashboard) handleIrrigation(c *gin.Context) {
	d.command(c, pages.IrrigationCommands, "irrigation.command")
}

func (d *Dashboard) handleCropAction(c *gin.Context) {
	d.command(c, pages.CropActions, "crop.action")
}

// command answers a button from a fixed set with its message.
func (d *Dashboard) command(c *gin.Context, messagesByValue map[string]string, kind string) {
	req, ok := d.bindAction(c)
	if !ok {
		return
	}
	msg, known := messagesByValue[req.Value]
	if !known {
		d.reply(c, http.StatusBadRequest, gin.H{"error": "unknown action " + req.Value})
		return
	}
	d.notify(c, func(f *session.Flags) { f.Notice = msg })
	d.emit(c, messages.DashboardEvent{
		Kind: kind,
		Plot: req.Plot,
		Tags: map[string]string{"action": req.Value},
	})
	d.reply(c, http.StatusOK, gin.H{"message": msg})
}
