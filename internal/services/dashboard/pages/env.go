// Package pages renders the five dashboard pages into views.Page values.
package pages

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/catalog"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/mock"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/views"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/dashboard/session"
	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/live"
)

var ErrUnknownPage = errors.New("pages: unknown page")

// Env is everything a page render may read. Options are the request query
// parameters; Flags are the session state.
type Env struct {
	Catalog *catalog.Catalog
	// Seed feeds the non-reproducible sections; 0 means time based.
	Seed    int64
	Flags   session.Flags
	Options url.Values
	// Live is consulted only when the session has synced sensors.
	Live    *live.Sources
	History live.HistorySource
	Now     func() time.Time
	Log     *zap.SugaredLogger
}

func (e *Env) catalog() *catalog.Catalog {
	if e.Catalog == nil {
		e.Catalog = catalog.Default()
	}
	return e.Catalog
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) log() *zap.SugaredLogger {
	if e.Log == nil {
		e.Log = zap.NewNop().Sugar()
	}
	return e.Log
}

// random returns the generator for sections that vary between renders.
func (e *Env) random() *mock.Generator { return mock.New(e.Seed) }

// fixed returns the generator for sections that are identical on every render.
func (e *Env) fixed() *mock.Generator { return mock.New(mock.FixedSeed) }

// opt returns the option value when it is one of allowed, else def.
func (e *Env) opt(name, def string, allowed ...string) string {
	v := strings.TrimSpace(e.Options.Get(name))
	if v == "" {
		return def
	}
	if len(allowed) == 0 {
		return v
	}
	for _, a := range allowed {
		if a == v {
			return v
		}
	}
	return def
}

// opts returns the multi-valued option restricted to allowed, or def when none is left.
func (e *Env) opts(name string, def []string, allowed []string) []string {
	raw := e.Options[name]
	if len(raw) == 0 {
		return def
	}
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			for _, a := range allowed {
				if a == part {
					out = append(out, part)
				}
			}
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func (e *Env) float(name string, def float64) float64 {
	v := strings.TrimSpace(e.Options.Get(name))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func (e *Env) date(name string, def time.Time) time.Time {
	v := strings.TrimSpace(e.Options.Get(name))
	if v == "" {
		return def
	}
	t, err := time.ParseInLocation(time.DateOnly, v, time.UTC)
	if err != nil {
		return def
	}
	return t
}

// Renderer builds one page.
type Renderer func(ctx context.Context, env *Env) (views.Page, error)

// Entry describes a page in the navigation.
type Entry struct {
	Key    string
	Label  string
	Icon   string
	Render Renderer
}

// Registry lists the pages in menu order.
var Registry = []Entry{
	{Key: "home", Label: "首页", Icon: "🏠", Render: Home},
	{Key: "plots", Label: "地块管理", Icon: "🗺️", Render: Plots},
	{Key: "recommend", Label: "作物推荐", Icon: "🌱", Render: Recommend},
	{Key: "crop", Label: "作物详情", Icon: "🌾", Render: Crop},
	{Key: "analysis", Label: "数据分析", Icon: "📊", Render: Analysis},
}

// Lookup finds a page by key or by its menu label.
func Lookup(key string) (Entry, error) {
	for _, e := range Registry {
		if e.Key == key || e.Label == key {
			return e, nil
		}
	}
	return Entry{}, ErrUnknownPage
}

// Render builds page key with env, stamping the generation time.
func Render(ctx context.Context, key string, env *Env) (views.Page, error) {
	e, err := Lookup(key)
	if err != nil {
		return views.Page{}, err
	}
	p, err := e.Render(ctx, env)
	if err != nil {
		return views.Page{}, err
	}
	p.Key = e.Key
	p.GeneratedAt = env.now().UTC()
	return p, nil
}
