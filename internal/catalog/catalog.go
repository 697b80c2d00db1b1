// Package catalog holds the static reference data of the dashboard: app
// settings, crop database, categories, plots and the pre-built
// recommendations. The default catalog is embedded; CATALOG_PATH can point
// to a replacement file with the same layout.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
)

//go:embed catalog.yaml
var defaultYAML []byte

// FallbackCrop is used when a crop name has no plan or profile of its own.
const FallbackCrop = "玉米"

var ErrInvalidCatalog = errors.New("catalog: invalid")

type AppConfig struct {
	Title        string `json:"title" yaml:"title"`
	Subtitle     string `json:"subtitle" yaml:"subtitle"`
	Version      string `json:"version" yaml:"version"`
	Theme        string `json:"theme" yaml:"theme"`
	PrimaryColor string `json:"primary_color" yaml:"primary_color"`
}

type PageConfig struct {
	PageTitle           string `json:"page_title" yaml:"page_title"`
	PageIcon            string `json:"page_icon" yaml:"page_icon"`
	Layout              string `json:"layout" yaml:"layout"`
	InitialSidebarState string `json:"initial_sidebar_state" yaml:"initial_sidebar_state"`
}

type Colors struct {
	Primary    string `json:"primary" yaml:"primary"`
	Secondary  string `json:"secondary" yaml:"secondary"`
	Accent     string `json:"accent" yaml:"accent"`
	Background string `json:"background" yaml:"background"`
	Text       string `json:"text" yaml:"text"`
	Border     string `json:"border" yaml:"border"`
	Success    string `json:"success" yaml:"success"`
	Warning    string `json:"warning" yaml:"warning"`
	Danger     string `json:"danger" yaml:"danger"`
	Info       string `json:"info" yaml:"info"`
}

// MetricRange is the accepted input range of one sensor metric.
type MetricRange struct {
	Key   string  `json:"key" yaml:"key"`
	Label string  `json:"label" yaml:"label"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// Contains reports whether v lies inside the closed range.
func (r MetricRange) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

type SensorConfig struct {
	SupportedTypes []string      `json:"supported_types" yaml:"supported_types"`
	Ranges         []MetricRange `json:"data_ranges" yaml:"data_ranges"`
}

type ZoneConfig struct {
	DefaultZoneSize int `json:"default_zone_size" yaml:"default_zone_size"`
	MaxZonesPerPlot int `json:"max_zones_per_plot" yaml:"max_zones_per_plot"`
	MinZonesPerPlot int `json:"min_zones_per_plot" yaml:"min_zones_per_plot"`
}

// Catalog is read-only after Load; share it freely between goroutines.
type Catalog struct {
	App              AppConfig                 `json:"app" yaml:"app"`
	Page             PageConfig                `json:"page" yaml:"page"`
	Weights          entities.Weights          `json:"algorithm_weights" yaml:"algorithm_weights"`
	Colors           Colors                    `json:"colors" yaml:"colors"`
	Seasons          []string                  `json:"planting_seasons" yaml:"planting_seasons"`
	RiskPreferences  []string                  `json:"risk_preferences" yaml:"risk_preferences"`
	TargetUses       []string                  `json:"target_uses" yaml:"target_uses"`
	YieldPreferences []string                  `json:"yield_preferences" yaml:"yield_preferences"`
	Sensors          SensorConfig              `json:"sensors" yaml:"sensors"`
	Crops            []entities.Crop           `json:"crops" yaml:"crops"`
	Zones            ZoneConfig                `json:"zones" yaml:"zones"`
	Categories       []entities.CropCategory   `json:"crop_categories" yaml:"crop_categories"`
	PlotConditions   []string                  `json:"plot_conditions" yaml:"plot_conditions"`
	Plots            []entities.Plot           `json:"plots" yaml:"plots"`
	PlotOptions      []string                  `json:"plot_options" yaml:"plot_options"`
	Recommendations  []entities.Recommendation `json:"recommendations" yaml:"recommendations"`
	Plans            []entities.CropPlan       `json:"crop_plans" yaml:"crop_plans"`
	Profiles         []entities.CropProfile    `json:"crop_profiles" yaml:"crop_profiles"`
}

// Default decodes the embedded catalog. It panics on a broken embed since
// that can only be a build defect.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads the catalog from path, or returns the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(defaultYAML)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML catalog.
func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the cross-field invariants of the catalog.
func (c *Catalog) Validate() error {
	var errs []error
	if s := c.Weights.Sum(); math.Abs(s-1) > 1e-6 {
		errs = append(errs, fmt.Errorf("algorithm weights sum to %.4f, want 1", s))
	}
	if c.Zones.MinZonesPerPlot > c.Zones.MaxZonesPerPlot {
		errs = append(errs, fmt.Errorf("zones: min %d > max %d", c.Zones.MinZonesPerPlot, c.Zones.MaxZonesPerPlot))
	}
	for _, p := range c.Plots {
		if p.Zones < c.Zones.MinZonesPerPlot || p.Zones > c.Zones.MaxZonesPerPlot {
			errs = append(errs, fmt.Errorf("plot %s: %d zones outside [%d,%d]", p.ID, p.Zones, c.Zones.MinZonesPerPlot, c.Zones.MaxZonesPerPlot))
		}
	}
	if len(c.Categories) == 0 {
		errs = append(errs, errors.New("no crop categories"))
	}
	for _, cat := range c.Categories {
		if len(cat.Varieties) == 0 {
			errs = append(errs, fmt.Errorf("category %s has no varieties", cat.Name))
		}
	}
	for _, r := range c.Sensors.Ranges {
		if r.Min >= r.Max {
			errs = append(errs, fmt.Errorf("sensor range %s: min %.2f >= max %.2f", r.Key, r.Min, r.Max))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return nil
}

// Plot looks a plot up by id.
func (c *Catalog) Plot(id string) (entities.Plot, bool) {
	for _, p := range c.Plots {
		if p.ID == id {
			return p, true
		}
	}
	return entities.Plot{}, false
}

// Category returns the varieties of a category, in catalog order.
func (c *Catalog) Category(name string) (entities.CropCategory, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return entities.CropCategory{}, false
}

// CategoryNames keeps the declaration order.
func (c *Catalog) CategoryNames() []string {
	out := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		out = append(out, cat.Name)
	}
	return out
}

func (c *Catalog) CropPlan(crop string) entities.CropPlan {
	var fallback entities.CropPlan
	for _, p := range c.Plans {
		if p.Crop == crop {
			return p
		}
		if p.Crop == FallbackCrop {
			fallback = p
		}
	}
	return fallback
}

func (c *Catalog) CropProfile(crop string) entities.CropProfile {
	var fallback entities.CropProfile
	for _, p := range c.Profiles {
		if p.Crop == crop {
			return p
		}
		if p.Crop == FallbackCrop {
			fallback = p
		}
	}
	return fallback
}

// Range returns the sensor input range for key (e.g. "ph_value").
func (c *Catalog) Range(key string) (MetricRange, bool) {
	for _, r := range c.Sensors.Ranges {
		if r.Key == key {
			return r, true
		}
	}
	return MetricRange{}, false
}

// Crop returns the crops database entry for name.
func (c *Catalog) Crop(name string) (entities.Crop, bool) {
	for _, cr := range c.Crops {
		if cr.Name == name {
			return cr, true
		}
	}
	return entities.Crop{}, false
}
