package live

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/model/entities"
)

// LatestReading is one row of the persistence service's /data/latest. Older
// deployments send numbers as strings and "time" instead of "timestamp".
type LatestReading struct {
	FieldID     string
	SensorID    string
	Moisture    float64
	HasMoisture bool
	Temperature *float64
	Humidity    *float64
	PH          *float64
	Salinity    *float64
	Aggregated  bool
	Time        time.Time
}

func (p *LatestReading) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if v, ok := m["sensor_id"].(string); ok {
		p.SensorID = v
	}
	if v, ok := m["field_id"].(string); ok {
		p.FieldID = v
	}
	// aggregated: default false se mancante
	if v, ok := m["aggregated"].(bool); ok {
		p.Aggregated = v
	}
	for _, k := range []string{"timestamp", "time"} {
		if s, ok := m[k].(string); ok && s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				p.Time = t
				break
			}
		}
	}
	if v, ok := number(m["moisture"]); ok {
		p.Moisture, p.HasMoisture = v, true
	}
	p.Temperature = optional(m, "temperature")
	p.Humidity = optional(m, "humidity")
	p.PH = optional(m, "ph")
	p.Salinity = optional(m, "salinity")
	return nil
}

// number accetta numeri, stringhe numeriche e bool.
func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f, true
		}
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func optional(m map[string]any, key string) *float64 {
	if v, ok := number(m[key]); ok {
		return &v
	}
	return nil
}

// Reading converts the row to the dashboard's reading type. Only the metrics
// present in the row are marked reported.
func (p LatestReading) Reading() entities.SensorReading {
	r := entities.SensorReading{
		Sensor:    entities.Sensor{ID: p.SensorID},
		FieldID:   p.FieldID,
		Status:    entities.SensorNormal,
		Timestamp: p.Time,
	}
	if p.HasMoisture {
		r.Set(entities.MetricMoisture, p.Moisture)
	}
	setIf(&r, entities.MetricTemperature, p.Temperature)
	setIf(&r, entities.MetricHumidity, p.Humidity)
	setIf(&r, entities.MetricPH, p.PH)
	setIf(&r, entities.MetricSalinity, p.Salinity)
	if p.SensorID == "" {
		r.Status = entities.SensorFault
	}
	return r
}
