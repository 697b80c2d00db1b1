package messages

import (
	"time"
)

// SensorData is the reading published by the field sensors on sensor/aggregated/#.
// Only field/sensor ids and moisture are guaranteed; the rest is optional.
type SensorData struct {
	FieldId     string    `json:"field_id"`
	SensorID    string    `json:"sensor_id"`
	Moisture    float64   `json:"moisture"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	PH          *float64  `json:"ph,omitempty"`
	Salinity    *float64  `json:"salinity,omitempty"`
	Aggregated  bool      `json:"aggregated"`
	Timestamp   time.Time `json:"timestamp"`
}
