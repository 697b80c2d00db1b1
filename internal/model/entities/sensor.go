package entities

import "time"

// SensorStatus is the health label a reading carries.
type SensorStatus string

const (
	SensorNormal  SensorStatus = "正常"
	SensorWarning SensorStatus = "警告"
	SensorFault   SensorStatus = "异常"
)

// Sensor represents a single device in a microzone.
type Sensor struct {
	ID        string  `json:"sensor_id"`
	Zone      string  `json:"zone"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Metric flags the values a reading actually carries.
type Metric uint8

const (
	MetricTemperature Metric = 1 << iota
	MetricHumidity
	MetricPH
	MetricSalinity
	MetricMoisture
)

// SensorReading is one environmental sample. Reported tells a measured zero
// apart from a metric the sensor did not send.
type SensorReading struct {
	Sensor
	FieldID     string       `json:"field_id,omitempty"`
	Reported    Metric       `json:"reported,omitempty"`
	Temperature float64      `json:"temperature"`
	Humidity    float64      `json:"humidity"`
	PH          float64      `json:"ph"`
	Salinity    float64      `json:"salinity"`
	EC          float64      `json:"ec"`
	Moisture    float64      `json:"moisture,omitempty"`
	Status      SensorStatus `json:"status"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Has reports whether the reading carries m.
func (r SensorReading) Has(m Metric) bool { return r.Reported&m != 0 }

// Set stores v for m and marks it reported.
func (r *SensorReading) Set(m Metric, v float64) {
	switch m {
	case MetricTemperature:
		r.Temperature = v
	case MetricHumidity:
		r.Humidity = v
	case MetricPH:
		r.PH = v
	case MetricSalinity:
		r.Salinity = v
	case MetricMoisture:
		r.Moisture = v
	default:
		return
	}
	r.Reported |= m
}

// Sample is a single point of an environmental time series.
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}
