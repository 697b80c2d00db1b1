package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/LeonardoBeccarini/agrichain_dashboard/internal/services/live"
	"github.com/LeonardoBeccarini/agrichain_dashboard/pkg/rabbitmq"
)

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// loadDotenv reads path when it exists; the environment wins over the file.
func loadDotenv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

type settings struct {
	Port          string
	GRPCPort      string
	CatalogPath   string
	Seed          int64
	SessionTTL    time.Duration
	SweepInterval time.Duration
	CookieSecure  bool
	RenderTimeout time.Duration

	MQTTEnabled bool
	MQTT        rabbitmq.RabbitMQConfig
	SensorTopic string

	Upstream live.UpstreamConfig
	Influx   live.InfluxConfig
}

// loadSettings reads the environment. Integrations without an address stay off.
func loadSettings() settings {
	return settings{
		Port:          getenv("PORT", "8501"),
		GRPCPort:      getenv("GRPC_PORT", ""),
		CatalogPath:   getenv("CATALOG_PATH", ""),
		Seed:          getenvInt64("DASHBOARD_SEED", 0),
		SessionTTL:    getenvDuration("SESSION_TTL", 30*time.Minute),
		SweepInterval: getenvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		CookieSecure:  getenvBool("COOKIE_SECURE", false),
		RenderTimeout: getenvDuration("RENDER_TIMEOUT", 5*time.Second),

		MQTTEnabled: getenv("MQTT_HOST", "") != "",
		MQTT: rabbitmq.RabbitMQConfig{
			Host:     getenv("MQTT_HOST", "localhost"),
			Port:     getenvInt("MQTT_PORT", 1883),
			User:     getenv("MQTT_USER", "mqtt_user"),
			Password: getenv("MQTT_PASS", "mqtt_pwd"),
			ClientID: getenv("MQTT_CLIENT_ID", "agrichain-dashboard"),
		},
		SensorTopic: getenv("MQTT_SENSOR_TOPIC", live.SensorTopic),

		Upstream: live.UpstreamConfig{
			Name:            "persistence",
			BaseURL:         getenv("PERSISTENCE_URL", ""),
			Path:            getenv("PERSISTENCE_LATEST_PATH", "/data/latest"),
			Timeout:         getenvDuration("PERSISTENCE_TIMEOUT", 2*time.Second),
			Retries:         getenvInt("PERSISTENCE_RETRIES", 2),
			BreakerFailures: getenvInt("PERSISTENCE_BREAKER_FAILURES", 5),
			BreakerOpenFor:  getenvDuration("PERSISTENCE_BREAKER_OPEN", 30*time.Second),
		},
		Influx: live.InfluxConfig{
			URL:              getenv("INFLUX_URL", ""),
			Token:            getenv("INFLUX_TOKEN", ""),
			Org:              getenv("INFLUX_ORG", "org"),
			Bucket:           getenv("INFLUX_BUCKET", "aggregated-data"),
			Measurement:      getenv("INFLUX_MEASUREMENT", "sensor_data"),
			EventMeasurement: getenv("INFLUX_EVENT_MEASUREMENT", "dashboard_event"),
		},
	}
}
