package config

import (
	"os"
	"strconv"
	"time"
)

// GrantTTL is the fixed validity window for an approved visitor grant.
var GrantTTL = 10 * time.Minute

// SweepInterval is the cadence of the visitor grant expiry sweep.
var SweepInterval = time.Second

// Server captures process-level configuration.
type Server struct {
	Addr          string
	Location      string
	JWTSigningKey string

	// PostgresDSN enables durable roster and access-log stores when set.
	PostgresDSN string
	// RedisURL enables the Redis-backed visitor grant store when set.
	RedisURL string
	// KafkaBrokers enables the event stream publisher when set.
	KafkaBrokers string
	KafkaTopic   string

	// DetectionInterval is the cadence of the simulated detection feed.
	DetectionInterval time.Duration
	// Simulate starts the simulated detection feed on boot.
	Simulate bool

	// OperatorName and OperatorPassword seed the initial operator account.
	OperatorName     string
	OperatorPassword string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("GATEWATCH_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	location := os.Getenv("GATEWATCH_LOCATION")
	if location == "" {
		location = "Main Gate"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "gatewatch.events"
	}

	interval := time.Second
	if raw := os.Getenv("GATEWATCH_DETECTION_INTERVAL_MS"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			interval = time.Duration(ms) * time.Millisecond
		}
	}

	operator := os.Getenv("GATEWATCH_OPERATOR")
	if operator == "" {
		operator = "admin"
	}
	operatorPassword := os.Getenv("GATEWATCH_OPERATOR_PASSWORD")
	if operatorPassword == "" {
		operatorPassword = "admin"
	}

	return Server{
		Addr:              addr,
		Location:          location,
		JWTSigningKey:     jwtSigningKey,
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		RedisURL:          os.Getenv("REDIS_URL"),
		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:        topic,
		DetectionInterval: interval,
		Simulate:          os.Getenv("GATEWATCH_SIMULATE") == "true",
		OperatorName:      operator,
		OperatorPassword:  operatorPassword,
	}
}
