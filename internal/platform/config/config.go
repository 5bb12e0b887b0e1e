package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultPrefix is prepended to every environment variable name.
const DefaultPrefix = "GIVECYCLE"

// Config is the full process configuration.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Embedded groups share the top-level prefix (GIVECYCLE_ADDR, GIVECYCLE_DATABASE_URL).
	Server
	Database
	Oracles

	Log      Log         `envconfig:"LOG"`
	Redis    RedisConfig `envconfig:"REDIS"`
	Kafka    Kafka       `envconfig:"KAFKA"`
	Matching Matching    `envconfig:"MATCHING"`
	Sweeper  Sweeper     `envconfig:"SWEEPER"`
	Notify   Notify      `envconfig:"NOTIFY"`
	Tracing  Tracing     `envconfig:"TRACING"`
	Limits   RateLimit   `envconfig:"RATELIMIT"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `envconfig:"ADDR" default:":8080"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	JWTSigningKey     string        `envconfig:"JWT_SIGNING_KEY" default:"dev-secret-key-change-in-production"`
	JWTIssuer         string        `envconfig:"JWT_ISSUER" default:"givecycle"`
	JWTAudience       string        `envconfig:"JWT_AUDIENCE" default:"givecycle-api"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"json"`
}

// Database holds connection strings. CandidateURL defaults to URL and may
// point at a read replica.
type Database struct {
	URL          string `envconfig:"DATABASE_URL"`
	CandidateURL string `envconfig:"CANDIDATE_DATABASE_URL"`
	MaxOpenConns int    `envconfig:"DATABASE_MAX_OPEN_CONNS" default:"20"`
}

// RedisConfig configures the client used for the sweeper lease.
// An empty URL disables the lease.
type RedisConfig struct {
	URL          string        `envconfig:"URL"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

// Kafka configures notification and re-match publishing.
// No brokers means intents go to the log sink and re-matches are only logged.
type Kafka struct {
	Brokers            []string `envconfig:"BROKERS"`
	NotificationsTopic string   `envconfig:"NOTIFICATIONS_TOPIC" default:"givecycle.notifications"`
	RematchTopic       string   `envconfig:"REMATCH_TOPIC" default:"givecycle.rematch-requests"`
	Partitions         int32    `envconfig:"PARTITIONS" default:"3"`
	ReplicationFactor  int16    `envconfig:"REPLICATION_FACTOR" default:"1"`
}

// Oracles locates the external qualification and prediction services.
type Oracles struct {
	QualificationURL string        `envconfig:"QUALIFICATION_URL"`
	PredictionURL    string        `envconfig:"PREDICTION_URL"`
	HTTPTimeout      time.Duration `envconfig:"ORACLE_HTTP_TIMEOUT" default:"2s"`
}

// Weights are the rule-based scorer coefficients.
type Weights struct {
	TrustScore        float64 `envconfig:"TRUST_SCORE" default:"0.40"`
	LocationProximity float64 `envconfig:"LOCATION_PROXIMITY" default:"0.20"`
	TimeWaiting       float64 `envconfig:"TIME_WAITING" default:"0.20"`
	CompletedCycles   float64 `envconfig:"COMPLETED_CYCLES" default:"0.15"`
	Randomization     float64 `envconfig:"RANDOMIZATION" default:"0.05"`
}

// Matching configures the allocator and scorer.
type Matching struct {
	PoolSize           int           `envconfig:"POOL_SIZE" default:"100"`
	MaxConcurrency     int           `envconfig:"MAX_CONCURRENCY" default:"16"`
	ExpiryWindow       time.Duration `envconfig:"EXPIRY_WINDOW" default:"24h"`
	ScorerTimeout      time.Duration `envconfig:"SCORER_TIMEOUT" default:"800ms"`
	ModelScoring       bool          `envconfig:"MODEL_SCORING" default:"true"`
	JitterSeed         uint64        `envconfig:"JITTER_SEED"`
	MinTrustScore      float64       `envconfig:"MIN_TRUST_SCORE" default:"0"`
	MaxTimeWaiting     float64       `envconfig:"MAX_TIME_WAITING" default:"0"`
	MinCompletedCycles int           `envconfig:"MIN_COMPLETED_CYCLES" default:"0"`
	Weights            Weights       `envconfig:"WEIGHT"`
}

// Sweeper configures the expiration sweeper.
type Sweeper struct {
	Interval            time.Duration `envconfig:"INTERVAL" default:"6h"`
	PenaltyDuration     time.Duration `envconfig:"PENALTY_DURATION" default:"72h"`
	LeaseTTL            time.Duration `envconfig:"LEASE_TTL" default:"10m"`
	FollowUpConcurrency int           `envconfig:"FOLLOW_UP_CONCURRENCY" default:"8"`
	RunOnStart          bool          `envconfig:"RUN_ON_START" default:"true"`
}

// Notify configures the asynchronous notification emitter.
type Notify struct {
	BufferSize int           `envconfig:"BUFFER_SIZE" default:"10000"`
	BatchSize  int           `envconfig:"BATCH_SIZE" default:"100"`
	FlushEvery time.Duration `envconfig:"FLUSH_INTERVAL" default:"250ms"`
}

// Tracing configures the OpenTelemetry exporter. Disabled installs no provider.
type Tracing struct {
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
	Endpoint string `envconfig:"ENDPOINT" default:"http://localhost:14268/api/traces"`
}

// RateLimit throttles each authenticated caller of the allocation API.
// A zero limit disables throttling.
type RateLimit struct {
	AllocationRequests int           `envconfig:"ALLOCATION_REQUESTS" default:"120"`
	Window             time.Duration `envconfig:"WINDOW" default:"1m"`
}

// Load builds a Config from environment variables under prefix.
func Load(prefix string) (*Config, error) {
	c := new(Config)
	if err := envconfig.Process(prefix, c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	if c.Database.CandidateURL == "" {
		c.Database.CandidateURL = c.Database.URL
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	if c.Matching.PoolSize <= 0 {
		return fmt.Errorf("MATCHING_POOL_SIZE must be positive")
	}
	if c.Matching.MaxConcurrency <= 0 {
		return fmt.Errorf("MATCHING_MAX_CONCURRENCY must be positive")
	}
	if c.Matching.ExpiryWindow <= 0 {
		return fmt.Errorf("MATCHING_EXPIRY_WINDOW must be positive")
	}
	if c.Sweeper.Interval <= 0 {
		return fmt.Errorf("SWEEPER_INTERVAL must be positive")
	}
	w := c.Matching.Weights
	for name, v := range map[string]float64{
		"TRUST_SCORE":        w.TrustScore,
		"LOCATION_PROXIMITY": w.LocationProximity,
		"TIME_WAITING":       w.TimeWaiting,
		"COMPLETED_CYCLES":   w.CompletedCycles,
		"RANDOMIZATION":      w.Randomization,
	} {
		if v < 0 {
			return fmt.Errorf("MATCHING_WEIGHT_%s must not be negative", name)
		}
	}
	return nil
}

// RequireDatabase reports a missing DATABASE_URL for commands that need it.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("set %s_DATABASE_URL", DefaultPrefix)
	}
	return nil
}
