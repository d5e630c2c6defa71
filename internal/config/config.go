package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

const (
	AuthModeFirebase = "firebase"
	AuthModeJWT      = "jwt"
)

type Config struct {
	Port                   string `env:"PORT" envDefault:"8080"`
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`
	AutoMigrate            bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	AuthMode              string        `env:"AUTH_MODE" envDefault:"firebase"`
	FirebaseProjectID     string        `env:"FIREBASE_PROJECT_ID"`
	GoogleCredentialsJSON string        `env:"GOOGLE_CREDENTIALS_JSON"`
	JWTSecret             string        `env:"JWT_SECRET"`
	JWTTTL                time.Duration `env:"JWT_TTL" envDefault:"72h"`

	StorageBucket  string   `env:"STORAGE_BUCKET"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	PointsPer100Yen int64 `env:"POINTS_PER_100_YEN" envDefault:"1"`

	GitSHA    string `env:"GIT_SHA" envDefault:"dev"`
	BuildTime string `env:"BUILD_TIME"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that depend on each other.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthModeFirebase:
		if c.FirebaseProjectID == "" && c.GoogleCredentialsJSON == "" {
			return errors.New("FIREBASE_PROJECT_ID or GOOGLE_CREDENTIALS_JSON is required when AUTH_MODE=firebase")
		}
	case AuthModeJWT:
		if len(c.JWTSecret) < 16 {
			return errors.New("JWT_SECRET must be at least 16 bytes when AUTH_MODE=jwt")
		}
		if c.JWTTTL <= 0 {
			return errors.New("JWT_TTL must be positive")
		}
	default:
		return errors.New("AUTH_MODE must be firebase or jwt")
	}
	if c.PointsPer100Yen < 0 {
		return errors.New("POINTS_PER_100_YEN must not be negative")
	}
	return nil
}
