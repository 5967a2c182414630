package config

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server    Server
	Database  Database
	Log       Log
	Auth      Auth
	Policy    Policy
	Sweeper   Sweeper
	RateLimit RateLimit
	Email     Email
}

type Server struct {
	Port          string
	PublicBaseURL string
}

type Database struct {
	Driver   string // postgres | sqlite
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Path     string // sqlite file
}

type Log struct {
	Level  string
	Pretty bool
}

type Auth struct {
	JWTSecret string
}

type Policy struct {
	InviteTTL             time.Duration
	SuspiciousTabSwitches int
}

type Sweeper struct {
	Schedule  string
	BatchSize int
}

type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
	IdleTTL           time.Duration
	CleanupInterval   time.Duration
}

type Email struct {
	BrevoAPIKey string
	SenderEmail string
	SenderName  string
	QueueSize   int
	MaxRetries  int
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("DATABASE_PATH", "skillcheck.db")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("INVITE_TTL", "168h")
	viper.SetDefault("SUSPICIOUS_TAB_SWITCHES", 10)
	viper.SetDefault("SWEEP_SCHEDULE", "@every 1m")
	viper.SetDefault("SWEEP_BATCH_SIZE", 200)
	viper.SetDefault("RATE_LIMIT_RPS", 5)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_IDLE_TTL", "10m")
	viper.SetDefault("RATE_LIMIT_CLEANUP_INTERVAL", "1m")
	viper.SetDefault("EMAIL_SENDER_NAME", "Skillcheck")
	viper.SetDefault("EMAIL_QUEUE_SIZE", 256)
	viper.SetDefault("EMAIL_MAX_RETRIES", 3)
}

// NewConfig reads .env from the working directory (or the file bound to the "config" key)
// and the process environment. Flags bound by the CLI take precedence through viper.
func NewConfig() (*Config, error) {
	setDefaults()

	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName(".env")
		viper.AddConfigPath(".")
	}
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file, using environment only")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.PublicBaseURL = viper.GetString("PUBLIC_BASE_URL")
	config.Database.Driver = viper.GetString("DATABASE_DRIVER")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")
	config.Database.Path = viper.GetString("DATABASE_PATH")

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Pretty = viper.GetBool("LOG_PRETTY")
	if viper.GetBool("debug") {
		config.Log.Level = "debug"
	}
	if viper.IsSet("json") {
		config.Log.Pretty = !viper.GetBool("json")
	}

	config.Auth.JWTSecret = viper.GetString("JWT_SECRET")

	config.Policy.InviteTTL = viper.GetDuration("INVITE_TTL")
	config.Policy.SuspiciousTabSwitches = viper.GetInt("SUSPICIOUS_TAB_SWITCHES")

	config.Sweeper.Schedule = viper.GetString("SWEEP_SCHEDULE")
	config.Sweeper.BatchSize = viper.GetInt("SWEEP_BATCH_SIZE")

	config.RateLimit.RequestsPerSecond = viper.GetFloat64("RATE_LIMIT_RPS")
	config.RateLimit.Burst = viper.GetInt("RATE_LIMIT_BURST")
	config.RateLimit.IdleTTL = viper.GetDuration("RATE_LIMIT_IDLE_TTL")
	config.RateLimit.CleanupInterval = viper.GetDuration("RATE_LIMIT_CLEANUP_INTERVAL")

	config.Email.BrevoAPIKey = viper.GetString("BREVO_API_KEY")
	config.Email.SenderEmail = viper.GetString("EMAIL_SENDER")
	config.Email.SenderName = viper.GetString("EMAIL_SENDER_NAME")
	config.Email.QueueSize = viper.GetInt("EMAIL_QUEUE_SIZE")
	config.Email.MaxRetries = viper.GetInt("EMAIL_MAX_RETRIES")

	log.Info().
		Str("port", config.Server.Port).
		Str("db_driver", config.Database.Driver).
		Dur("invite_ttl", config.Policy.InviteTTL).
		Str("sweep_schedule", config.Sweeper.Schedule).
		Bool("email_enabled", config.Email.BrevoAPIKey != "").
		Msg("Config loaded")
	return &config, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.Policy.InviteTTL <= 0 {
		return errors.New("INVITE_TTL must be positive")
	}
	if c.Sweeper.BatchSize <= 0 {
		return errors.New("SWEEP_BATCH_SIZE must be positive")
	}
	return nil
}
