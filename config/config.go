package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Booking    BookingConfig    `yaml:"booking"`
	Worker     WorkerConfig     `yaml:"worker"`
	Auth       AuthConfig       `yaml:"auth"`
	FlightAPI  FlightAPIConfig  `yaml:"flight_api"`
	Cloudinary CloudinaryConfig `yaml:"cloudinary"`
	Logging    LoggingConfig    `yaml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

type HTTPConfig struct {
	Address     string   `yaml:"address"`
	SwaggerDir  string   `yaml:"swagger_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	AllowEmptyCheckout  *bool `yaml:"allow_empty_checkout"`
	FlightsCacheTTL     int   `yaml:"flights_cache_ttl_seconds"`
	CheckoutLockSeconds int   `yaml:"checkout_lock_seconds"`
}

// EmptyCheckoutAllowed defaults to true when the key is absent.
func (b BookingConfig) EmptyCheckoutAllowed() bool {
	return b.AllowEmptyCheckout == nil || *b.AllowEmptyCheckout
}

type WorkerConfig struct {
	FlightVerificationMinutes int `yaml:"flight_verification_minutes"`
	VerificationBatch         int `yaml:"verification_batch"`
}

type AuthConfig struct {
	JWTSecret           string `yaml:"jwt_secret"`
	TokenTTLHours       int    `yaml:"token_ttl_hours"`
	TrustIdentityHeader bool   `yaml:"trust_identity_header"`
}

type FlightAPIConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Folder    string `yaml:"folder"`
}

func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// LoadConfig reads the YAML file at path, then lets the environment (and an
// optional .env next to the binary) override secrets and addresses.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret (or JWT_SECRET) is required")
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	setString(&cfg.Database.Host, "DATABASE_HOST")
	setInt(&cfg.Database.Port, "DATABASE_PORT")
	setString(&cfg.Database.User, "DATABASE_USER")
	setString(&cfg.Database.Password, "DATABASE_PASSWORD")
	setString(&cfg.Database.Name, "DATABASE_NAME")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.FlightAPI.BaseURL, "FLIGHT_API_URL")
	setString(&cfg.FlightAPI.APIKey, "FLIGHT_API_KEY")
	setString(&cfg.Cloudinary.CloudName, "CLOUDINARY_CLOUD_NAME")
	setString(&cfg.Cloudinary.APIKey, "CLOUDINARY_API_KEY")
	setString(&cfg.Cloudinary.APISecret, "CLOUDINARY_API_SECRET")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Kafka.BookingEventsTopic == "" {
		cfg.Kafka.BookingEventsTopic = "booking-events"
	}
	if cfg.Kafka.NotificationsTopic == "" {
		cfg.Kafka.NotificationsTopic = "notifications"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "travelbooking-worker"
	}
	if cfg.Booking.FlightsCacheTTL <= 0 {
		cfg.Booking.FlightsCacheTTL = 300
	}
	if cfg.Booking.CheckoutLockSeconds <= 0 {
		cfg.Booking.CheckoutLockSeconds = 30
	}
	if cfg.Worker.FlightVerificationMinutes <= 0 {
		cfg.Worker.FlightVerificationMinutes = 30
	}
	if cfg.Worker.VerificationBatch <= 0 {
		cfg.Worker.VerificationBatch = 100
	}
	if cfg.Auth.TokenTTLHours <= 0 {
		cfg.Auth.TokenTTLHours = 24
	}
	if cfg.FlightAPI.TimeoutSeconds <= 0 {
		cfg.FlightAPI.TimeoutSeconds = 10
	}
	if cfg.Cloudinary.Folder == "" {
		cfg.Cloudinary.Folder = "hotels"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = 200
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 50
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
