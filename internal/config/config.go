package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sangkips/tablepos-api/pkg/logger"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Queue     QueueConfig
	Kafka     KafkaConfig
	Printer   PrinterConfig
	Billing   BillingConfig
	Orders    OrdersConfig
	Log       LogConfig
	Tracing   TracingConfig
	Metrics   MetricsConfig
	Seed      SeedConfig
}

type AppConfig struct {
	Name            string
	Env             string
	Port            string
	Debug           bool
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	Timezone     string
	MaxOpenConns int
	MaxIdleConns int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours time.Duration
	Issuer      string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type QueueConfig struct {
	PrintersName   string
	EnqueueRetries int
	BlockTimeout   time.Duration
	DedupeTTL      time.Duration
}

type KafkaConfig struct {
	Brokers      []string
	OrderTopic   string
	BillingTopic string
}

// Enabled reports whether any broker is configured.
func (c *KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type PrinterConfig struct {
	Type      string
	USBPath   string
	Address   string
	CharWidth int
}

type BillingConfig struct {
	InvoiceDueDays       int
	InvoiceNumberRetries int
	Timezone             string
}

type OrdersConfig struct {
	AutoPrintKOT bool
}

type LogConfig struct {
	Level  string
	Pretty bool
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

type MetricsConfig struct {
	Enabled bool
	Prefix  string
}

type SeedConfig struct {
	DemoData bool
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Logger.Warn().Err(err).Msg(".env file not found, using environment variables")
	}

	setDefaults()

	return &Config{
		App: AppConfig{
			Name:            viper.GetString("APP_NAME"),
			Env:             viper.GetString("APP_ENV"),
			Port:            viper.GetString("APP_PORT"),
			Debug:           viper.GetBool("APP_DEBUG"),
			ShutdownTimeout: time.Duration(viper.GetInt("APP_SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			Name:         viper.GetString("DB_NAME"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			SSLMode:      viper.GetString("DB_SSL_MODE"),
			Timezone:     viper.GetString("DB_TIMEZONE"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			ExpiryHours: time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			Issuer:      viper.GetString("JWT_ISSUER"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(viper.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(viper.GetString("CORS_ALLOWED_HEADERS")),
			MaxAge:         time.Duration(viper.GetInt("CORS_MAX_AGE_HOURS")) * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             viper.GetInt("RATE_LIMIT_BURST"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Queue: QueueConfig{
			PrintersName:   viper.GetString("QUEUE_PRINTERS_NAME"),
			EnqueueRetries: viper.GetInt("QUEUE_ENQUEUE_RETRIES"),
			BlockTimeout:   time.Duration(viper.GetInt("QUEUE_BLOCK_TIMEOUT_SECONDS")) * time.Second,
			DedupeTTL:      time.Duration(viper.GetInt("PRINT_DEDUPE_TTL_HOURS")) * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(viper.GetString("KAFKA_BROKERS")),
			OrderTopic:   viper.GetString("KAFKA_ORDER_TOPIC"),
			BillingTopic: viper.GetString("KAFKA_BILLING_TOPIC"),
		},
		Printer: PrinterConfig{
			Type:      viper.GetString("PRINTER_TYPE"),
			USBPath:   viper.GetString("PRINTER_USB_PATH"),
			Address:   viper.GetString("PRINTER_ADDRESS"),
			CharWidth: viper.GetInt("PRINTER_CHAR_WIDTH"),
		},
		Billing: BillingConfig{
			InvoiceDueDays:       viper.GetInt("BILLING_INVOICE_DUE_DAYS"),
			InvoiceNumberRetries: viper.GetInt("BILLING_INVOICE_NUMBER_RETRIES"),
			Timezone:             viper.GetString("BILLING_TIMEZONE"),
		},
		Orders: OrdersConfig{
			AutoPrintKOT: viper.GetBool("ORDERS_AUTO_PRINT_KOT"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Pretty: viper.GetBool("LOG_PRETTY"),
		},
		Tracing: TracingConfig{
			Enabled:     viper.GetBool("TRACING_ENABLED"),
			Endpoint:    viper.GetString("JAEGER_ENDPOINT"),
			ServiceName: viper.GetString("TRACING_SERVICE_NAME"),
		},
		Metrics: MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
			Prefix:  viper.GetString("METRICS_PREFIX"),
		},
		Seed: SeedConfig{
			DemoData: viper.GetBool("SEED_DEMO_DATA"),
		},
	}
}

func setDefaults() {
	viper.SetDefault("APP_NAME", "tablepos-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("APP_SHUTDOWN_TIMEOUT_SECONDS", 15)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "tablepos")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 50)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("JWT_ISSUER", "tablepos-api")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_METHODS", "")
	viper.SetDefault("CORS_ALLOWED_HEADERS", "")
	viper.SetDefault("CORS_MAX_AGE_HOURS", 12)
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("QUEUE_PRINTERS_NAME", "printers")
	viper.SetDefault("QUEUE_ENQUEUE_RETRIES", 3)
	viper.SetDefault("QUEUE_BLOCK_TIMEOUT_SECONDS", 5)
	viper.SetDefault("PRINT_DEDUPE_TTL_HOURS", 24)
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_ORDER_TOPIC", "pos.orders")
	viper.SetDefault("KAFKA_BILLING_TOPIC", "pos.billing")
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_USB_PATH", "/dev/usb/lp0")
	viper.SetDefault("PRINTER_ADDRESS", "")
	viper.SetDefault("PRINTER_CHAR_WIDTH", 48)
	viper.SetDefault("BILLING_INVOICE_DUE_DAYS", 30)
	viper.SetDefault("BILLING_INVOICE_NUMBER_RETRIES", 3)
	viper.SetDefault("BILLING_TIMEZONE", "UTC")
	viper.SetDefault("ORDERS_AUTO_PRINT_KOT", true)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_PRETTY", false)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	viper.SetDefault("TRACING_SERVICE_NAME", "tablepos-api")
	viper.SetDefault("METRICS_ENABLED", true)
	viper.SetDefault("METRICS_PREFIX", "tablepos")
	viper.SetDefault("SEED_DEMO_DATA", false)
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// splitList reads comma separated environment values.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
