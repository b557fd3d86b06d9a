package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server            ServerConfig
	Database          DatabaseConfig
	Redis             RedisConfig
	Kafka             KafkaConfig
	CatalogService    ServiceConfig
	ApplicantService  ServiceConfig
	MembershipService ServiceConfig
	Features          FeatureFlags
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	GatewayTopic  string
	ConsumerGroup string
}

type ServiceConfig struct {
	BaseURL string
	Timeout time.Duration
	APIKey  string
}

type FeatureFlags struct {
	EnableOrderCaching    bool
	EnableAuditEvents     bool
	EnableGatewayConsumer bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "cohorts"),
			Password:     getEnvString("DB_PASSWORD", "cohorts"),
			Name:         getEnvString("DB_NAME", "cohorts_orders"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("REDIS_TTL", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvStringSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			AuditTopic:    getEnvString("KAFKA_AUDIT_TOPIC", "cohorts.orders.audit"),
			GatewayTopic:  getEnvString("KAFKA_GATEWAY_TOPIC", "cohorts.payments.gateway"),
			ConsumerGroup: getEnvString("KAFKA_CONSUMER_GROUP", "orders-service"),
		},
		CatalogService: ServiceConfig{
			BaseURL: getEnvString("CATALOG_SERVICE_URL", "http://localhost:8085"),
			Timeout: time.Duration(getEnvInt("CATALOG_SERVICE_TIMEOUT", 10)) * time.Second,
			APIKey:  getEnvString("CATALOG_SERVICE_API_KEY", ""),
		},
		ApplicantService: ServiceConfig{
			BaseURL: getEnvString("APPLICANT_SERVICE_URL", "http://localhost:8086"),
			Timeout: time.Duration(getEnvInt("APPLICANT_SERVICE_TIMEOUT", 10)) * time.Second,
			APIKey:  getEnvString("APPLICANT_SERVICE_API_KEY", ""),
		},
		MembershipService: ServiceConfig{
			BaseURL: getEnvString("MEMBERSHIP_SERVICE_URL", "http://localhost:8087"),
			Timeout: time.Duration(getEnvInt("MEMBERSHIP_SERVICE_TIMEOUT", 10)) * time.Second,
			APIKey:  getEnvString("MEMBERSHIP_SERVICE_API_KEY", ""),
		},
		Features: FeatureFlags{
			EnableOrderCaching:    getEnvBool("ENABLE_ORDER_CACHING", true),
			EnableAuditEvents:     getEnvBool("ENABLE_AUDIT_EVENTS", true),
			EnableGatewayConsumer: getEnvBool("ENABLE_GATEWAY_CONSUMER", true),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
