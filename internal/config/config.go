package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Kafka   KafkaConfig
	Gateway GatewayConfig
}

var (
	configInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	URI          string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type JWTConfig struct {
	Secret string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

// GatewayConfig tunes the realtime core. Window and cap bound the dedup
// cache; the bucket is the coarse-timestamp granularity mixed into dedup
// keys; the idle threshold governs room metadata eviction.
type GatewayConfig struct {
	PayloadLimitBytes int
	DedupWindow       time.Duration
	DedupCapacity     int
	DedupBucket       time.Duration
	JanitorInterval   time.Duration
	RoomIdleThreshold time.Duration
}

func LoadConfig() (*Config, error) {
	once.Do(func() {
		viper.SetDefault("GATEWAY_HOST", "")
		viper.SetDefault("GATEWAY_PORT", "8080")
		viper.SetDefault("GATEWAY_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("GATEWAY_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("GATEWAY_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("GATEWAY_JWT_SECRET", "secret")
		viper.SetDefault("GATEWAY_PAYLOAD_LIMIT", 4096)
		viper.SetDefault("GATEWAY_DEDUP_WINDOW", 10*time.Second)
		viper.SetDefault("GATEWAY_DEDUP_CAP", 50)
		viper.SetDefault("GATEWAY_DEDUP_BUCKET", 10*time.Second)
		viper.SetDefault("GATEWAY_JANITOR_INTERVAL", time.Minute)
		viper.SetDefault("GATEWAY_ROOM_IDLE_THRESHOLD", time.Hour)
		viper.SetDefault("REDIS_URL", "redis://127.0.0.1:6379/0")
		viper.SetDefault("REDIS_MAX_RETRIES", 3)
		viper.SetDefault("REDIS_POOL_SIZE", 100)
		viper.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
		viper.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
		viper.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
		viper.SetDefault("KAFKA_ENABLED", false)
		viper.SetDefault("KAFKA_BROKERS", []string{"localhost:9092"})
		viper.SetDefault("KAFKA_TOPIC", "gateway-notifications")
		viper.SetDefault("KAFKA_GROUP_ID", "gateway-service")
		viper.AutomaticEnv()

		configInstance = &Config{
			Server: ServerConfig{
				Host:         viper.GetString("GATEWAY_HOST"),
				Port:         viper.GetString("GATEWAY_PORT"),
				ReadTimeout:  viper.GetDuration("GATEWAY_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("GATEWAY_WRITE_TIMEOUT"),
				IdleTimeout:  viper.GetDuration("GATEWAY_IDLE_TIMEOUT"),
			},
			Redis: RedisConfig{
				URI:          viper.GetString("REDIS_URL"),
				MaxRetries:   viper.GetInt("REDIS_MAX_RETRIES"),
				DialTimeout:  viper.GetDuration("REDIS_DIAL_TIMEOUT"),
				ReadTimeout:  viper.GetDuration("REDIS_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("REDIS_WRITE_TIMEOUT"),
				PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
				MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
			},
			JWT: JWTConfig{
				Secret: viper.GetString("GATEWAY_JWT_SECRET"),
			},
			Kafka: KafkaConfig{
				Enabled: viper.GetBool("KAFKA_ENABLED"),
				Brokers: viper.GetStringSlice("KAFKA_BROKERS"),
				Topic:   viper.GetString("KAFKA_TOPIC"),
				GroupID: viper.GetString("KAFKA_GROUP_ID"),
			},
			Gateway: GatewayConfig{
				PayloadLimitBytes: viper.GetInt("GATEWAY_PAYLOAD_LIMIT"),
				DedupWindow:       viper.GetDuration("GATEWAY_DEDUP_WINDOW"),
				DedupCapacity:     viper.GetInt("GATEWAY_DEDUP_CAP"),
				DedupBucket:       viper.GetDuration("GATEWAY_DEDUP_BUCKET"),
				JanitorInterval:   viper.GetDuration("GATEWAY_JANITOR_INTERVAL"),
				RoomIdleThreshold: viper.GetDuration("GATEWAY_ROOM_IDLE_THRESHOLD"),
			},
		}
	})

	return configInstance, nil
}
