package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，环境变量 RANKIFY_* 优先
func LoadConfig(paths ...string) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("RANKIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	Cfg = &cfg

	return nil
}

// 默认值同时让 AutomaticEnv 能识别到对应的 key
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.max_upload_size", 10<<20)
	v.SetDefault("store.driver", StoreDriverMemory)
	v.SetDefault("mongo.url", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "rankify")
	v.SetDefault("mongo.slow_log", 200*time.Millisecond)
	v.SetDefault("redis.enable", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.slow_log", 100*time.Millisecond)
	v.SetDefault("minio.enable", false)
	v.SetDefault("minio.main_bucket", "rankify")
	v.SetDefault("kafka.enable", false)
	v.SetDefault("kafka.event_topic", "rankify.events")
	v.SetDefault("kafka.social_group_id", "rankify-social-repair")
	v.SetDefault("logstash.addr", "")
	v.SetDefault("logstash.level", "info")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("catalog.default_page_size", 10)
	v.SetDefault("catalog.max_page_size", 50)
	v.SetDefault("repair.schedule", "0 */5 * * * *")
	v.SetDefault("repair.concurrency", 4)
	v.SetDefault("cache.ranking_ttl", 10*time.Minute)
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Catalog.DefaultPageSize <= 0 || c.Catalog.MaxPageSize < c.Catalog.DefaultPageSize {
		return fmt.Errorf("invalid catalog page sizes: default %d, max %d",
			c.Catalog.DefaultPageSize, c.Catalog.MaxPageSize)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Kafka.Enable && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when kafka is enabled")
	}
	return nil
}
