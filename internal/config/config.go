// Package config loads gateway configuration from a YAML file and
// GATEWAY_-prefixed environment variables. All values are read once at
// startup; there is no hot reload.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/OneStepAt4time/lolstonks-api-gateway-sub000/pkg/regions"
)

// Config is the full gateway configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Riot   RiotConfig   `mapstructure:"riot"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	ListenAddr     string        `mapstructure:"listen_addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RiotConfig holds upstream credentials and rate limits.
type RiotConfig struct {
	// APIKeys is the key rotation set. Must be non-empty.
	APIKeys []string `mapstructure:"api_keys"`

	// DefaultRegion is used when a request does not specify one.
	DefaultRegion string `mapstructure:"default_region"`

	// Short and long rate-limit windows (dev key defaults: 20/1s, 100/120s).
	ShortLimit  int           `mapstructure:"short_limit"`
	ShortPeriod time.Duration `mapstructure:"short_period"`
	LongLimit   int           `mapstructure:"long_limit"`
	LongPeriod  time.Duration `mapstructure:"long_period"`
}

// RedisConfig holds the cache/ledger backend settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig holds per-resource-category TTLs.
type CacheConfig struct {
	SummonerTTL time.Duration `mapstructure:"summoner_ttl"`
	LeagueTTL   time.Duration `mapstructure:"league_ttl"`
	MatchTTL    time.Duration `mapstructure:"match_ttl"`
	MatchIDsTTL time.Duration `mapstructure:"match_ids_ttl"`
	StaticTTL   time.Duration `mapstructure:"static_ttl"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads configuration from path (optional) and the environment.
// Environment variables use the GATEWAY prefix with underscores, e.g.
// GATEWAY_REDIS_ADDR.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("gateway")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("riot.default_region", "na1")
	v.SetDefault("riot.short_limit", 20)
	v.SetDefault("riot.short_period", time.Second)
	v.SetDefault("riot.long_limit", 100)
	v.SetDefault("riot.long_period", 120*time.Second)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.summoner_ttl", time.Hour)
	v.SetDefault("cache.league_ttl", 10*time.Minute)
	v.SetDefault("cache.match_ttl", 24*time.Hour)
	v.SetDefault("cache.match_ids_ttl", 5*time.Minute)
	v.SetDefault("cache.static_ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate rejects configurations that cannot serve requests.
func (c Config) Validate() error {
	if len(c.Riot.APIKeys) == 0 {
		return fmt.Errorf("riot.api_keys must not be empty")
	}
	for i, key := range c.Riot.APIKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("riot.api_keys[%d] is blank", i)
		}
	}
	if !regions.IsPlatform(c.Riot.DefaultRegion) {
		return fmt.Errorf("riot.default_region %q is not a known platform", c.Riot.DefaultRegion)
	}
	if c.Riot.ShortLimit <= 0 || c.Riot.ShortPeriod <= 0 {
		return fmt.Errorf("riot short rate window must be positive")
	}
	if c.Riot.LongLimit <= 0 || c.Riot.LongPeriod <= 0 {
		return fmt.Errorf("riot long rate window must be positive")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	return nil
}
