package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Roblox    RobloxConfig    `mapstructure:"roblox"`
	Rolimons  RolimonsConfig  `mapstructure:"rolimons"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RobloxConfig struct {
	UsersBaseURL     string `mapstructure:"users_base_url"`
	InventoryBaseURL string `mapstructure:"inventory_base_url"`
}

type RolimonsConfig struct {
	SiteBaseURL string        `mapstructure:"site_base_url"`
	APIBaseURL  string        `mapstructure:"api_base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	CatalogTTL    time.Duration `mapstructure:"catalog_ttl"`
	CredentialTTL time.Duration `mapstructure:"credential_ttl"`
}

type FetchConfig struct {
	PageDelay time.Duration `mapstructure:"page_delay"`
	MaxPages  int           `mapstructure:"max_pages"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type SchedulerConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CatalogWarmCron string `mapstructure:"catalog_warm_cron"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("database.path", "trade_ads.db")
	viper.SetDefault("roblox.users_base_url", "https://users.roblox.com")
	viper.SetDefault("roblox.inventory_base_url", "https://inventory.roblox.com")
	viper.SetDefault("rolimons.site_base_url", "https://www.rolimons.com")
	viper.SetDefault("rolimons.api_base_url", "https://api.rolimons.com")
	viper.SetDefault("rolimons.timeout", 10*time.Second)
	viper.SetDefault("cache.catalog_ttl", 900*time.Second)
	viper.SetDefault("cache.credential_ttl", 86400*time.Second)
	viper.SetDefault("fetch.page_delay", 250*time.Millisecond)
	viper.SetDefault("fetch.max_pages", 100)
	viper.SetDefault("fetch.timeout", 10*time.Second)
	viper.SetDefault("scheduler.enabled", true)
	viper.SetDefault("scheduler.catalog_warm_cron", "@every 10m")

	viper.AutomaticEnv()

	var config Config

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults plus env cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
