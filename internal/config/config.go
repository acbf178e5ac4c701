package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	BucketReceipts string
	UseSSL         bool
	Region         string
}

type SecurityConfig struct {
	SessionTTL           time.Duration
	SessionRefreshWindow time.Duration
	CookieName           string
	// CookieInsecure drops the Secure attribute from the session cookie.
	// Only intended for the bootstrap window before TLS is provisioned;
	// enabling it is logged at startup.
	CookieInsecure bool
	// TrustedHost pins the host expected by the origin check. Empty means
	// trust the Host header forwarded by the TLS edge.
	TrustedHost      string
	SignatureSecret  string
	ShareLinkSecret  string
	ShareLinkTTL     time.Duration
	TokenTTL         time.Duration
	LoginRateWindow  time.Duration
	LoginRateCeiling int
	// RateLimitBackend selects "memory" or "redis".
	RateLimitBackend string
}

type ADSBConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	ADSB             ADSBConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("SKYLOG")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucketreceipts", "skylog-receipts")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.sessionttl", "720h") // 30 days
	v.SetDefault("security.sessionrefreshwindow", "360h")
	v.SetDefault("security.cookiename", "skylog_session")
	v.SetDefault("security.cookieinsecure", false)
	v.SetDefault("security.sharelinkttl", "72h")
	v.SetDefault("security.tokenttl", "24h")
	v.SetDefault("security.loginratewindow", "15m")
	v.SetDefault("security.loginrateceiling", 5)
	v.SetDefault("security.ratelimitbackend", "memory")

	v.SetDefault("adsb.baseurl", "https://adsb.example.com/v2")
	v.SetDefault("adsb.timeout", "15s")
}
