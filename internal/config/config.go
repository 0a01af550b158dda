package config

import (
	"fmt"
	"strings"
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
	Migrate         bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	BucketSnapshots string
	UseSSL          bool
	Region          string
}

type SecurityConfig struct {
	JWTAccessSecret    string
	JWTVerifySecret    string
	JWTAccessTTL       time.Duration
	JWTRefreshTTL      time.Duration
	RememberTTL        time.Duration
	VerifyTTL          time.Duration
	MaxSessions        int
	AdminEmails        []string
	AdminDomains       []string
	LoginMaxAttempts   int
	LoginAttemptWindow time.Duration
}

type GoogleConfig struct {
	ClientID     string
	TokenInfoURL string
}

type FacebookConfig struct {
	GraphURL    string
	Version     string
	AccessToken string
	AdAccountID string
	CacheTTL    time.Duration
	Timeout     time.Duration
}

type MailConfig struct {
	Provider    string
	From        string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	FrontendURL string
}

type QueueConfig struct {
	Stream string
}

type JobsConfig struct {
	CleanupSpec  string
	SnapshotSpec string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Security         SecurityConfig
	Google           GoogleConfig
	Facebook         FacebookConfig
	Queue            QueueConfig
	Jobs             JobsConfig
	AllowCORSOrigins []string
}

// Production reports whether cookies must be marked Secure.
func (c *AppConfig) Production() bool {
	return c.Environment == "production"
}

func Load() (*AppConfig, error) {
	v := newViper("config", "CAMPAIGNDASH")
	setDefaults(v)

	var cfg AppConfig
	if err := read(v, &cfg); err != nil {
		return nil, err
	}
	if cfg.Security.JWTAccessSecret == "" || cfg.Security.JWTVerifySecret == "" {
		return nil, fmt.Errorf("security.jwtaccesssecret and security.jwtverifysecret are required")
	}
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres.dsn is required")
	}
	return &cfg, nil
}

func newViper(name, envPrefix string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func read(v *viper.Viper, out any) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	if err := v.Unmarshal(out, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "30s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 20)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.migrate", true)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.jwtaccesssecret", "")
	v.SetDefault("security.jwtverifysecret", "")
	v.SetDefault("security.jwtaccessttl", "15m")
	v.SetDefault("security.jwtrefreshttl", "24h")
	v.SetDefault("security.rememberttl", "720h") // 30 days
	v.SetDefault("security.verifyttl", "24h")
	v.SetDefault("security.maxsessions", 10)
	v.SetDefault("security.adminemails", []string{})
	v.SetDefault("security.admindomains", []string{})
	v.SetDefault("security.loginmaxattempts", 10)
	v.SetDefault("security.loginattemptwindow", "15m")

	v.SetDefault("google.clientid", "")
	v.SetDefault("google.tokeninfourl", "https://oauth2.googleapis.com/tokeninfo")

	v.SetDefault("facebook.graphurl", "https://graph.facebook.com")
	v.SetDefault("facebook.version", "v17.0")
	v.SetDefault("facebook.accesstoken", "")
	v.SetDefault("facebook.adaccountid", "")
	v.SetDefault("facebook.cachettl", "10m")
	v.SetDefault("facebook.timeout", "20s")

	v.SetDefault("queue.stream", "campaigndash:tasks")

	v.SetDefault("jobs.cleanupspec", "0 30 3 * * *")
	v.SetDefault("jobs.snapshotspec", "0 0 4 * * *")

	v.SetDefault("allowcorsorigins", []string{"http://localhost:3000"})
}
