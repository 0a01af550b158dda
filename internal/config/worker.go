package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type WorkerConfig struct {
	Environment string
	Redis       WorkerRedisConfig
	Postgres    PostgresConfig
	Storage     StorageConfig
	Facebook    FacebookConfig
	Mail        MailConfig
	Verify      VerifyConfig
	Queues      WorkerQueueConfig
	Logging     LoggingConfig
}

type WorkerRedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

// Conn is the connection part of the worker's redis settings.
func (c WorkerRedisConfig) Conn() RedisConfig {
	return RedisConfig{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

// VerifyConfig carries what the worker needs to mint verification links.
type VerifyConfig struct {
	Secret string
	TTL    time.Duration
}

type WorkerQueueConfig struct {
	ClaimInterval time.Duration
}

type LoggingConfig struct {
	Level string
}

func LoadWorker() (*WorkerConfig, error) {
	v := newViper("worker", "CAMPAIGNDASH_WORKER")
	setWorkerDefaults(v)

	var cfg WorkerConfig
	if err := read(v, &cfg); err != nil {
		return nil, err
	}
	if cfg.Verify.Secret == "" {
		return nil, fmt.Errorf("verify.secret is required")
	}
	return &cfg, nil
}

func setWorkerDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "campaigndash:tasks")
	v.SetDefault("redis.group", "campaigndash-workers")
	v.SetDefault("redis.consumer", "worker-1")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 4)
	v.SetDefault("postgres.maxidle", 1)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucketsnapshots", "campaigndash-snapshots")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("facebook.graphurl", "https://graph.facebook.com")
	v.SetDefault("facebook.version", "v17.0")
	v.SetDefault("facebook.accesstoken", "")
	v.SetDefault("facebook.adaccountid", "")
	v.SetDefault("facebook.timeout", "20s")

	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.from", "no-reply@campaigndash.local")
	v.SetDefault("mail.smtphost", "")
	v.SetDefault("mail.smtpport", 587)
	v.SetDefault("mail.smtpuser", "")
	v.SetDefault("mail.smtppass", "")
	v.SetDefault("mail.frontendurl", "http://localhost:3000")

	v.SetDefault("verify.secret", "")
	v.SetDefault("verify.ttl", "24h")

	v.SetDefault("queues.claiminterval", "30s")

	v.SetDefault("logging.level", "info")
}
