package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 GOSHOP_DATABASE_DSN
const EnvPrefix = "GOSHOP"

// Load 读取配置：默认值 < 配置文件(yaml) < 环境变量(.env 会先被加载)
// path 为空时只使用默认值与环境变量。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults 注册所有 key，AutomaticEnv 才能在 Unmarshal 时覆盖
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("admin_server.host", d.AdminServer.Host)
	v.SetDefault("admin_server.port", d.AdminServer.Port)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.debug", d.Database.Debug)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.pool_size", d.Redis.PoolSize)

	v.SetDefault("rabbitmq.url", d.RabbitMQ.URL)
	v.SetDefault("rabbitmq.prefetch", d.RabbitMQ.Prefetch)

	v.SetDefault("jwt.secret", d.JWT.Secret)
	v.SetDefault("jwt.ttl", d.JWT.TTL)

	v.SetDefault("log.mode", d.Log.Mode)
	v.SetDefault("log.file_enable", d.Log.FileEnable)
	v.SetDefault("log.filename", d.Log.Filename)

	v.SetDefault("sms.username", d.SMS.Username)
	v.SetDefault("sms.api_key", d.SMS.APIKey)
	v.SetDefault("sms.sender_id", d.SMS.SenderID)
	v.SetDefault("sms.endpoint", d.SMS.Endpoint)
	v.SetDefault("sms.country_code", d.SMS.CountryCode)
	v.SetDefault("sms.timeout", d.SMS.Timeout)

	v.SetDefault("mail.host", d.Mail.Host)
	v.SetDefault("mail.port", d.Mail.Port)
	v.SetDefault("mail.username", d.Mail.Username)
	v.SetDefault("mail.password", d.Mail.Password)
	v.SetDefault("mail.from", d.Mail.From)

	v.SetDefault("notify.backend", d.Notify.Backend)
	v.SetDefault("notify.queue", d.Notify.Queue)
	v.SetDefault("notify.pool_size", d.Notify.PoolSize)
	v.SetDefault("notify.result_ttl", d.Notify.ResultTTL)

	v.SetDefault("rate_limit.capacity", d.RateLimit.Capacity)
	v.SetDefault("rate_limit.refill_rate", d.RateLimit.RefillRate)
}
