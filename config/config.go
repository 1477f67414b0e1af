package config

import (
	"coilflow/persistence"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	WorkOrder WorkOrderConfig `mapstructure:"workorder"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Actor     ActorConfig     `mapstructure:"actor"`
	ID        IDConfig        `mapstructure:"id"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Args         string `mapstructure:"args"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogMode      bool   `mapstructure:"log_mode"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
	// Rate is the notification budget per second, 0 means unlimited.
	Rate float64 `mapstructure:"rate"`
}

type WorkOrderConfig struct {
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`
}

type ReconcileConfig struct {
	Cron     string `mapstructure:"cron"`
	PageSize int    `mapstructure:"page_size"`
}

type ActorConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// Names maps actor ids to display names when no identity service is wired.
	Names map[string]string `mapstructure:"names"`
}

type IDConfig struct {
	// MachineID tells apart id workers sharing a host, 0 derives it from the private address.
	MachineID uint16 `mapstructure:"machine_id"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads config.yaml from the given directories (default "./configs" and "."), then applies environment overrides.
func Load(configPaths ...string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(configPaths) == 0 {
		configPaths = []string{"./configs", "."}
	}
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.PersistenceConfig().Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":80")
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.args", "file:coilflow.db?_busy_timeout=5000")
	v.SetDefault("workorder.operation_timeout", 5*time.Second)
	v.SetDefault("reconcile.cron", "@every 1m")
	v.SetDefault("reconcile.page_size", 200)
	v.SetDefault("actor.cache_ttl", 10*time.Minute)
	v.SetDefault("log.level", "info")
}

func bindEnvVariables(v *viper.Viper) {
	_ = v.BindEnv("server.addr", "SERVER_ADDR")

	_ = v.BindEnv("database.driver", "DB_DRIVER")
	_ = v.BindEnv("database.args", "DB_ARGS")
	_ = v.BindEnv("database.max_open_conns", "DB_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.log_mode", "DB_LOG_MODE")

	_ = v.BindEnv("nats.url", "NATS_URL")
	_ = v.BindEnv("nats.rate", "NOTIFY_RATE")

	_ = v.BindEnv("workorder.operation_timeout", "OPERATION_TIMEOUT")
	_ = v.BindEnv("reconcile.cron", "RECONCILE_CRON")
	_ = v.BindEnv("actor.cache_ttl", "ACTOR_CACHE_TTL")
	_ = v.BindEnv("id.machine_id", "ID_MACHINE_ID")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func (c *Config) PersistenceConfig() *persistence.DatabaseConfig {
	return &persistence.DatabaseConfig{
		DriverType:   c.Database.Driver,
		DriverArgs:   c.Database.Args,
		MaxOpenConns: c.Database.MaxOpenConns,
		LogMode:      c.Database.LogMode,
	}
}
