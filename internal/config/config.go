// Package config 提供服务配置加载
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务配置
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Log        LogConfig        `yaml:"log"`
	Node       NodeConfig       `yaml:"node"`
	Symbols    []SymbolConfig   `yaml:"symbols"`
	Options    []OptionSetting  `yaml:"option_settings"`
	Settlement SettlementConfig `yaml:"settlement"`
	Worker     WorkerConfig     `yaml:"worker"`
}

// ServiceConfig HTTP 服务配置
type ServiceConfig struct {
	Name            string `yaml:"name"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
}

// Addr 返回监听地址
func (c *ServiceConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	SSLMode         string `yaml:"sslmode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_sec"`
}

// DSN 返回 postgres 连接串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	PoolSize int      `yaml:"pool_size"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NodeConfig 节点配置 (雪花 ID 生成)
type NodeConfig struct {
	ID int64 `yaml:"id"`
}

// SymbolConfig 交易对配置
type SymbolConfig struct {
	Symbol    string `yaml:"symbol"`
	MinAmount string `yaml:"min_amount"`
	MaxAmount string `yaml:"max_amount"`
}

// OptionSetting 期权期限收益配置
type OptionSetting struct {
	DurationSeconds  int     `yaml:"duration_seconds"`
	ProfitPercentage float64 `yaml:"profit_percentage"`
}

// SettlementConfig 结算配置
type SettlementConfig struct {
	MaxRetries              int     `yaml:"max_retries"`               // 乐观锁冲突最大重试次数
	RetryBackoffMs          int     `yaml:"retry_backoff_ms"`          // 重试退避 (毫秒)
	ForcedMoveBps           int64   `yaml:"forced_move_bps"`           // 强制结果时结算价偏移 (基点)
	DefaultProfitPercentage float64 `yaml:"default_profit_percentage"` // 无匹配期限配置时的收益率
}

// RetryBackoff 返回重试退避时长
func (c *SettlementConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

// WorkerConfig 后台任务配置
type WorkerConfig struct {
	Expiry ExpiryWorkerConfig `yaml:"expiry"`
}

// ExpiryWorkerConfig 到期结算任务配置
type ExpiryWorkerConfig struct {
	Enabled          bool `yaml:"enabled"`
	CheckIntervalSec int  `yaml:"check_interval_sec"`
	BatchSize        int  `yaml:"batch_size"`
}

// Load 加载配置
// 优先级: 环境变量 > CONFIG_PATH 指定的 yaml 文件 > 默认值
func Load() (*Config, error) {
	cfg := defaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s failed: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s failed: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig 返回默认配置
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:            "arcadia-options",
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeoutSec:  10,
			WriteTimeoutSec: 10,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			DBName:          "arcadia_options",
			SSLMode:         "disable",
			MaxOpenConns:    50,
			MaxIdleConns:    10,
			ConnMaxLifetime: 300,
		},
		Redis: RedisConfig{
			Addrs:    []string{"localhost:6379"},
			DB:       0,
			PoolSize: 20,
		},
		Kafka: KafkaConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Node: NodeConfig{
			ID: 1,
		},
		Settlement: SettlementConfig{
			MaxRetries:              3,
			RetryBackoffMs:          50,
			ForcedMoveBps:           10,
			DefaultProfitPercentage: 10,
		},
		Worker: WorkerConfig{
			Expiry: ExpiryWorkerConfig{
				Enabled:          true,
				CheckIntervalSec: 1,
				BatchSize:        100,
			},
		},
	}
}

// applyEnvOverrides 应用环境变量覆盖
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVICE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Service.Port = port
		}
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addrs = []string{v}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = []string{v}
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("NODE_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Node.ID = id
		}
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid service port: %d", c.Service.Port)
	}
	if c.Settlement.MaxRetries < 0 {
		return fmt.Errorf("invalid settlement max_retries: %d", c.Settlement.MaxRetries)
	}
	if c.Settlement.DefaultProfitPercentage <= 0 {
		return fmt.Errorf("invalid default_profit_percentage: %f", c.Settlement.DefaultProfitPercentage)
	}
	for _, s := range c.Symbols {
		if s.Symbol == "" {
			return fmt.Errorf("symbol config with empty symbol")
		}
	}
	for _, o := range c.Options {
		if o.DurationSeconds <= 0 {
			return fmt.Errorf("invalid option duration: %d", o.DurationSeconds)
		}
		if o.ProfitPercentage <= 0 {
			return fmt.Errorf("invalid profit percentage for duration %d: %f", o.DurationSeconds, o.ProfitPercentage)
		}
	}
	return nil
}
