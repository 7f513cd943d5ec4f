package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`    // ops API服务配置
	Postgres  PostgresConfig            `mapstructure:"postgres"`  // PostgreSQL配置
	Data      DataConfig                `mapstructure:"data"`      // 快照/留档目录配置
	Ingest    IngestConfig              `mapstructure:"ingest"`    // 摄取任务配置
	Providers map[string]ProviderConfig `mapstructure:"providers"` // 多数据源独立配置
}

// ServerConfig ops API服务配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// DataConfig 文件留档配置。staging/games/reports 三个区都挂在 dir 下
type DataConfig struct {
	Dir string `mapstructure:"dir"` // 数据根目录
}

// IngestConfig 摄取任务配置
type IngestConfig struct {
	LowQualityThreshold float64  `mapstructure:"low_quality_threshold"` // 低质量判定阈值（默认70）
	EnabledProviders    []string `mapstructure:"enabled_providers"`     // 启用的数据源列表
}

// ProviderConfig 单个数据源的独立配置
type ProviderConfig struct {
	BaseURL     string  `mapstructure:"base_url"`    // API基础地址（HTTP源用）
	Timeout     int     `mapstructure:"timeout"`     // 请求超时（秒）
	Proxy       string  `mapstructure:"proxy"`       // 代理地址
	Reliability float64 `mapstructure:"reliability"` // 源级信任权重 0.0~1.0，合并时排序用
	FeedDir     string  `mapstructure:"feed_dir"`    // 本地JSON目录（localfeed源用）
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)

	// 4. 兜底默认值
	if cfg.Ingest.LowQualityThreshold <= 0 {
		cfg.Ingest.LowQualityThreshold = 70
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "./data"
	}
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("GAMESYNC_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if p, ok := cfg.Providers["npbweb"]; ok {
		if v := os.Getenv("NPBWEB_BASE_URL"); v != "" {
			p.BaseURL = v
		}
		if v := os.Getenv("NPBWEB_PROXY"); v != "" {
			p.Proxy = v
		}
		cfg.Providers["npbweb"] = p
	}
}
