package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	DashScope  DashScopeConfig  `yaml:"dashscope"`
	Engagement EngagementConfig `yaml:"engagement"`
	Store      StoreConfig      `yaml:"store"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Workers    WorkersConfig    `yaml:"workers"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int      `yaml:"port"`
	Name        string   `yaml:"name"`
	CORSOrigins []string `yaml:"corsOrigins"` // 为空时允许任意来源
}

// DashScopeConfig 通义千问配置
type DashScopeConfig struct {
	APIKey  string        `yaml:"apiKey"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

// EngagementConfig 对话引擎参数
type EngagementConfig struct {
	QualifyThreshold int           `yaml:"qualifyThreshold"` // 线索评分达到该值进入 qualified
	ContextWindow    int           `yaml:"contextWindow"`    // 生成回复时携带的历史消息条数
	ClassifyTimeout  time.Duration `yaml:"classifyTimeout"`
	GenerateTimeout  time.Duration `yaml:"generateTimeout"`
	MaxTokens        int           `yaml:"maxTokens"`
	Temperature      float64       `yaml:"temperature"`
}

// StoreConfig 会话存储配置
type StoreConfig struct {
	Type string        `yaml:"type"` // memory, redis
	TTL  time.Duration `yaml:"ttl"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig 通知信号投递配置
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// WorkersConfig 会话任务调度配置
type WorkersConfig struct {
	Count     int `yaml:"count"`     // 同时执行的轮次上限，不同会话之间并发
	QueueSize int `yaml:"queueSize"` // 单个会话排队的轮次上限
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LoadConfig 加载配置文件，${VAR} 会替换为环境变量
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return Parse(data)
}

// Parse 解析配置内容并填充默认值
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(expandEnv(data), &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv 只替换 ${VAR}，单独的 $ 原样保留
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(ref[2 : len(ref)-1])))
	})
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Name == "" {
		c.Server.Name = "engagement"
	}
	if c.DashScope.Timeout == 0 {
		c.DashScope.Timeout = 30 * time.Second
	}
	e := &c.Engagement
	if e.QualifyThreshold == 0 {
		e.QualifyThreshold = 60
	}
	if e.ContextWindow == 0 {
		e.ContextWindow = 5
	}
	if e.ClassifyTimeout == 0 {
		e.ClassifyTimeout = 3 * time.Second
	}
	if e.GenerateTimeout == 0 {
		e.GenerateTimeout = 8 * time.Second
	}
	if e.MaxTokens == 0 {
		e.MaxTokens = 300
	}
	if e.Temperature == 0 {
		e.Temperature = 0.7
	}
	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}
	if c.Store.TTL == 0 {
		c.Store.TTL = 24 * time.Hour
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "engagement-signals"
	}
	if c.Workers.Count == 0 {
		c.Workers.Count = 64
	}
	if c.Workers.QueueSize == 0 {
		c.Workers.QueueSize = 16
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Engagement.QualifyThreshold < 0 || c.Engagement.QualifyThreshold > 100 {
		return fmt.Errorf("engagement.qualifyThreshold 必须在 0-100 之间: %d", c.Engagement.QualifyThreshold)
	}
	if c.Engagement.ContextWindow < 0 {
		return fmt.Errorf("engagement.contextWindow 不能为负数: %d", c.Engagement.ContextWindow)
	}
	switch c.Store.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("不支持的 store.type: %s", c.Store.Type)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.enabled 为 true 时必须配置 kafka.brokers")
	}
	return nil
}
