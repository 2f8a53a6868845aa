package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"stockmesh/signal"
)

// Config 系统配置
type Config struct {
	// 策略参数
	Strategy signal.Config `yaml:"strategy"`

	// 回测配置
	Backtest struct {
		Symbols        []string `yaml:"symbols"`         // 标的篮子
		Days           int      `yaml:"days"`            // 回测窗口（日线条数，默认180）
		InitialCapital float64  `yaml:"initial_capital"` // 每个标的的初始资金（默认10000）
		Workers        int      `yaml:"workers"`         // 并发worker数（默认4）
	} `yaml:"backtest"`

	// 数据源配置
	Data struct {
		APIKey    string `yaml:"api_key"`    // Binance API Key（公开K线接口可留空）
		SecretKey string `yaml:"secret_key"` // Binance Secret Key
		CSVDir    string `yaml:"csv_dir"`    // 本地指标表目录（设置后优先于远端取数）
	} `yaml:"data"`

	// 存储配置
	Storage struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`

	// Web 服务配置
	Web struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"web"`

	System struct {
		LogLevel string `yaml:"log_level"`
		Timezone string `yaml:"timezone"` // 时区，如 "Asia/Shanghai"
	} `yaml:"system"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %v", err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes 从字节数组加载配置（用于测试）
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %v", err)
	}

	return &cfg, nil
}

// SaveConfig 保存配置到文件
func SaveConfig(cfg *Config, configPath string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %v", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %v", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %v", err)
	}

	return nil
}

// DefaultConfig 创建默认配置
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Strategy = signal.DefaultConfig()
	cfg.Backtest.Symbols = []string{"BTCUSDT", "ETHUSDT", "BNBUSDT"}
	cfg.Backtest.Days = 180
	cfg.Backtest.InitialCapital = 10000
	cfg.Backtest.Workers = 4
	cfg.Storage.Path = "./data/stockmesh.db"
	cfg.Web.Port = 28890
	cfg.System.LogLevel = "INFO"
	cfg.System.Timezone = "Asia/Shanghai"
	return cfg
}

// Validate 校验配置并填充默认值
func (c *Config) Validate() error {
	// 策略参数：零值填默认，非法值报错
	c.Strategy.Normalize()
	if err := c.Strategy.Validate(); err != nil {
		return err
	}

	// 回测配置
	if len(c.Backtest.Symbols) == 0 {
		return fmt.Errorf("未配置任何标的，请在 backtest.symbols 中添加")
	}
	seen := make(map[string]bool)
	for _, symbol := range c.Backtest.Symbols {
		if symbol == "" {
			return fmt.Errorf("标的不能为空")
		}
		if seen[symbol] {
			return fmt.Errorf("标的 %s 重复配置", symbol)
		}
		seen[symbol] = true
	}

	if c.Backtest.Days == 0 {
		c.Backtest.Days = 180
	}
	if c.Backtest.Days < 0 {
		return fmt.Errorf("回测窗口必须大于0: %d", c.Backtest.Days)
	}

	if c.Backtest.InitialCapital == 0 {
		c.Backtest.InitialCapital = 10000
	}
	if c.Backtest.InitialCapital < 0 {
		return fmt.Errorf("初始资金必须大于0: %f", c.Backtest.InitialCapital)
	}

	if c.Backtest.Workers == 0 {
		c.Backtest.Workers = 4
	}
	if c.Backtest.Workers < 0 {
		return fmt.Errorf("worker数必须大于0: %d", c.Backtest.Workers)
	}

	// 存储配置
	if c.Storage.Enabled && c.Storage.Path == "" {
		c.Storage.Path = "./data/stockmesh.db"
	}

	// Web 配置
	if c.Web.Enabled {
		if c.Web.Port == 0 {
			c.Web.Port = 28890
		}
		if c.Web.Port < 0 || c.Web.Port > 65535 {
			return fmt.Errorf("Web 端口非法: %d", c.Web.Port)
		}
	}

	if c.System.LogLevel == "" {
		c.System.LogLevel = "INFO"
	}
	if c.System.Timezone == "" {
		c.System.Timezone = "Asia/Shanghai"
	}

	return nil
}
