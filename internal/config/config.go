package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 配置文件结构体
type Config struct {
	Version string `yaml:"version"`

	Driver struct {
		URL       string `yaml:"url"`       // 驱动进程 websocket 地址
		TimeoutMS int    `yaml:"timeoutMS"` // 单次调用超时
	} `yaml:"driver"`

	Sqlite struct {
		Dsn    string `yaml:"dsn"`
		Prefix string `yaml:"prefix"`
	} `yaml:"sqlite"`

	Log struct {
		Level  string   `yaml:"level"`
		Writer []string `yaml:"writer"`
		File   string   `yaml:"file"`
	} `yaml:"log"`

	// AbortCodes 按引擎覆盖 abort 错误码到引擎错误串的映射
	AbortCodes map[string]map[string]string `yaml:"abortCodes"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	c := &Config{Version: "1.0.0"}
	c.Driver.URL = "ws://127.0.0.1:4444"
	c.Driver.TimeoutMS = 30000
	c.Sqlite.Dsn = "traffic.sqlite3"
	c.Sqlite.Prefix = "pwdriver_"
	c.Log.Level = "info"
	c.Log.Writer = []string{"console"}
	return c
}

// Load 从文件加载配置，文件不存在时返回默认配置
func Load(path string) (*Config, error) {
	c := NewConfig()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("配置文件不存在: %w", err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return c, nil
}
