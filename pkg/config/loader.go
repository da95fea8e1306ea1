package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFrameworkConfig 加载配置文件
// 文件不存在时返回默认配置；存在时解析、补默认值并校验
func LoadFrameworkConfig(path string) (*FrameworkConfig, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	return ParseFrameworkConfig(data)
}

// ParseFrameworkConfig 从YAML内容解析配置
func ParseFrameworkConfig(data []byte) (*FrameworkConfig, error) {
	cfg := &FrameworkConfig{}
	cfg.Captree.Storage.Cache.Enabled = true
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.ApplyDefaults()
	if err := ValidateFrameworkConfig(cfg); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}
	return cfg, nil
}
