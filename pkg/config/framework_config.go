package config

import (
	"time"
)

// FrameworkConfig 服务框架配置（对外导出）
type FrameworkConfig struct {
	Captree struct {
		General struct {
			InstanceName string `yaml:"instance_name"`
			LogLevel     string `yaml:"log_level"`
			Env          string `yaml:"env"`
		} `yaml:"general"`
		Server struct {
			Host            string        `yaml:"host"`
			Port            int           `yaml:"port"`
			ReadTimeout     time.Duration `yaml:"read_timeout"`
			WriteTimeout    time.Duration `yaml:"write_timeout"`
			ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		} `yaml:"server"`
		Storage struct {
			Database struct {
				Type            string        `yaml:"type"` // file | sqlite | mysql | postgres
				DSN             string        `yaml:"dsn"`  // file类型时为目录
				MaxOpenConns    int           `yaml:"max_open_conns"`
				MaxIdleConns    int           `yaml:"max_idle_conns"`
				ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
				ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
			} `yaml:"database"`
			Cache struct {
				Enabled       bool          `yaml:"enabled"`
				DefaultTTL    time.Duration `yaml:"default_ttl"`
				CleanInterval time.Duration `yaml:"clean_interval"`
			} `yaml:"cache"`
		} `yaml:"storage"`
		Report struct {
			Enabled  bool   `yaml:"enabled"`
			CronExpr string `yaml:"cron_expr"` // 带秒的cron表达式
		} `yaml:"report"`
	} `yaml:"captree"`
}

// GetDatabaseType 获取数据库类型
func (c *FrameworkConfig) GetDatabaseType() string {
	return c.Captree.Storage.Database.Type
}

// GetDatabaseDSN 获取数据库DSN
func (c *FrameworkConfig) GetDatabaseDSN() string {
	return c.Captree.Storage.Database.DSN
}

// IsDebug 是否调试日志级别
func (c *FrameworkConfig) IsDebug() bool {
	return c.Captree.General.LogLevel == "debug"
}

// Default 返回应用了默认值的配置
func Default() *FrameworkConfig {
	cfg := &FrameworkConfig{}
	cfg.Captree.Storage.Cache.Enabled = true
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults 应用默认值
func (c *FrameworkConfig) ApplyDefaults() {
	// General默认值
	if c.Captree.General.InstanceName == "" {
		c.Captree.General.InstanceName = "captree"
	}
	if c.Captree.General.LogLevel == "" {
		c.Captree.General.LogLevel = "info"
	}
	if c.Captree.General.Env == "" {
		c.Captree.General.Env = "dev"
	}

	// Server默认值
	if c.Captree.Server.Host == "" {
		c.Captree.Server.Host = "0.0.0.0"
	}
	if c.Captree.Server.Port <= 0 {
		c.Captree.Server.Port = 8080
	}
	if c.Captree.Server.ReadTimeout <= 0 {
		c.Captree.Server.ReadTimeout = 15 * time.Second
	}
	if c.Captree.Server.WriteTimeout <= 0 {
		c.Captree.Server.WriteTimeout = 15 * time.Second
	}
	if c.Captree.Server.ShutdownTimeout <= 0 {
		c.Captree.Server.ShutdownTimeout = 10 * time.Second
	}

	// Database默认值
	if c.Captree.Storage.Database.Type == "" {
		c.Captree.Storage.Database.Type = "file"
	}
	if c.Captree.Storage.Database.DSN == "" {
		switch c.Captree.Storage.Database.Type {
		case "file":
			c.Captree.Storage.Database.DSN = "./data/trees"
		case "sqlite":
			c.Captree.Storage.Database.DSN = "./data/captree.db"
		}
	}
	if c.Captree.Storage.Database.MaxOpenConns <= 0 {
		c.Captree.Storage.Database.MaxOpenConns = 10
	}
	if c.Captree.Storage.Database.MaxIdleConns <= 0 {
		c.Captree.Storage.Database.MaxIdleConns = 5
	}
	if c.Captree.Storage.Database.ConnMaxLifetime <= 0 {
		c.Captree.Storage.Database.ConnMaxLifetime = 2 * time.Hour
	}
	if c.Captree.Storage.Database.ConnMaxIdleTime <= 0 {
		c.Captree.Storage.Database.ConnMaxIdleTime = 1 * time.Hour
	}

	// Cache默认值
	if c.Captree.Storage.Cache.DefaultTTL <= 0 {
		c.Captree.Storage.Cache.DefaultTTL = 10 * time.Minute
	}
	if c.Captree.Storage.Cache.CleanInterval <= 0 {
		c.Captree.Storage.Cache.CleanInterval = 1 * time.Minute
	}

	// Report默认值
	if c.Captree.Report.CronExpr == "" {
		c.Captree.Report.CronExpr = "0 0 * * * *"
	}
}
