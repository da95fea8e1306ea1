package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateFrameworkConfig 校验框架配置合法性
func ValidateFrameworkConfig(cfg *FrameworkConfig) error {
	if cfg == nil {
		return fmt.Errorf("配置不能为空")
	}

	// 校验General
	if cfg.Captree.General.InstanceName == "" {
		return fmt.Errorf("instance_name不能为空")
	}
	if cfg.Captree.General.LogLevel != "" {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[cfg.Captree.General.LogLevel] {
			return fmt.Errorf("log_level必须是debug/info/warn/error之一")
		}
	}

	// 校验Server
	if cfg.Captree.Server.Port <= 0 || cfg.Captree.Server.Port > 65535 {
		return fmt.Errorf("server.port必须在1-65535之间")
	}

	// 校验Storage.Database
	validDBTypes := map[string]bool{
		"file":       true,
		"sqlite":     true,
		"postgres":   true,
		"postgresql": true,
		"mysql":      true,
	}
	if !validDBTypes[cfg.Captree.Storage.Database.Type] {
		return fmt.Errorf("database.type必须是file/sqlite/postgres/mysql之一")
	}
	if cfg.Captree.Storage.Database.DSN == "" {
		return fmt.Errorf("database.dsn不能为空")
	}
	if cfg.Captree.Storage.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns必须大于0")
	}
	if cfg.Captree.Storage.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns不能为负数")
	}

	// 校验Report
	if cfg.Captree.Report.Enabled {
		if _, err := cronParser.Parse(cfg.Captree.Report.CronExpr); err != nil {
			return fmt.Errorf("report.cron_expr无效: %w", err)
		}
	}

	return nil
}
