package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrameworkConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "captree.yaml")
	configContent := `
captree:
  general:
    instance_name: "test-captree"
    log_level: "debug"
    env: "test"
  server:
    port: 9090
    read_timeout: "5s"
  storage:
    database:
      type: "sqlite"
      dsn: "./test.db"
      max_open_conns: 5
      max_idle_conns: 2
      conn_max_lifetime: "1h"
    cache:
      enabled: false
      default_ttl: "2m"
  report:
    enabled: true
    cron_expr: "*/30 * * * * *"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := LoadFrameworkConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "test-captree", cfg.Captree.General.InstanceName)
	assert.True(t, cfg.IsDebug())
	assert.Equal(t, 9090, cfg.Captree.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Captree.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Captree.Server.WriteTimeout, "未配置项应用默认值")
	assert.Equal(t, "sqlite", cfg.GetDatabaseType())
	assert.Equal(t, "./test.db", cfg.GetDatabaseDSN())
	assert.Equal(t, time.Hour, cfg.Captree.Storage.Database.ConnMaxLifetime)
	assert.False(t, cfg.Captree.Storage.Cache.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Captree.Storage.Cache.DefaultTTL)
	assert.True(t, cfg.Captree.Report.Enabled)
	assert.Equal(t, "*/30 * * * * *", cfg.Captree.Report.CronExpr)
}

func TestLoadFrameworkConfig_MissingFile(t *testing.T) {
	cfg, err := LoadFrameworkConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "captree", cfg.Captree.General.InstanceName)
	assert.Equal(t, "file", cfg.GetDatabaseType())
	assert.Equal(t, "./data/trees", cfg.GetDatabaseDSN())
	assert.Equal(t, 8080, cfg.Captree.Server.Port)
	assert.True(t, cfg.Captree.Storage.Cache.Enabled)
	assert.False(t, cfg.Captree.Report.Enabled)
}

func TestParseFrameworkConfig_Invalid(t *testing.T) {
	t.Run("YAML语法错误", func(t *testing.T) {
		_, err := ParseFrameworkConfig([]byte("captree: ["))
		assert.Error(t, err)
	})

	t.Run("未知数据库类型", func(t *testing.T) {
		_, err := ParseFrameworkConfig([]byte("captree:\n  storage:\n    database:\n      type: oracle\n      dsn: x\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.type")
	})

	t.Run("mysql缺少DSN", func(t *testing.T) {
		_, err := ParseFrameworkConfig([]byte("captree:\n  storage:\n    database:\n      type: mysql\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.dsn")
	})

	t.Run("无效cron表达式", func(t *testing.T) {
		_, err := ParseFrameworkConfig([]byte("captree:\n  report:\n    enabled: true\n    cron_expr: \"every minute\"\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "report.cron_expr")
	})
}

func TestValidateFrameworkConfig(t *testing.T) {
	assert.Error(t, ValidateFrameworkConfig(nil))

	cfg := Default()
	require.NoError(t, ValidateFrameworkConfig(cfg))

	cfg.Captree.General.LogLevel = "verbose"
	assert.Error(t, ValidateFrameworkConfig(cfg))

	cfg = Default()
	cfg.Captree.Server.Port = 70000
	assert.Error(t, ValidateFrameworkConfig(cfg))

	cfg = Default()
	cfg.Captree.Storage.Database.MaxIdleConns = -1
	assert.Error(t, ValidateFrameworkConfig(cfg))
}
