// Package mysql MySQL方言与驱动注册
package mysql

import (
	"fmt"

	driver "github.com/go-sql-driver/mysql"

	"github.com/LENAX/capability-tree/pkg/storage/sqldb"
)

// NormalizeDSN 解析DSN并强制开启parseTime，时间列才能扫描为time.Time
// dsn格式: user:password@tcp(host:port)/dbname
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("解析MySQL DSN失败: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// NewTreeRepoFromDSN 通过DSN创建MySQL树存储（对外导出）
func NewTreeRepoFromDSN(dsn string) (*sqldb.TreeRepo, error) {
	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	return sqldb.Open(NewMySQLDialect(), normalized)
}
