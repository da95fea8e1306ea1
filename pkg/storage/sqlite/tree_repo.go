// Package sqlite SQLite方言与驱动注册
package sqlite

import (
	_ "github.com/mattn/go-sqlite3"

	"github.com/LENAX/capability-tree/pkg/storage/sqldb"
)

// NewTreeRepoFromDSN 通过DSN创建SQLite树存储（对外导出）
// dsn示例: ./data/captree.db 或 file:captree.db?cache=shared
func NewTreeRepoFromDSN(dsn string) (*sqldb.TreeRepo, error) {
	return sqldb.Open(NewSQLiteDialect(), dsn)
}
