package storage

// Dialect SQL方言接口（对外导出）
// 封装不同数据库的SQL语法差异
type Dialect interface {
	// Name 返回方言名称（如 "sqlite", "mysql", "postgres"）
	Name() string

	// DriverName 返回 database/sql 注册的驱动名
	DriverName() string

	// UpsertSQL 返回INSERT或UPDATE的SQL语句，使用 :column 形式的命名参数
	// tableName: 表名
	// columns: 列名列表
	// conflictColumn: 冲突判断列（通常是主键）
	// updateColumns: 冲突时需要更新的列（不含主键和创建时间）
	UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string

	// CreateTableSQL 返回创建表的DDL语句
	// 输入为通用DDL，由方言补充各自的差异（如MySQL的引擎声明）
	CreateTableSQL(schema string) string

	// ConfigureDB 配置数据库连接（如SQLite的PRAGMA）
	// 返回需要执行的SQL语句列表
	ConfigureDB() []string

	// KeyType 返回字符串主键类型
	// SQLite: TEXT
	// MySQL: VARCHAR(191)（utf8mb4下索引长度限制）
	// PostgreSQL: VARCHAR(255)
	KeyType() string

	// DocumentType 返回大文本类型
	// SQLite/PostgreSQL: TEXT
	// MySQL: LONGTEXT
	DocumentType() string

	// TimestampType 返回时间戳类型
	// SQLite: DATETIME
	// MySQL: DATETIME(6)
	// PostgreSQL: TIMESTAMP
	TimestampType() string
}
