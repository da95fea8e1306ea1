package storage

import (
	"fmt"
	"log"

	"github.com/LENAX/capability-tree/pkg/config"
	"github.com/LENAX/capability-tree/pkg/storage"
	"github.com/LENAX/capability-tree/pkg/storage/file"
	"github.com/LENAX/capability-tree/pkg/storage/mysql"
	"github.com/LENAX/capability-tree/pkg/storage/postgres"
	"github.com/LENAX/capability-tree/pkg/storage/sqldb"
	pkgsqlite "github.com/LENAX/capability-tree/pkg/storage/sqlite"
)

// NewTreeRepository 根据配置创建树存储（内部方法）
// 支持的类型: file / sqlite / mysql / postgres(postgresql)
func NewTreeRepository(cfg *config.FrameworkConfig) (storage.TreeRepository, error) {
	dbType := cfg.GetDatabaseType()
	dsn := cfg.GetDatabaseDSN()

	var (
		repo *sqldb.TreeRepo
		err  error
	)
	switch dbType {
	case "file":
		fileRepo, err := file.NewTreeRepo(dsn)
		if err != nil {
			return nil, fmt.Errorf("create file repository failed: %w", err)
		}
		log.Printf("✅ [Storage] 使用文件存储: %s", dsn)
		return fileRepo, nil
	case "sqlite":
		repo, err = pkgsqlite.NewTreeRepoFromDSN(dsn)
	case "mysql":
		repo, err = mysql.NewTreeRepoFromDSN(dsn)
	case "postgres", "postgresql":
		repo, err = postgres.NewTreeRepoFromDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s repository failed: %w", dbType, err)
	}

	db := repo.GetDB()
	dbCfg := cfg.Captree.Storage.Database
	db.SetMaxOpenConns(dbCfg.MaxOpenConns)
	db.SetMaxIdleConns(dbCfg.MaxIdleConns)
	db.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(dbCfg.ConnMaxIdleTime)

	log.Printf("✅ [Storage] 使用%s存储", dbType)
	return repo, nil
}
