package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/capability-tree/pkg/config"
	"github.com/LENAX/capability-tree/pkg/storage/file"
	"github.com/LENAX/capability-tree/pkg/storage/sqldb"
)

func TestNewTreeRepository(t *testing.T) {
	t.Run("文件存储", func(t *testing.T) {
		cfg := config.Default()
		cfg.Captree.Storage.Database.DSN = filepath.Join(t.TempDir(), "trees")

		repo, err := NewTreeRepository(cfg)
		require.NoError(t, err)
		defer repo.Close()
		assert.IsType(t, &file.TreeRepo{}, repo)
	})

	t.Run("SQLite存储", func(t *testing.T) {
		cfg := config.Default()
		cfg.Captree.Storage.Database.Type = "sqlite"
		cfg.Captree.Storage.Database.DSN = filepath.Join(t.TempDir(), "captree.db")

		repo, err := NewTreeRepository(cfg)
		require.NoError(t, err)
		defer repo.Close()
		assert.IsType(t, &sqldb.TreeRepo{}, repo)
	})

	t.Run("不支持的类型", func(t *testing.T) {
		cfg := config.Default()
		cfg.Captree.Storage.Database.Type = "oracle"

		_, err := NewTreeRepository(cfg)
		assert.Error(t, err)
	})
}
