// Package sqldb 基于 sqlx 的树存储实现，方言差异由 storage.Dialect 封装
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/LENAX/capability-tree/pkg/core/types"
	"github.com/LENAX/capability-tree/pkg/storage"
	"github.com/LENAX/capability-tree/pkg/storage/dao"
	"github.com/LENAX/capability-tree/pkg/treefile"
)

const tableName = "capability_tree"

var (
	treeColumns   = []string{"id", "name", "document", "revision", "node_count", "create_time", "update_time"}
	updateColumns = []string{"name", "document", "revision", "node_count", "update_time"}
)

// TreeRepo TreeRepository的SQL实现（对外导出）
type TreeRepo struct {
	db      *sqlx.DB
	dialect storage.Dialect
}

// NewTreeRepo 创建TreeRepo并初始化表结构
func NewTreeRepo(db *sqlx.DB, dialect storage.Dialect) (*TreeRepo, error) {
	repo := &TreeRepo{db: db, dialect: dialect}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return repo, nil
}

// Open 通过DSN打开数据库并创建TreeRepo
func Open(dialect storage.Dialect, dsn string) (*TreeRepo, error) {
	db, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	for _, stmt := range dialect.ConfigureDB() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("配置%s失败: %w", dialect.Name(), err)
		}
	}

	repo, err := NewTreeRepo(db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// GetDB 获取底层数据库连接（对外导出）
func (r *TreeRepo) GetDB() *sqlx.DB {
	return r.db
}

// Close 关闭数据库连接（对外导出）
func (r *TreeRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// initSchema 初始化数据库表结构
func (r *TreeRepo) initSchema() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id %s PRIMARY KEY,
		name %s NOT NULL,
		document %s NOT NULL,
		revision VARCHAR(64) NOT NULL,
		node_count INTEGER NOT NULL DEFAULT 0,
		create_time %s NOT NULL,
		update_time %s NOT NULL
	);
	`,
		tableName,
		r.dialect.KeyType(),
		r.dialect.DocumentType(),
		r.dialect.DocumentType(),
		r.dialect.TimestampType(),
		r.dialect.TimestampType(),
	)

	if _, err := r.db.Exec(r.dialect.CreateTableSQL(schema)); err != nil {
		return err
	}
	return nil
}

// SaveTree 新增或覆盖一棵树（事务）
func (r *TreeRepo) SaveTree(ctx context.Context, tree *types.Tree) (*storage.TreeRecord, error) {
	if tree == nil || tree.ID == "" {
		return nil, fmt.Errorf("%w: 树ID不能为空", storage.ErrInvalidID)
	}

	document, err := treefile.Marshal(tree)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	treeDAO := &dao.TreeDAO{
		ID:         tree.ID,
		Name:       tree.Name,
		Document:   string(document),
		Revision:   storage.RevisionOf(document),
		NodeCount:  len(tree.Nodes),
		CreateTime: now,
		UpdateTime: now,
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()

	query := r.dialect.UpsertSQL(tableName, treeColumns, "id", updateColumns)
	if _, err := tx.NamedExecContext(ctx, query, treeDAO); err != nil {
		return nil, fmt.Errorf("保存树失败: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	return &storage.TreeRecord{
		Tree:      tree.Clone(),
		Revision:  treeDAO.Revision,
		UpdatedAt: now,
	}, nil
}

// GetTree 根据ID获取树，不存在时返回 nil, nil
func (r *TreeRepo) GetTree(ctx context.Context, id string) (*storage.TreeRecord, error) {
	var treeDAO dao.TreeDAO
	query := r.db.Rebind(fmt.Sprintf(`SELECT id, name, document, revision, node_count, create_time, update_time
	          FROM %s WHERE id = ?`, tableName))
	if err := r.db.GetContext(ctx, &treeDAO, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询树失败: %w", err)
	}
	return r.daoToRecord(&treeDAO)
}

// DeleteTree 删除树，不存在时不报错
func (r *TreeRepo) DeleteTree(ctx context.Context, id string) error {
	query := r.db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, tableName))
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("删除树失败: %w", err)
	}
	return nil
}

// ListTrees 列出全部树的摘要
func (r *TreeRepo) ListTrees(ctx context.Context) ([]*storage.TreeSummary, error) {
	var rows []dao.TreeSummaryDAO
	query := fmt.Sprintf(`SELECT id, name, revision, node_count, update_time FROM %s ORDER BY id`, tableName)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("查询树列表失败: %w", err)
	}

	summaries := make([]*storage.TreeSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, &storage.TreeSummary{
			ID:        row.ID,
			Name:      row.Name,
			Revision:  row.Revision,
			NodeCount: row.NodeCount,
			UpdatedAt: row.UpdateTime,
		})
	}
	return summaries, nil
}

// daoToRecord 将DAO转换为记录，文档在读取时重新校验
func (r *TreeRepo) daoToRecord(treeDAO *dao.TreeDAO) (*storage.TreeRecord, error) {
	tree, err := treefile.Load([]byte(treeDAO.Document))
	if err != nil {
		return nil, fmt.Errorf("树 %s 的存储文档无效: %w", treeDAO.ID, err)
	}
	tree.ID = treeDAO.ID
	return &storage.TreeRecord{
		Tree:      tree,
		Revision:  treeDAO.Revision,
		UpdatedAt: treeDAO.UpdateTime,
	}, nil
}

// 确保实现接口
var _ storage.TreeRepository = (*TreeRepo)(nil)
