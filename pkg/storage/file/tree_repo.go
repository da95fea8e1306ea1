// Package file 每棵树一个YAML文件的存储实现
//
// 文件名即树ID，适合单进程写入、文件纳入版本控制的场景。
// 写入先落临时文件再rename，读者不会看到半截文档。
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/LENAX/capability-tree/pkg/core/types"
	"github.com/LENAX/capability-tree/pkg/storage"
	"github.com/LENAX/capability-tree/pkg/treefile"
)

const fileExt = ".yaml"

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// TreeRepo TreeRepository的文件实现（对外导出）
type TreeRepo struct {
	dir string
	mu  sync.RWMutex
}

// NewTreeRepo 创建文件存储，目录不存在时自动创建
func NewTreeRepo(dir string) (*TreeRepo, error) {
	if dir == "" {
		return nil, fmt.Errorf("存储目录不能为空")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &TreeRepo{dir: dir}, nil
}

// Dir 存储目录
func (r *TreeRepo) Dir() string {
	return r.dir
}

// ValidateID 检查树ID能否作为文件名使用
func ValidateID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%w: 树ID %q 只能包含字母、数字、点、下划线和连字符，且不能以符号开头", storage.ErrInvalidID, id)
	}
	return nil
}

func (r *TreeRepo) path(id string) string {
	return filepath.Join(r.dir, id+fileExt)
}

// SaveTree 写入一棵树
func (r *TreeRepo) SaveTree(ctx context.Context, tree *types.Tree) (*storage.TreeRecord, error) {
	if tree == nil || tree.ID == "" {
		return nil, fmt.Errorf("%w: 树ID不能为空", storage.ErrInvalidID)
	}
	if err := ValidateID(tree.ID); err != nil {
		return nil, err
	}

	document, err := treefile.Marshal(tree)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp, err := os.CreateTemp(r.dir, "."+tree.ID+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(document); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := os.Rename(tmpName, r.path(tree.ID)); err != nil {
		return nil, fmt.Errorf("保存树文件失败: %w", err)
	}

	info, err := os.Stat(r.path(tree.ID))
	if err != nil {
		return nil, fmt.Errorf("读取树文件信息失败: %w", err)
	}
	return &storage.TreeRecord{
		Tree:      tree.Clone(),
		Revision:  storage.RevisionOf(document),
		UpdatedAt: info.ModTime(),
	}, nil
}

// GetTree 读取一棵树，文件不存在时返回 nil, nil
func (r *TreeRepo) GetTree(ctx context.Context, id string) (*storage.TreeRecord, error) {
	if ValidateID(id) != nil {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.load(id)
}

func (r *TreeRepo) load(id string) (*storage.TreeRecord, error) {
	path := r.path(id)
	document, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取树文件失败: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("读取树文件信息失败: %w", err)
	}

	tree, err := treefile.Load(document)
	if err != nil {
		return nil, fmt.Errorf("树文件 %s 无效: %w", path, err)
	}
	// 文件名是存储键，文档内的id仅作提示
	tree.ID = id

	return &storage.TreeRecord{
		Tree:      tree,
		Revision:  storage.RevisionOf(document),
		UpdatedAt: info.ModTime(),
	}, nil
}

// DeleteTree 删除树文件，不存在时不报错
func (r *TreeRepo) DeleteTree(ctx context.Context, id string) error {
	if ValidateID(id) != nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("删除树文件失败: %w", err)
	}
	return nil
}

// ListTrees 列出目录下全部树，无法解析的文件记录日志后跳过
func (r *TreeRepo) ListTrees(ctx context.Context) ([]*storage.TreeSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("读取存储目录失败: %w", err)
	}

	summaries := make([]*storage.TreeSummary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id := strings.TrimSuffix(name, fileExt)
		if ValidateID(id) != nil {
			continue
		}
		rec, err := r.load(id)
		if err != nil {
			log.Printf("⚠️ [FileStore] 跳过无效树文件 %s: %v", name, err)
			continue
		}
		if rec == nil {
			continue
		}
		summaries = append(summaries, storage.Summarize(rec))
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

// Close 文件存储无需释放资源
func (r *TreeRepo) Close() error {
	return nil
}

// 确保实现接口
var _ storage.TreeRepository = (*TreeRepo)(nil)
