// Package engine 能力树服务核心
//
// Engine 串起 存储 -> 校验 -> 计算 的流程：读操作按修订号缓存计算结果，
// 写操作在树级互斥锁内完成 读取、合并、校验、保存、发布事件。
// 校验失败时存储内容保持不变。
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/LENAX/capability-tree/pkg/config"
	"github.com/LENAX/capability-tree/pkg/core/cache"
	"github.com/LENAX/capability-tree/pkg/core/events"
	"github.com/LENAX/capability-tree/pkg/core/graph"
	"github.com/LENAX/capability-tree/pkg/core/types"
	"github.com/LENAX/capability-tree/pkg/storage"
)

// Engine 能力树服务（对外导出）
type Engine struct {
	cfg      *config.FrameworkConfig
	repo     storage.TreeRepository
	cache    cache.ComputedCache
	bus      *events.Bus
	reporter *ProgressReporter

	locks   map[string]*treeLock // treeID -> 写锁，无人持有或等待时移除
	locksMu sync.Mutex

	running bool
	cancel  context.CancelFunc
	mu      sync.RWMutex
}

// NewEngine 创建Engine实例（对外导出）
// computedCache 为nil时不缓存；bus 为nil时不发布事件
func NewEngine(cfg *config.FrameworkConfig, repo storage.TreeRepository, computedCache cache.ComputedCache, bus *events.Bus) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if computedCache == nil {
		computedCache = cache.NoopCache{}
	}
	return &Engine{
		cfg:   cfg,
		repo:  repo,
		cache: computedCache,
		bus:   bus,
		locks: make(map[string]*treeLock),
	}
}

// Config 返回引擎配置
func (e *Engine) Config() *config.FrameworkConfig {
	return e.cfg
}

// Events 返回事件总线，可能为nil
func (e *Engine) Events() *events.Bus {
	return e.bus
}

// Reporter 返回进度报告器，未启用时为nil
func (e *Engine) Reporter() *ProgressReporter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reporter
}

// Start 启动引擎（对外导出）
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	if e.bus != nil && e.cfg.IsDebug() {
		ch, err := e.bus.Subscribe(runCtx, "")
		if err != nil {
			cancel()
			return fmt.Errorf("订阅变更事件失败: %w", err)
		}
		go func() {
			for ev := range ch {
				log.Printf("🔔 [Engine] 事件 %s: tree=%s node=%s revision=%s", ev.Type, ev.TreeID, ev.NodeID, ev.Revision)
			}
		}()
	}

	if e.cfg.Captree.Report.Enabled {
		reporter, err := NewProgressReporter(e, e.cfg.Captree.Report.CronExpr)
		if err != nil {
			cancel()
			return err
		}
		e.reporter = reporter
		e.reporter.Start()
	}

	e.running = true
	log.Printf("✅ [Engine] 能力树引擎已启动: instance=%s, storage=%s", e.cfg.Captree.General.InstanceName, e.cfg.GetDatabaseType())
	return nil
}

// Stop 停止引擎并释放资源（对外导出）
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.reporter != nil {
		e.reporter.Stop()
		e.reporter = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.bus != nil {
		if err := e.bus.Close(); err != nil {
			log.Printf("⚠️ [Engine] 关闭事件总线失败: %v", err)
		}
	}
	if err := e.cache.Close(); err != nil {
		log.Printf("⚠️ [Engine] 关闭缓存失败: %v", err)
	}
	e.running = false

	if err := e.repo.Close(); err != nil {
		return fmt.Errorf("关闭存储失败: %w", err)
	}
	log.Println("🛑 [Engine] 能力树引擎已停止")
	return nil
}

// treeLock 带引用计数的树级写锁
type treeLock struct {
	mu   sync.Mutex
	refs int
}

// lockTree 获取树级写锁，返回解锁函数
func (e *Engine) lockTree(id string) func() {
	e.locksMu.Lock()
	l, ok := e.locks[id]
	if !ok {
		l = &treeLock{}
		e.locks[id] = l
	}
	l.refs++
	e.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		e.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, id)
		}
		e.locksMu.Unlock()
	}
}

// compute 计算并缓存，有环时记录警告日志
func (e *Engine) compute(rec *storage.TreeRecord) *graph.ComputedTree {
	if ct, ok := e.cache.Get(rec.Tree.ID, rec.Revision); ok {
		return ct
	}
	ct := graph.Compute(rec.Tree)
	for _, w := range ct.Warnings {
		log.Printf("⚠️ [Engine] 树 %s: %s", rec.Tree.ID, w)
	}
	if err := e.cache.Set(rec.Tree.ID, rec.Revision, ct); err != nil {
		log.Printf("⚠️ [Engine] 写入缓存失败: %v", err)
	}
	return ct
}

// publish 发布变更事件，失败只记录日志
func (e *Engine) publish(ctx context.Context, ev *events.TreeEvent) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ctx, ev); err != nil {
		log.Printf("⚠️ [Engine] 发布事件失败: %v", err)
	}
}

// save 保存并刷新计算结果
func (e *Engine) save(ctx context.Context, tree *types.Tree, ev *events.TreeEvent) (*graph.ComputedTree, error) {
	rec, err := e.repo.SaveTree(ctx, tree)
	if err != nil {
		return nil, fmt.Errorf("保存树失败: %w", err)
	}
	if err := e.cache.Invalidate(tree.ID); err != nil {
		log.Printf("⚠️ [Engine] 清理缓存失败: %v", err)
	}
	ct := e.compute(rec)

	ev.Revision = rec.Revision
	e.publish(ctx, ev)
	return ct, nil
}
