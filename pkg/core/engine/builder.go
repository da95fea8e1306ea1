package engine

import (
	"errors"
	"fmt"

	internalstorage "github.com/LENAX/capability-tree/internal/storage"
	"github.com/LENAX/capability-tree/pkg/config"
	"github.com/LENAX/capability-tree/pkg/core/cache"
	"github.com/LENAX/capability-tree/pkg/core/events"
	"github.com/LENAX/capability-tree/pkg/storage"
)

// EngineBuilder 引擎构建器（链式调用）
type EngineBuilder struct {
	engineConfigPath string
	cfg              *config.FrameworkConfig
	repo             storage.TreeRepository
	err              error
}

// NewEngineBuilder 创建引擎构建器（入口）
// engineConfigPath 为空或文件不存在时使用默认配置
func NewEngineBuilder(engineConfigPath string) *EngineBuilder {
	return &EngineBuilder{engineConfigPath: engineConfigPath}
}

// WithConfig 直接指定配置，跳过配置文件（链式）
func (b *EngineBuilder) WithConfig(cfg *config.FrameworkConfig) *EngineBuilder {
	if b.err != nil {
		return b
	}
	if cfg == nil {
		b.err = errors.New("config cannot be nil")
		return b
	}
	b.cfg = cfg
	return b
}

// WithRepository 指定存储实现，跳过按配置创建（链式）
func (b *EngineBuilder) WithRepository(repo storage.TreeRepository) *EngineBuilder {
	if b.err != nil {
		return b
	}
	if repo == nil {
		b.err = errors.New("repository cannot be nil")
		return b
	}
	b.repo = repo
	return b
}

// Build 构建引擎实例（最终步骤）
func (b *EngineBuilder) Build() (*Engine, error) {
	if b.err != nil {
		return nil, b.err
	}

	// 1. 加载并校验配置
	cfg := b.cfg
	if cfg == nil {
		loaded, err := config.LoadFrameworkConfig(b.engineConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load engine config failed: %w", err)
		}
		cfg = loaded
	}
	if err := config.ValidateFrameworkConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate engine config failed: %w", err)
	}

	// 2. 初始化存储层
	repo := b.repo
	if repo == nil {
		created, err := internalstorage.NewTreeRepository(cfg)
		if err != nil {
			return nil, fmt.Errorf("init storage failed: %w", err)
		}
		repo = created
	}

	// 3. 计算结果缓存
	var computedCache cache.ComputedCache = cache.NoopCache{}
	if cfg.Captree.Storage.Cache.Enabled {
		computedCache = cache.NewMemoryComputedCache(
			cfg.Captree.Storage.Cache.DefaultTTL,
			cfg.Captree.Storage.Cache.CleanInterval,
		)
	}

	// 4. 事件总线
	bus := events.NewBus(cfg.IsDebug())

	return NewEngine(cfg, repo, computedCache, bus), nil
}
