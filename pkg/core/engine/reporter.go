package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LENAX/capability-tree/pkg/core/graph"
)

// TreeReport 单棵树的进度快照
type TreeReport struct {
	TreeID     string         `json:"tree_id"`
	Name       string         `json:"name"`
	Progress   graph.Progress `json:"progress"`
	ReadyCount int            `json:"ready_count"`
	Warnings   []string       `json:"warnings,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// ProgressReporter 定时汇总所有树的进度并写日志（对外导出）
type ProgressReporter struct {
	cron     *cron.Cron
	engine   *Engine
	cronExpr string
	entryID  cron.EntryID
	last     []*TreeReport
	lastRun  time.Time
	mu       sync.RWMutex
}

// NewProgressReporter 创建进度报告器，cronExpr 为带秒的cron表达式
func NewProgressReporter(eng *Engine, cronExpr string) (*ProgressReporter, error) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cronExpr); err != nil {
		return nil, fmt.Errorf("进度报告的Cron表达式无效: %w", err)
	}

	r := &ProgressReporter{
		cron:     cron.New(cron.WithSeconds()), // 支持秒级精度
		engine:   eng,
		cronExpr: cronExpr,
	}
	entryID, err := r.cron.AddFunc(cronExpr, func() {
		if _, err := r.RunOnce(context.Background()); err != nil {
			log.Printf("❌ [进度报告] 执行失败: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("添加Cron任务失败: %w", err)
	}
	r.entryID = entryID
	return r, nil
}

// Start 启动定时报告（对外导出）
func (r *ProgressReporter) Start() {
	r.cron.Start()
	log.Printf("✅ [进度报告] 已启动, CronExpr=%s", r.cronExpr)
}

// Stop 停止定时报告，等待正在执行的报告结束（对外导出）
func (r *ProgressReporter) Stop() {
	<-r.cron.Stop().Done()
	log.Println("🛑 [进度报告] 已停止")
}

// NextRun 下一次执行时间
func (r *ProgressReporter) NextRun() time.Time {
	return r.cron.Entry(r.entryID).Next
}

// RunOnce 立即汇总一次并返回快照
// 单棵树出错时记录在快照中，不影响其他树
func (r *ProgressReporter) RunOnce(ctx context.Context) ([]*TreeReport, error) {
	summaries, err := r.engine.ListTrees(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*TreeReport, 0, len(summaries))
	for _, s := range summaries {
		report := &TreeReport{TreeID: s.ID, Name: s.Name}
		ct, err := r.engine.GetComputed(ctx, s.ID)
		if err != nil {
			report.Error = err.Error()
			log.Printf("⚠️ [进度报告] 树 %s 计算失败: %v", s.ID, err)
			reports = append(reports, report)
			continue
		}

		report.Progress = ct.Progress()
		report.ReadyCount = len(ct.ReadyNodes())
		report.Warnings = ct.Warnings
		reports = append(reports, report)

		log.Printf("📊 [进度报告] %s(%s): 完成 %d/%d 节点, 工作量 %d/%d (%.1f%%), 可开始 %d, 警告 %d",
			s.Name, s.ID,
			report.Progress.CompletedNodes, report.Progress.TotalNodes,
			report.Progress.CompletedEffort, report.Progress.TotalEffort, report.Progress.Percent,
			report.ReadyCount, len(report.Warnings))
	}

	r.mu.Lock()
	r.last = reports
	r.lastRun = time.Now()
	r.mu.Unlock()
	return reports, nil
}

// Last 返回最近一次快照及其时间
func (r *ProgressReporter) Last() ([]*TreeReport, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.lastRun
}
