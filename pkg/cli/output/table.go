package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/LENAX/capability-tree/pkg/core/types"
)

// Table 简单表格输出
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable 创建表格
func NewTable(headers []string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = displayWidth(h)
	}
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		widths:  widths,
	}
}

// AddRow 添加行
func (t *Table) AddRow(row []string) {
	for i, cell := range row {
		if i < len(t.widths) && displayWidth(cell) > t.widths[i] {
			t.widths[i] = displayWidth(cell)
		}
	}
	t.rows = append(t.rows, row)
}

// Render 渲染表格
func (t *Table) Render() {
	headerColor := color.New(color.FgCyan, color.Bold)
	for i, h := range t.headers {
		headerColor.Fprint(Writer, pad(h, t.widths[i])+"  ")
	}
	fmt.Fprintln(Writer)

	for i := range t.headers {
		fmt.Fprint(Writer, strings.Repeat("-", t.widths[i])+"  ")
	}
	fmt.Fprintln(Writer)

	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(t.widths) {
				fmt.Fprint(Writer, pad(cell, t.widths[i])+"  ")
			}
		}
		fmt.Fprintln(Writer)
	}
}

// FormatStatus 带图标的状态
func FormatStatus(status types.Status) string {
	switch status {
	case types.StatusCompleted:
		return "✅ completed"
	case types.StatusInProgress:
		return "🔄 in_progress"
	case types.StatusPlanned:
		return "⏳ planned"
	case types.StatusBlocked:
		return "🛑 blocked"
	default:
		return string(status)
	}
}

// displayWidth 按rune计宽，图标与中文按一个字符处理
func displayWidth(s string) int {
	return len([]rune(s))
}

func pad(s string, width int) string {
	if n := displayWidth(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
