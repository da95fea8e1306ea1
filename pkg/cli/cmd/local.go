package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LENAX/capability-tree/pkg/cli/output"
	"github.com/LENAX/capability-tree/pkg/core/graph"
	"github.com/LENAX/capability-tree/pkg/core/validator"
	"github.com/LENAX/capability-tree/pkg/treefile"
)

var validateStrict bool

// validateCmd 校验本地树文件
var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "校验树文件",
	Long: `校验树文件的结构、前置引用与ID唯一性。

默认情况下环只作为告警报告（相关节点层级强制为1）；
--strict 时任何环都视为错误。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := treefile.LoadFile(args[0])
		if err != nil {
			printLoadError(err)
			return err
		}

		result := map[string]any{"file": args[0], "valid": true, "nodes": len(tree.Nodes)}
		ct := graph.Compute(tree)
		if validateStrict {
			roots, err := graph.CheckAcyclic(tree)
			if err != nil {
				if outputJSON {
					result["valid"] = false
					result["error"] = err.Error()
					output.PrintJSON(result)
				} else {
					output.Error("存在环: %v", err)
				}
				return err
			}
			result["roots"] = roots
		}

		if outputJSON {
			result["warnings"] = ct.Warnings
			return output.PrintJSON(result)
		}
		for _, w := range ct.Warnings {
			output.Warning("%s", w)
		}
		output.Success("%s 校验通过: %d 个节点, 最大层级 %d", args[0], len(tree.Nodes), ct.MaxTier())
		return nil
	},
}

// computeCmd 计算层级与工作量
var computeCmd = &cobra.Command{
	Use:   "compute <file>",
	Short: "计算层级、依赖方与工作量汇总",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ct, err := loadComputed(args[0])
		if err != nil {
			return err
		}
		if outputJSON {
			return output.PrintJSON(ct)
		}

		table := output.NewTable([]string{"TIER", "ID", "NAME", "STATUS", "EFFORT", "PREREQUISITES"})
		for _, n := range ct.Nodes {
			effort := "-"
			if n.EffortPoints != nil {
				effort = strconv.Itoa(*n.EffortPoints)
			}
			table.AddRow([]string{
				strconv.Itoa(n.ComputedTier),
				n.ID,
				n.Name,
				output.FormatStatus(n.Status),
				effort,
				joinOrDash(n.Prerequisites),
			})
		}
		table.Render()

		output.Info("起点: %s  终点: %s", joinOrDash(ct.Roots()), joinOrDash(ct.Leaves()))
		p := ct.Progress()
		output.Info("进度: %d/%d 节点完成, 工作量 %d/%d (%.1f%%)",
			p.CompletedNodes, p.TotalNodes, ct.CompletedEffortPoints, ct.TotalEffortPoints, p.Percent)
		for _, w := range ct.Warnings {
			output.Warning("%s", w)
		}
		return nil
	},
}

// readyCmd 可开始的节点
var readyCmd = &cobra.Command{
	Use:   "ready <file>",
	Short: "列出前置全部完成、自身尚未开始的节点",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ct, err := loadComputed(args[0])
		if err != nil {
			return err
		}
		ready := ct.ReadyNodes()
		if outputJSON {
			return output.PrintJSON(ready)
		}
		if len(ready) == 0 {
			output.Info("没有可以开始的节点")
			return nil
		}

		table := output.NewTable([]string{"ID", "NAME", "TIER", "STATUS"})
		for _, n := range ready {
			table.AddRow([]string{n.ID, n.Name, strconv.Itoa(n.ComputedTier), output.FormatStatus(n.Status)})
		}
		table.Render()
		return nil
	},
}

// ancestorsCmd 传递前置
var ancestorsCmd = &cobra.Command{
	Use:   "ancestors <file> <node-id>",
	Short: "列出节点的全部传递前置",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNodeSet(args[0], args[1], (*graph.ComputedTree).Ancestors)
	},
}

// descendantsCmd 传递依赖方
var descendantsCmd = &cobra.Command{
	Use:   "descendants <file> <node-id>",
	Short: "列出依赖该节点的全部节点",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNodeSet(args[0], args[1], (*graph.ComputedTree).Descendants)
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "将环视为错误")
}

func loadComputed(path string) (*graph.ComputedTree, error) {
	tree, err := treefile.LoadFile(path)
	if err != nil {
		printLoadError(err)
		return nil, err
	}
	return graph.Compute(tree), nil
}

func runNodeSet(path, nodeID string, query func(*graph.ComputedTree, string) graph.IDSet) error {
	ct, err := loadComputed(path)
	if err != nil {
		return err
	}
	if _, ok := ct.Node(nodeID); !ok {
		err := fmt.Errorf("节点不存在: %s", nodeID)
		output.Error("%v", err)
		return err
	}

	ids := query(ct, nodeID).Sorted()
	if outputJSON {
		return output.PrintJSON(ids)
	}
	if len(ids) == 0 {
		output.Info("无")
		return nil
	}
	for _, id := range ids {
		n, _ := ct.Node(id)
		fmt.Fprintf(output.Writer, "%s\t%s\t%s\n", id, n.Name, output.FormatStatus(n.Status))
	}
	return nil
}

// printLoadError 校验错误逐条输出明细
func printLoadError(err error) {
	if ve, ok := validator.AsValidationError(err); ok {
		if outputJSON {
			output.PrintJSON(map[string]any{"valid": false, "summary": ve.Summary, "details": ve.Details})
			return
		}
		output.Error("%s", ve.Summary)
		for _, d := range ve.Details {
			fmt.Fprintf(output.Writer, "  - %s\n", d)
		}
		return
	}
	output.Error("%v", err)
}

func joinOrDash(list []string) string {
	if len(list) == 0 {
		return "-"
	}
	return strings.Join(list, ",")
}
