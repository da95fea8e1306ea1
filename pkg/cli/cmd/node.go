package cmd

import (
	"github.com/spf13/cobra"

	"github.com/LENAX/capability-tree/pkg/cli/client"
	"github.com/LENAX/capability-tree/pkg/cli/output"
	"github.com/LENAX/capability-tree/pkg/core/graph"
	"github.com/LENAX/capability-tree/pkg/core/types"
)

var (
	nodeName          string
	nodeStatus        string
	nodeEffort        int
	nodeTier          int
	nodeClearTier     bool
	nodeDescription   string
	nodeBlockedReason string
	nodePrereqs       []string
	nodeTags          []string
)

// nodeCmd node子命令
var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "节点变更命令",
	Long:  `修改服务端树中的单个节点。每次变更都会整体重新校验，失败时树保持不变。`,
}

// nodeSetStatusCmd 修改节点状态
var nodeSetStatusCmd = &cobra.Command{
	Use:   "set-status <tree-id> <node-id> <status>",
	Short: "修改节点状态 (completed|in_progress|planned|blocked)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := types.ParseStatus(args[2])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		c := client.New(serverURL)
		ct, err := c.SetStatus(args[0], args[1], status)
		if err != nil {
			printAPIError("更新失败", err)
			return err
		}
		return printNodeResult(ct, args[1])
	},
}

// nodeUpdateCmd 部分更新节点
var nodeUpdateCmd = &cobra.Command{
	Use:   "update <tree-id> <node-id>",
	Short: "部分更新节点，只发送指定的字段",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := buildNodePatch(cmd)
		if len(patch) == 0 {
			output.Warning("未指定任何要更新的字段")
			return nil
		}

		c := client.New(serverURL)
		ct, err := c.UpdateNode(args[0], args[1], patch)
		if err != nil {
			printAPIError("更新失败", err)
			return err
		}
		return printNodeResult(ct, args[1])
	},
}

func init() {
	flags := nodeUpdateCmd.Flags()
	flags.StringVar(&nodeName, "name", "", "节点名称")
	flags.StringVar(&nodeStatus, "status", "", "节点状态")
	flags.IntVar(&nodeEffort, "effort", 0, "工作量点数")
	flags.IntVar(&nodeTier, "tier", 0, "显式层级")
	flags.BoolVar(&nodeClearTier, "clear-tier", false, "清除显式层级")
	flags.StringVar(&nodeDescription, "description", "", "描述")
	flags.StringVar(&nodeBlockedReason, "blocked-reason", "", "受阻原因")
	flags.StringSliceVar(&nodePrereqs, "prereq", nil, "前置节点ID，可重复或逗号分隔")
	flags.StringSliceVar(&nodeTags, "tag", nil, "标签，可重复或逗号分隔")

	nodeCmd.AddCommand(nodeSetStatusCmd)
	nodeCmd.AddCommand(nodeUpdateCmd)
}

// buildNodePatch 只包含显式设置过的flag
func buildNodePatch(cmd *cobra.Command) map[string]any {
	flags := cmd.Flags()
	patch := make(map[string]any)
	if flags.Changed("name") {
		patch["name"] = nodeName
	}
	if flags.Changed("status") {
		patch["status"] = nodeStatus
	}
	if flags.Changed("effort") {
		patch["effort_points"] = nodeEffort
	}
	if flags.Changed("tier") {
		patch["tier"] = nodeTier
	}
	if nodeClearTier {
		patch["tier"] = nil
	}
	if flags.Changed("description") {
		patch["description"] = nodeDescription
	}
	if flags.Changed("blocked-reason") {
		patch["blocked_reason"] = nodeBlockedReason
	}
	if flags.Changed("prereq") {
		patch["prerequisites"] = nodePrereqs
	}
	if flags.Changed("tag") {
		patch["tags"] = nodeTags
	}
	return patch
}

func printNodeResult(ct *graph.ComputedTree, nodeID string) error {
	n, ok := ct.Node(nodeID)
	if outputJSON {
		if ok {
			return output.PrintJSON(n)
		}
		return output.PrintJSON(ct)
	}
	if ok {
		output.Success("节点 %s 已更新: %s, 层级 %d", n.ID, output.FormatStatus(n.Status), n.ComputedTier)
	}
	if ready := ct.ReadyNodes(); len(ready) > 0 {
		ids := make([]string, len(ready))
		for i, r := range ready {
			ids[i] = r.ID
		}
		output.Info("可以开始: %s", joinOrDash(ids))
	}
	return nil
}
