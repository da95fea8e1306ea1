package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LENAX/capability-tree/pkg/cli/client"
	"github.com/LENAX/capability-tree/pkg/cli/output"
)

var (
	treeLimit    int
	treeUploadID string
	treeShowRaw  bool
)

// treeCmd tree子命令
var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "服务端树管理命令",
	Long:  `管理服务端保存的能力树，包括上传、列出、查看和删除。`,
}

// treeListCmd 列出树
var treeListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有树",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		result, err := c.ListTrees(treeLimit, 0)
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(result)
		}
		if len(result.Items) == 0 {
			output.Info("暂无能力树")
			return nil
		}

		table := output.NewTable([]string{"ID", "NAME", "NODES", "REVISION", "UPDATED"})
		for _, s := range result.Items {
			table.AddRow([]string{
				s.ID,
				s.Name,
				strconv.Itoa(s.NodeCount),
				shortRevision(s.Revision),
				s.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		if result.HasMore {
			output.Info("共 %d 棵树，仅显示前 %d 棵", result.Total, len(result.Items))
		}
		return nil
	},
}

// treeShowCmd 查看树
var treeShowCmd = &cobra.Command{
	Use:   "show <tree-id>",
	Short: "查看树的层级与进度",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		if treeShowRaw {
			data, err := c.GetRaw(args[0])
			if err != nil {
				output.Error("查询失败: %v", err)
				return err
			}
			_, err = output.Writer.Write(data)
			return err
		}

		ct, err := c.GetTree(args[0])
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}
		if outputJSON {
			return output.PrintJSON(ct)
		}

		fmt.Fprintf(output.Writer, "%s (%s)\n", ct.Name, ct.ID)
		for tier := 1; tier <= ct.MaxTier(); tier++ {
			nodes, ok := ct.Tiers[tier]
			if !ok {
				continue
			}
			fmt.Fprintf(output.Writer, "Tier %d\n", tier)
			for _, n := range nodes {
				fmt.Fprintf(output.Writer, "  %-20s %s\n", n.ID, output.FormatStatus(n.Status))
			}
		}

		p := ct.Progress()
		output.Info("进度: %d/%d 节点完成, 工作量 %d/%d (%.1f%%)",
			p.CompletedNodes, p.TotalNodes, ct.CompletedEffortPoints, ct.TotalEffortPoints, p.Percent)
		for _, w := range ct.Warnings {
			output.Warning("%s", w)
		}
		return nil
	},
}

// treeUploadCmd 上传树文件
var treeUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "上传树文件，已存在则替换",
	Long: `上传YAML树文件到服务端。

树ID优先取 --id，其次取文件内的 id 字段，都没有时由服务端生成。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			output.Error("读取文件失败: %v", err)
			return err
		}

		c := client.New(serverURL)
		ct, err := c.ImportTree(treeUploadID, string(content))
		if err != nil {
			printAPIError("上传失败", err)
			return err
		}

		if outputJSON {
			return output.PrintJSON(ct)
		}
		output.Success("已上传树 %s: %d 个节点, 最大层级 %d", ct.ID, len(ct.Nodes), ct.MaxTier())
		for _, w := range ct.Warnings {
			output.Warning("%s", w)
		}
		return nil
	},
}

// treeDeleteCmd 删除树
var treeDeleteCmd = &cobra.Command{
	Use:   "delete <tree-id>",
	Short: "删除树",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		if err := c.DeleteTree(args[0]); err != nil {
			output.Error("删除失败: %v", err)
			return err
		}
		output.Success("已删除树 %s", args[0])
		return nil
	},
}

func init() {
	treeListCmd.Flags().IntVarP(&treeLimit, "limit", "l", 20, "返回数量限制")
	treeUploadCmd.Flags().StringVar(&treeUploadID, "id", "", "树ID，覆盖文件内的id")
	treeShowCmd.Flags().BoolVar(&treeShowRaw, "raw", false, "输出持久化形态的YAML")

	treeCmd.AddCommand(treeListCmd)
	treeCmd.AddCommand(treeShowCmd)
	treeCmd.AddCommand(treeUploadCmd)
	treeCmd.AddCommand(treeDeleteCmd)
}

func shortRevision(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

// printAPIError 校验失败时逐条输出明细
func printAPIError(prefix string, err error) {
	if apiErr, ok := err.(*client.APIError); ok && len(apiErr.Details) > 0 {
		output.Error("%s: %s", prefix, apiErr.Message)
		for _, d := range apiErr.Details {
			fmt.Fprintf(output.Writer, "  - %s\n", d)
		}
		return
	}
	output.Error("%s: %v", prefix, err)
}
