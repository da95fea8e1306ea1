package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局变量
	serverURL  string
	outputJSON bool
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "captree",
	Short: "Capability Tree CLI - 能力开发依赖图命令行工具",
	Long: `Capability Tree CLI 用于维护能力开发的依赖图（DAG）。

支持的功能：
  - 本地校验与计算树文件（validate、compute、ready、ancestors、descendants）
  - 管理服务端的树（上传、列出、查看、删除）
  - 修改节点状态与属性
  - 启动HTTP API服务

使用示例：
  # 校验本地树文件
  captree validate ./trees/platform.yaml --strict

  # 查看可以开始的节点
  captree ready ./trees/platform.yaml

  # 上传到服务端
  captree tree upload ./trees/platform.yaml

  # 标记节点完成
  captree node set-status platform auth completed

  # 启动HTTP服务
  captree server start --port 8080`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Capability Tree服务器地址")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")

	// 本地命令
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(readyCmd)
	rootCmd.AddCommand(ancestorsCmd)
	rootCmd.AddCommand(descendantsCmd)

	// 远程命令
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}
