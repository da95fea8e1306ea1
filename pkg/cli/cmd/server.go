package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LENAX/capability-tree/pkg/api"
	"github.com/LENAX/capability-tree/pkg/cli/output"
	"github.com/LENAX/capability-tree/pkg/core/engine"
)

var (
	serverPort int
	configPath string
	serverHost string
)

// serverCmd server子命令
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "服务管理命令",
	Long:  `管理Capability Tree HTTP API服务。`,
}

// serverStartCmd 启动服务
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "启动HTTP API服务",
	Long: `启动Capability Tree HTTP API服务。

示例：
  # 使用默认配置启动（文件存储 ./data/trees）
  captree server start

  # 指定端口启动
  captree server start --port 8080

  # 指定配置文件启动
  captree server start --config ./configs/captree.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			for _, p := range []string{"./configs/captree.yaml", "./config/captree.yaml", "./captree.yaml"} {
				if _, err := os.Stat(p); err == nil {
					configPath = p
					break
				}
			}
		}
		if configPath != "" {
			output.Info("使用配置文件: %s", configPath)
		} else {
			output.Info("未找到配置文件，使用默认配置")
		}

		eng, err := engine.NewEngineBuilder(configPath).Build()
		if err != nil {
			output.Error("创建Engine失败: %v", err)
			return err
		}

		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			output.Error("启动Engine失败: %v", err)
			return err
		}

		cfg := eng.Config()
		serverConfig := api.ServerConfigFrom(cfg)
		if cmd.Flags().Changed("host") {
			serverConfig.Host = serverHost
		}
		if cmd.Flags().Changed("port") {
			serverConfig.Port = serverPort
		}

		apiServer := api.NewAPIServer(eng, serverConfig, Version)

		go func() {
			if err := apiServer.Start(); err != nil {
				log.Printf("API服务器错误: %v", err)
			}
		}()

		output.Success("Capability Tree Server started on %s", apiServer.Addr())

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		output.Info("正在关闭服务...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Captree.Server.ShutdownTimeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			output.Error("关闭API服务器失败: %v", err)
		}

		if err := eng.Stop(); err != nil {
			output.Error("关闭Engine失败: %v", err)
		}
		output.Success("服务已停止")
		return nil
	},
}

func init() {
	serverStartCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "监听端口")
	serverStartCmd.Flags().StringVarP(&serverHost, "host", "H", "0.0.0.0", "监听地址")
	serverStartCmd.Flags().StringVarP(&configPath, "config", "c", "", "配置文件路径")

	serverCmd.AddCommand(serverStartCmd)
}
