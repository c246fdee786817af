package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version 构建版本，由构建参数注入
var Version = "dev"

var cfgPath string

// RootCmd 创建根命令
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pwctl",
		Short: "浏览器驱动协议客户端工具",
		Long:  "pwctl 连接浏览器自动化驱动进程，按模式拦截网络请求并记录流量。",
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "配置文件路径")
	cmd.AddCommand(RecordCmd())
	cmd.AddCommand(VersionCmd())
	return cmd
}

// VersionCmd 创建 version 命令
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("pwctl", Version)
		},
	}
}
