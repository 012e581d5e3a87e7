// standpoint-node 启动网络宿主：TCP/UDP 消息服务与可选的 HTTP 状态服务
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weisyn/standpoint/internal/app"
	"github.com/weisyn/standpoint/internal/app/version"
	"github.com/weisyn/standpoint/internal/config"
	logconfig "github.com/weisyn/standpoint/internal/config/log"
	netconfig "github.com/weisyn/standpoint/internal/config/network"
	statusconfig "github.com/weisyn/standpoint/internal/config/status"
)

// nodeFlags 命令行标志
type nodeFlags struct {
	configPath string
	envPrefix  string
	port       int
	udpPort    int
	logLevel   string
	status     string
	settings   []string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags nodeFlags

	root := &cobra.Command{
		Use:           "standpoint-node",
		Short:         "StandPoint 网络宿主",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := flags.toOptions(cmd)
			if err != nil {
				return err
			}
			a, err := app.Start(opts...)
			if err != nil {
				return err
			}
			return a.Run(context.Background())
		},
	}

	f := root.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "配置文件路径，格式由扩展名决定（.json/.yaml/.toml）")
	f.StringVar(&flags.envPrefix, "env-prefix", config.DefaultEnvPrefix, "环境变量前缀，空字符串表示不读取环境变量")
	f.IntVarP(&flags.port, "port", "p", 0, "TCP 监听端口（覆盖 "+netconfig.KeyListeningPort+"）")
	f.IntVar(&flags.udpPort, "udp-port", 0, "UDP 监听端口，0 表示不启用")
	f.StringVar(&flags.logLevel, "log-level", "", "日志级别: debug|info|warn|error")
	f.StringVar(&flags.status, "status", "", "启用 HTTP 状态服务并监听该地址，如 127.0.0.1:9998")
	f.StringArrayVar(&flags.settings, "set", nil, "覆盖任意设置，格式 key=value，可重复")

	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
		},
	}
}

// toOptions 仅把显式给出的标志转换为覆盖项
func (f *nodeFlags) toOptions(cmd *cobra.Command) ([]app.Option, error) {
	opts := []app.Option{app.WithEnvPrefix(f.envPrefix)}
	if f.configPath != "" {
		opts = append(opts, app.WithConfigFile(f.configPath))
	}

	changed := cmd.Flags().Changed
	if changed("port") {
		opts = append(opts, app.WithSetting(netconfig.KeyListeningPort, strconv.Itoa(f.port)))
	}
	if changed("udp-port") {
		opts = append(opts, app.WithSetting(netconfig.KeyUDPPort, strconv.Itoa(f.udpPort)))
	}
	if f.logLevel != "" {
		opts = append(opts, app.WithSetting(logconfig.KeyLevel, f.logLevel))
	}
	if f.status != "" {
		opts = append(opts,
			app.WithSetting(statusconfig.KeyEnabled, "true"),
			app.WithSetting(statusconfig.KeyListenAddress, f.status))
	}

	for _, kv := range f.settings {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("无效的 --set 参数 %q，应为 key=value", kv)
		}
		opts = append(opts, app.WithSetting(strings.TrimSpace(k), strings.TrimSpace(v)))
	}
	return opts, nil
}
