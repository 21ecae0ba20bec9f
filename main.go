package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"xiaozhi-core/config"
	"xiaozhi-core/controller"
	"xiaozhi-core/log"
	"xiaozhi-core/model"
	"xiaozhi-core/server"
	"xiaozhi-core/tui"
	"xiaozhi-core/utils"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string
	enableTUI  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "xiaozhi",
		Short:        "小智语音助手设备核心进程",
		SilenceUsage: true,
		RunE:         run,
	}

	// 默认配置文件为当前目录下的config.yaml
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "配置文件路径")
	rootCmd.Flags().BoolVar(&enableTUI, "tui", false, "启用终端界面")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "打印版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("xiaozhi-core v%s\n", version)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "hello",
		Short: "打印连接建立后发送的hello消息",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(model.NewHelloMessage(model.AudioParams{
				Format:        cfg.Hello.Format,
				SampleRate:    cfg.Hello.SampleRate,
				Channels:      cfg.Hello.Channels,
				FrameDuration: cfg.Hello.FrameDuration,
			}), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// 加载配置文件，配置错误直接退出
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("加载配置文件失败: %w", err)
	}
	if cmd.Flags().Changed("tui") {
		cfg.Features.EnableTUI = enableTUI
	}

	// 首次启动生成设备标识并写回配置文件
	identityChanged := cfg.EnsureIdentity()

	// 终端界面接管终端，日志只写文件
	if cfg.Features.EnableTUI {
		cfg.Log.EnableConsole = false
		if cfg.Log.LogFile == "" {
			cfg.Log.LogFile = "xiaozhi.log"
		}
	} else if cfg.Log.LogFile == "" {
		cfg.Log.EnableConsole = true
	}
	if err := log.Init(&cfg.Log); err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}
	defer log.Sync()

	log.Infof("正在启动xiaozhi-core v%s...", version)
	log.Infof("已加载配置文件: %s", configPath)

	if identityChanged {
		if err := cfg.Save(); err != nil {
			log.Warnf("保存设备标识失败: %v", err)
		}
	}

	// 初始化util库
	if err := utils.Init(); err != nil {
		return fmt.Errorf("初始化util库失败: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var presenter controller.Presenter
	if cfg.Features.EnableTUI {
		p := tui.NewPresenter()
		presenter = p
		go func() {
			if err := p.Run(ctx); err != nil {
				log.Errorf("终端界面错误: %v", err)
			}
			// 用户退出界面时结束整个进程
			stop()
		}()
	}

	// 阻塞直到收到中断信号
	if err := server.Run(ctx, cfg, presenter); err != nil {
		return err
	}
	log.Infof("收到退出信号，正在关闭...")
	return nil
}
