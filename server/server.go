package server

import (
	"context"
	"errors"
	"fmt"

	"xiaozhi-core/bridge"
	"xiaozhi-core/config"
	"xiaozhi-core/controller"
	"xiaozhi-core/log"
	"xiaozhi-core/model"
	"xiaozhi-core/utils"
	"xiaozhi-core/websocket"
)

// Run 按顺序启动各组件并运行控制器，ctx取消后返回
// 启动顺序: 显示桥、IoT桥、激活检查、连接客户端、音频桥、控制器
// 参数:
//   - ctx: 进程级上下文，收到中断信号时取消
//   - cfg: 设备配置
//   - presenter: 可选的本地展示层，为nil时不启用
//
// 返回:
//   - error: 组件启动失败时返回错误
func Run(ctx context.Context, cfg *config.Config, presenter controller.Presenter) error {
	log.Infof("设备 %s 启动中 (本机IP: %s)", cfg.Network.DeviceID, utils.GetLocalIP())

	q := NewQueues(cfg.Network.QueueCapacity)

	// 显示桥优先启动，用于展示激活码
	display, err := bridge.NewDisplay(cfg.GUI, q.DisplayEvents)
	if err != nil {
		return err
	}
	defer display.Close()
	go runBridge(ctx, "显示", display.Run)

	iot, err := bridge.NewIoT(cfg.IoT, q.IoTEvents)
	if err != nil {
		return err
	}
	defer iot.Close()
	go runBridge(ctx, "IoT", iot.Run)

	if err := WaitActivated(ctx, cfg, display, cfg.Network.ActivationPoll); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("等待激活失败: %w", err)
	}

	client := websocket.NewClient(websocket.Options{
		URL:      cfg.Network.WSURL,
		Token:    cfg.Network.WSToken,
		DeviceID: cfg.Network.DeviceID,
		ClientID: cfg.Network.ClientID,
		Hello: model.NewHelloMessage(model.AudioParams{
			Format:        cfg.Hello.Format,
			SampleRate:    cfg.Hello.SampleRate,
			Channels:      cfg.Hello.Channels,
			FrameDuration: cfg.Hello.FrameDuration,
		}),
		ReconnectDelay: cfg.Network.ReconnectDelay,
	}, q.NetEvents, q.NetCommands)
	go client.Run(ctx)

	audio, err := bridge.NewAudio(cfg.Audio, cfg.Hello, q.AudioEvents)
	if err != nil {
		return err
	}
	defer audio.Close()
	go runBridge(ctx, "音频", audio.Run)

	ctrl := controller.New(q.NetCommands, audio, display, iot, controller.Options{
		EnableTTSDisplay: cfg.Features.EnableTTSDisplay,
		Presenter:        presenter,
	})

	log.Infof("核心已启动，进入事件循环")
	err = ctrl.Run(ctx, q.Sources())

	// 退出时不等待其他协程，进程随后结束
	snap := ctrl.Snapshot()
	log.Infof("控制器退出: 状态=%s 丢弃消息=%d 丢弃麦克风帧=%d", snap.State, snap.Discarded, snap.Dropped)
	return err
}

func runBridge(ctx context.Context, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		log.Errorf("%s桥错误: %v", name, err)
	}
}
