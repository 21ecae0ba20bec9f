package bridge

import (
	"context"
	"fmt"

	"xiaozhi-core/config"
	"xiaozhi-core/log"
)

// Messenger 是以文本消息通信的外部进程桥，显示进程与IoT进程都使用它
type Messenger struct {
	name      string
	transport transport
	events    chan<- MessageEvent
}

// NewDisplay 创建显示进程桥
func NewDisplay(cfg config.GUIConfig, events chan<- MessageEvent) (*Messenger, error) {
	ep, err := listenUDP(cfg.LocalIP, cfg.LocalPort, cfg.RemoteIP, cfg.RemotePort, cfg.BufferSize)
	if err != nil {
		return nil, fmt.Errorf("显示桥: %w", err)
	}
	log.Infof("显示桥已启动: 本地端口 %d -> %s", ep.localAddr().Port, ep.remote)
	return &Messenger{name: "display", transport: ep, events: events}, nil
}

// NewIoT 创建IoT外设桥
// 配置了外设命令时启动子进程并通过管道通信，否则使用UDP
func NewIoT(cfg config.IoTConfig, events chan<- MessageEvent) (*Messenger, error) {
	if len(cfg.Command) > 0 {
		pipe, err := startProcess(cfg.Command)
		if err != nil {
			return nil, fmt.Errorf("IoT桥: %w", err)
		}
		log.Infof("IoT桥已启动: 子进程 %v", cfg.Command)
		return &Messenger{name: "iot", transport: pipe, events: events}, nil
	}

	ep, err := listenUDP(cfg.LocalIP, cfg.LocalPort, cfg.RemoteIP, cfg.RemotePort, cfg.BufferSize)
	if err != nil {
		return nil, fmt.Errorf("IoT桥: %w", err)
	}
	log.Infof("IoT桥已启动: 本地端口 %d -> %s", ep.localAddr().Port, ep.remote)
	return &Messenger{name: "iot", transport: ep, events: events}, nil
}

// Name 返回桥的名称，用于日志
func (m *Messenger) Name() string {
	return m.name
}

// Run 接收外部进程的消息并投递给控制器，ctx取消后返回
func (m *Messenger) Run(ctx context.Context) error {
	err := m.transport.recvLoop(ctx, func(data []byte) bool {
		return deliver(ctx, m.events, MessageEvent{Text: string(data)})
	})
	if err != nil {
		return fmt.Errorf("%s桥接收失败: %w", m.name, err)
	}
	return nil
}

// SendMessage 发送一条文本消息给外部进程
func (m *Messenger) SendMessage(text string) error {
	return m.transport.send([]byte(text))
}

// SendAudio 文本桥不传输音频
func (m *Messenger) SendAudio([]byte) error {
	return ErrUnsupported
}

// Close 关闭通道，子进程会被结束
func (m *Messenger) Close() error {
	return m.transport.Close()
}
