package bridge

import (
	"context"
	"errors"
)

// ErrUnsupported 表示该桥不支持此类发送
var ErrUnsupported = errors.New("operation not supported by bridge")

// AudioEvent 是音频进程上送的一帧麦克风数据
type AudioEvent struct {
	Data []byte
}

// MessageEvent 是显示进程或IoT进程上送的一条文本消息
type MessageEvent struct {
	Text string
}

// transport 是桥与外部进程之间的数据通道
type transport interface {
	// recvLoop 循环接收数据，handle返回false时停止
	recvLoop(ctx context.Context, handle func(data []byte) bool) error
	send(data []byte) error
	Close() error
}

// deliver 向控制器投递事件，队列满时阻塞
func deliver[T any](ctx context.Context, ch chan<- T, ev T) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
