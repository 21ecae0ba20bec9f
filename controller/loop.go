package controller

import (
	"context"

	"xiaozhi-core/bridge"
	"xiaozhi-core/log"
	"xiaozhi-core/websocket"
)

// Sources 是控制器汇聚的四个事件队列
type Sources struct {
	Net     <-chan websocket.Event
	Audio   <-chan bridge.AudioEvent
	Display <-chan bridge.MessageEvent
	IoT     <-chan bridge.MessageEvent
}

// Run 事件分发主循环
// 多个队列同时就绪时由select随机选择，只保证单个队列内的顺序
// ctx取消或全部队列关闭后返回
func (c *Controller) Run(ctx context.Context, src Sources) error {
	netCh, audioCh, displayCh, iotCh := src.Net, src.Audio, src.Display, src.IoT

	for netCh != nil || audioCh != nil || displayCh != nil || iotCh != nil {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-netCh:
			if !ok {
				log.Warnf("连接事件队列已关闭")
				netCh = nil
				continue
			}
			c.HandleNetEvent(ctx, ev)

		case ev, ok := <-audioCh:
			if !ok {
				log.Warnf("音频事件队列已关闭")
				audioCh = nil
				continue
			}
			c.HandleAudioEvent(ctx, ev)

		case ev, ok := <-displayCh:
			if !ok {
				log.Warnf("显示事件队列已关闭")
				displayCh = nil
				continue
			}
			c.HandleDisplayEvent(ctx, ev)

		case ev, ok := <-iotCh:
			if !ok {
				log.Warnf("IoT事件队列已关闭")
				iotCh = nil
				continue
			}
			c.HandleIoTEvent(ctx, ev)
		}
	}

	log.Infof("所有事件队列已关闭，控制器退出")
	return nil
}
