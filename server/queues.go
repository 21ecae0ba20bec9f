package server

import (
	"xiaozhi-core/bridge"
	"xiaozhi-core/controller"
	"xiaozhi-core/websocket"
)

// Queues 是组件之间全部的有界队列，队列满时发送方阻塞
type Queues struct {
	NetEvents     chan websocket.Event
	NetCommands   chan websocket.Command
	AudioEvents   chan bridge.AudioEvent
	DisplayEvents chan bridge.MessageEvent
	IoTEvents     chan bridge.MessageEvent
}

// NewQueues 创建指定容量的队列
func NewQueues(capacity int) *Queues {
	if capacity < 1 {
		capacity = 1
	}
	return &Queues{
		NetEvents:     make(chan websocket.Event, capacity),
		NetCommands:   make(chan websocket.Command, capacity),
		AudioEvents:   make(chan bridge.AudioEvent, capacity),
		DisplayEvents: make(chan bridge.MessageEvent, capacity),
		IoTEvents:     make(chan bridge.MessageEvent, capacity),
	}
}

// Sources 返回控制器消费的事件队列
func (q *Queues) Sources() controller.Sources {
	return controller.Sources{
		Net:     q.NetEvents,
		Audio:   q.AudioEvents,
		Display: q.DisplayEvents,
		IoT:     q.IoTEvents,
	}
}
