package websocket

// EventType 表示连接向控制器上报的事件类型
type EventType int

const (
	EventText         EventType = iota // 服务端文本帧
	EventBinary                        // 服务端二进制音频帧
	EventConnected                     // 连接建立
	EventDisconnected                  // 连接断开，即将重连
)

func (t EventType) String() string {
	switch t {
	case EventText:
		return "text"
	case EventBinary:
		return "binary"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event 是连接发往控制器的事件，按值传递
type Event struct {
	Type EventType
	Text string
	Data []byte
}

// CommandType 表示控制器要求连接发送的帧类型
type CommandType int

const (
	CommandText   CommandType = iota // 文本帧
	CommandBinary                    // 二进制帧
)

// Command 是控制器发往连接的命令
type Command struct {
	Type CommandType
	Text string
	Data []byte
}

// SendText 创建一条发送文本帧的命令
func SendText(text string) Command {
	return Command{Type: CommandText, Text: text}
}

// SendBinary 创建一条发送二进制帧的命令
func SendBinary(data []byte) Command {
	return Command{Type: CommandBinary, Data: data}
}
