package model

// SessionState 表示设备当前所处的对话状态，任一时刻只有一个值
type SessionState int

const (
	StateIdle         SessionState = iota // 待机
	StateListening                        // 正在上传麦克风音频
	StateProcessing                       // 音频已发送，等待服务端回应
	StateSpeaking                         // 正在播放服务端语音
	StateNetworkError                     // 网络断开，正在重连
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateSpeaking:
		return "speaking"
	case StateNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}
