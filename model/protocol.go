package model

import (
	"encoding/json"
	"fmt"
)

// 服务端消息类型
const (
	TypeHello  = "hello"
	TypeListen = "listen"
	TypeTTS    = "tts"
	TypeSTT    = "stt"
	TypeIoT    = "iot"
	TypeLLM    = "llm"
)

// tts 消息的子状态
const (
	TTSStateStart         = "start"
	TTSStateStop          = "stop"
	TTSStateSentenceStart = "sentence_start"
)

// 协议版本，同时写入握手请求头和hello消息
const ProtocolVersion = 1

// AudioParams 表示hello消息中声明的音频参数
type AudioParams struct {
	Format        string `json:"format"`
	SampleRate    int    `json:"sample_rate"`
	Channels      int    `json:"channels"`
	FrameDuration int    `json:"frame_duration"`
}

// HelloMessage 是每条连接建立后发送的第一条消息
type HelloMessage struct {
	Type        string      `json:"type"`
	Version     int         `json:"version"`
	Transport   string      `json:"transport"`
	AudioParams AudioParams `json:"audio_params"`
}

// NewHelloMessage 创建一条websocket传输的hello消息
func NewHelloMessage(params AudioParams) HelloMessage {
	return HelloMessage{
		Type:        TypeHello,
		Version:     ProtocolVersion,
		Transport:   "websocket",
		AudioParams: params,
	}
}

// ServerMessage 表示服务端下发的文本消息
// 除Type外的字段都是可选的，未知字段被忽略
type ServerMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	State     string          `json:"state,omitempty"`
	Text      string          `json:"text,omitempty"`
	Command   json.RawMessage `json:"command,omitempty"`
	Emotion   string          `json:"emotion,omitempty"`
}

// HasText 判断消息是否携带了文本
func (m *ServerMessage) HasText() bool {
	return m.Text != ""
}

// DecodeServerMessage 解析并校验服务端文本消息
// 非JSON或者不符合消息结构的内容返回 ErrMalformedMessage
func DecodeServerMessage(data []byte) (*ServerMessage, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := serverMessageSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return &msg, nil
}

// ListenCommand 是设备发给服务端的监听控制消息
// 字段顺序与服务端期望的一致
type ListenCommand struct {
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	State     string `json:"state"`
	Mode      string `json:"mode"`
}

// AutoListenStart 生成自动模式的开始监听消息
func AutoListenStart(sessionID string) string {
	data, _ := json.Marshal(ListenCommand{
		SessionID: sessionID,
		Type:      TypeListen,
		State:     "start",
		Mode:      "auto",
	})
	return string(data)
}

// 显示进程使用的状态码
const (
	DisplayConnected    = 3
	DisplayNetworkError = 4
	DisplayListening    = 5
	DisplaySpeaking     = 6
)

// DisplayState 生成显示进程的状态消息，如 {"state":3}
func DisplayState(code int) string {
	data, _ := json.Marshal(struct {
		State int `json:"state"`
	}{State: code})
	return string(data)
}

// DisplayToast 生成显示进程的提示消息
func DisplayToast(text string) string {
	data, _ := json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "toast", Text: text})
	return string(data)
}

// DisplayActivation 生成显示激活码的消息
func DisplayActivation(code string) string {
	data, _ := json.Marshal(struct {
		Type string `json:"type"`
		Code string `json:"code"`
	}{Type: "activation", Code: code})
	return string(data)
}

// IoTNetworkState 生成通知IoT进程网络状态的消息
func IoTNetworkState(connected bool) string {
	state := "disconnected"
	if connected {
		state = "connected"
	}
	data, _ := json.Marshal(struct {
		Type  string `json:"type"`
		State string `json:"state"`
	}{Type: "network", State: state})
	return string(data)
}
