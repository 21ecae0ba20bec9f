package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"xiaozhi-core/log"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 音频流格式
const (
	StreamFormatOpus = "opus" // 音频进程直接收发Opus帧
	StreamFormatPCM  = "pcm"  // 音频进程收发16位小端PCM，由本进程转码
)

// 设备标识的占位值，首次启动时会被替换并持久化
const (
	UnknownDeviceID = "unknown-device"
	UnknownClientID = "unknown-client"
)

// Config 表示设备核心进程的完整配置
type Config struct {
	Application ApplicationConfig `yaml:"application"` // 应用信息
	Board       BoardConfig       `yaml:"board"`       // 板卡信息
	Audio       AudioConfig       `yaml:"audio"`       // 音频进程桥配置
	GUI         GUIConfig         `yaml:"gui"`         // 显示进程桥配置
	IoT         IoTConfig         `yaml:"iot"`         // IoT外设桥配置
	Network     NetworkConfig     `yaml:"network"`     // 远端服务配置
	Hello       HelloConfig       `yaml:"hello"`       // hello握手中声明的音频参数
	Features    FeaturesConfig    `yaml:"features"`    // 运行时功能开关
	Log         log.LogConfig     `yaml:"log"`         // 日志配置
	ConfigPath  string            `yaml:"-"`           // 配置文件路径，不存储在YAML中
}

// ApplicationConfig 应用名称与版本，用于OTA请求
type ApplicationConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// BoardConfig 板卡类型与名称
type BoardConfig struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`
}

// AudioConfig 表示与音频进程之间的UDP通道
type AudioConfig struct {
	LocalPort          int    `yaml:"local_port"`           // 接收麦克风数据的本地端口
	RemotePort         int    `yaml:"remote_port"`          // 播放数据发往的端口
	RemoteIP           string `yaml:"remote_ip"`            // 音频进程地址
	StreamFormat       string `yaml:"stream_format"`        // opus 或 pcm
	PlaybackSampleRate int    `yaml:"playback_sample_rate"` // 下行音频采样率
	PlaybackChannels   int    `yaml:"playback_channels"`    // 下行音频通道数
	BufferSize         int    `yaml:"buffer_size"`          // UDP接收缓冲区大小
}

// GUIConfig 表示与显示进程之间的UDP通道
type GUIConfig struct {
	LocalPort  int    `yaml:"local_port"`
	RemotePort int    `yaml:"remote_port"`
	LocalIP    string `yaml:"local_ip"`
	RemoteIP   string `yaml:"remote_ip"`
	BufferSize int    `yaml:"buffer_size"`
}

// IoTConfig 表示与IoT外设进程之间的通道
// 配置了Command时通过子进程管道通信，否则使用UDP
type IoTConfig struct {
	Command    []string `yaml:"command,omitempty"`
	LocalPort  int      `yaml:"local_port"`
	RemotePort int      `yaml:"remote_port"`
	LocalIP    string   `yaml:"local_ip"`
	RemoteIP   string   `yaml:"remote_ip"`
	BufferSize int      `yaml:"buffer_size"`
}

// NetworkConfig 表示远端服务的连接参数
type NetworkConfig struct {
	WSURL          string        `yaml:"ws_url"`
	WSToken        string        `yaml:"ws_token"`
	OTAURL         string        `yaml:"ota_url"`
	DeviceID       string        `yaml:"device_id"`
	ClientID       string        `yaml:"client_id"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"` // 断线重连的固定间隔
	ActivationPoll time.Duration `yaml:"activation_poll"` // 激活状态轮询间隔
	QueueCapacity  int           `yaml:"queue_capacity"`  // 组件间队列容量
}

// HelloConfig hello消息中的音频参数
type HelloConfig struct {
	Format        string `yaml:"format"`
	SampleRate    int    `yaml:"sample_rate"`
	Channels      int    `yaml:"channels"`
	FrameDuration int    `yaml:"frame_duration"`
}

// FeaturesConfig 运行时功能开关
type FeaturesConfig struct {
	EnableTTSDisplay bool `yaml:"enable_tts_display"` // 是否把TTS文本转发给显示进程
	EnableTUI        bool `yaml:"enable_tui"`         // 是否启用终端界面
}

// Default 返回带有全部默认值的配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig 从YAML文件加载配置
// 参数:
//   - configPath: 配置文件路径，文件不存在时使用默认配置
//
// 返回:
//   - *Config: 加载的配置对象
//   - error: 如果加载失败，返回错误信息
func LoadConfig(configPath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	case os.IsNotExist(err):
		// 首次启动没有配置文件，全部使用默认值，后续Save会生成文件
	default:
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 存储配置文件路径
	cfg.ConfigPath = configPath

	// .env 文件不存在时忽略
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv 使用环境变量覆盖配置
func (c *Config) applyEnv() {
	if v := os.Getenv("XIAOZHI_WS_URL"); v != "" {
		c.Network.WSURL = v
	}
	if v := os.Getenv("XIAOZHI_WS_TOKEN"); v != "" {
		c.Network.WSToken = v
	}
	if v := os.Getenv("XIAOZHI_OTA_URL"); v != "" {
		c.Network.OTAURL = v
	}
	if v := os.Getenv("XIAOZHI_DEVICE_ID"); v != "" {
		c.Network.DeviceID = v
	}
	if v := os.Getenv("XIAOZHI_LOG_LEVEL"); v != "" {
		c.Log.LogLevel = v
	}
}

// applyDefaults 为未指定的字段设置默认值
func (c *Config) applyDefaults() {
	if c.Application.Name == "" {
		c.Application.Name = "xiaozhi-linux"
	}
	if c.Application.Version == "" {
		c.Application.Version = "0.1.0"
	}
	if c.Board.Type == "" {
		c.Board.Type = "linux"
	}
	if c.Board.Name == "" {
		c.Board.Name = "generic"
	}

	if c.Audio.LocalPort == 0 {
		c.Audio.LocalPort = 5676
	}
	if c.Audio.RemotePort == 0 {
		c.Audio.RemotePort = 5677
	}
	if c.Audio.RemoteIP == "" {
		c.Audio.RemoteIP = "127.0.0.1"
	}
	if c.Audio.StreamFormat == "" {
		c.Audio.StreamFormat = StreamFormatOpus
	}
	if c.Audio.PlaybackSampleRate == 0 {
		c.Audio.PlaybackSampleRate = 24000
	}
	if c.Audio.PlaybackChannels == 0 {
		c.Audio.PlaybackChannels = 1
	}
	if c.Audio.BufferSize == 0 {
		c.Audio.BufferSize = 2048
	}

	if c.GUI.LocalPort == 0 {
		c.GUI.LocalPort = 5678
	}
	if c.GUI.RemotePort == 0 {
		c.GUI.RemotePort = 5679
	}
	if c.GUI.LocalIP == "" {
		c.GUI.LocalIP = "0.0.0.0"
	}
	if c.GUI.RemoteIP == "" {
		c.GUI.RemoteIP = "127.0.0.1"
	}
	if c.GUI.BufferSize == 0 {
		c.GUI.BufferSize = 2048
	}

	if c.IoT.LocalPort == 0 {
		c.IoT.LocalPort = 5680
	}
	if c.IoT.RemotePort == 0 {
		c.IoT.RemotePort = 5681
	}
	if c.IoT.LocalIP == "" {
		c.IoT.LocalIP = "0.0.0.0"
	}
	if c.IoT.RemoteIP == "" {
		c.IoT.RemoteIP = "127.0.0.1"
	}
	if c.IoT.BufferSize == 0 {
		c.IoT.BufferSize = 4096
	}

	if c.Network.WSURL == "" {
		c.Network.WSURL = "wss://api.tenclass.net/xiaozhi/v1/"
	}
	if c.Network.WSToken == "" {
		c.Network.WSToken = "test-token"
	}
	if c.Network.DeviceID == "" {
		c.Network.DeviceID = UnknownDeviceID
	}
	if c.Network.ClientID == "" {
		c.Network.ClientID = UnknownClientID
	}
	if c.Network.ReconnectDelay == 0 {
		c.Network.ReconnectDelay = 5 * time.Second
	}
	if c.Network.ActivationPoll == 0 {
		c.Network.ActivationPoll = 5 * time.Second
	}
	if c.Network.QueueCapacity == 0 {
		c.Network.QueueCapacity = 100
	}

	if c.Hello.Format == "" {
		c.Hello.Format = "opus"
	}
	if c.Hello.SampleRate == 0 {
		c.Hello.SampleRate = 16000
	}
	if c.Hello.Channels == 0 {
		c.Hello.Channels = 1
	}
	if c.Hello.FrameDuration == 0 {
		c.Hello.FrameDuration = 60
	}

	if c.Log.LogLevel == "" {
		c.Log.LogLevel = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
}

// Validate 检查配置是否可用，启动阶段的配置错误是致命的
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Network.WSURL, "ws://") && !strings.HasPrefix(c.Network.WSURL, "wss://") {
		return fmt.Errorf("无效的ws_url: %q", c.Network.WSURL)
	}
	for name, port := range map[string]int{
		"audio.local_port":  c.Audio.LocalPort,
		"audio.remote_port": c.Audio.RemotePort,
		"gui.local_port":    c.GUI.LocalPort,
		"gui.remote_port":   c.GUI.RemotePort,
		"iot.local_port":    c.IoT.LocalPort,
		"iot.remote_port":   c.IoT.RemotePort,
	} {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("无效的端口 %s: %d", name, port)
		}
	}
	switch c.Audio.StreamFormat {
	case StreamFormatOpus, StreamFormatPCM:
	default:
		return fmt.Errorf("未知的音频流格式: %q", c.Audio.StreamFormat)
	}
	if c.Network.QueueCapacity < 1 {
		return fmt.Errorf("queue_capacity 必须大于0")
	}
	return nil
}

// Save 把配置写回ConfigPath
func (c *Config) Save() error {
	if c.ConfigPath == "" {
		return fmt.Errorf("未指定配置文件路径")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
