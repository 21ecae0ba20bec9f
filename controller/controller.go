package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"xiaozhi-core/bridge"
	"xiaozhi-core/log"
	"xiaozhi-core/model"
	"xiaozhi-core/websocket"
)

// AudioSink 是音频播放通道
type AudioSink interface {
	SendAudio(data []byte) error
}

// MessageSink 是显示进程或IoT进程的文本通道
type MessageSink interface {
	SendMessage(text string) error
}

// Presenter 是可选的本地展示层，例如终端界面
// 实现不能阻塞控制器
type Presenter interface {
	SetState(state model.SessionState)
	SetSubtitle(text string)
}

// Options 控制器的运行时开关
type Options struct {
	EnableTTSDisplay bool      // 把带文本的tts消息转发给显示进程
	Presenter        Presenter // 为nil时不推送状态和字幕
}

// Snapshot 是控制器状态的只读副本
type Snapshot struct {
	State     model.SessionState
	SessionID string
	Muted     bool
	Discarded int64 // 无法解析或未知类型的服务端消息数
	Dropped   int64 // 静音期间丢弃的麦克风帧数
}

// Controller 是会话状态、会话ID与麦克风静音标志的唯一所有者
// 所有Handle方法只能由同一个协程调用，通常是Run
type Controller struct {
	net     chan<- websocket.Command
	audio   AudioSink
	display MessageSink
	iot     MessageSink
	opts    Options

	mu        sync.Mutex
	state     model.SessionState
	sessionID string
	muted     bool

	discarded atomic.Int64
	dropped   atomic.Int64
}

// New 创建控制器，初始状态为Idle
// 参数:
//   - net: 发往连接客户端的命令队列
//   - audio: 音频播放通道
//   - display: 显示进程通道
//   - iot: IoT外设通道
//   - opts: 运行时开关
func New(net chan<- websocket.Command, audio AudioSink, display, iot MessageSink, opts Options) *Controller {
	return &Controller{
		net:     net,
		audio:   audio,
		display: display,
		iot:     iot,
		opts:    opts,
		state:   model.StateIdle,
	}
}

// Snapshot 返回当前状态，可以在任意协程调用
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:     c.state,
		SessionID: c.sessionID,
		Muted:     c.muted,
		Discarded: c.discarded.Load(),
		Dropped:   c.dropped.Load(),
	}
}

// transition 切换状态，返回状态是否发生变化
func (c *Controller) transition(to model.SessionState) bool {
	c.mu.Lock()
	changed := c.state != to
	c.state = to
	c.mu.Unlock()

	if changed && c.opts.Presenter != nil {
		c.opts.Presenter.SetState(to)
	}
	return changed
}

// HandleNetEvent 处理连接客户端的事件
func (c *Controller) HandleNetEvent(ctx context.Context, ev websocket.Event) {
	switch ev.Type {
	case websocket.EventText:
		c.handleServerText(ctx, ev.Text)
	case websocket.EventBinary:
		c.handleServerAudio(ev.Data)
	case websocket.EventConnected:
		log.Infof("WebSocket已连接")
		c.notify(c.display, "显示", model.DisplayState(model.DisplayConnected))
		c.notify(c.iot, "IoT", model.IoTNetworkState(true))
	case websocket.EventDisconnected:
		log.Infof("WebSocket已断开")
		c.transition(model.StateNetworkError)
		c.notify(c.display, "显示", model.DisplayState(model.DisplayNetworkError))
		c.notify(c.iot, "IoT", model.IoTNetworkState(false))
	default:
		log.Warnf("未知的连接事件: %v", ev.Type)
	}
}

// handleServerText 解析服务端文本消息并按类型分发
func (c *Controller) handleServerText(ctx context.Context, text string) {
	log.Debugf("收到服务端消息: %s", text)

	msg, err := model.DecodeServerMessage([]byte(text))
	if err != nil {
		c.discarded.Add(1)
		log.Debugf("丢弃无法解析的消息: %v", err)
		return
	}

	if msg.SessionID != "" {
		c.mu.Lock()
		changed := msg.SessionID != c.sessionID
		if changed {
			c.sessionID = msg.SessionID
		}
		c.mu.Unlock()
		if changed {
			log.Infof("新会话: %s", msg.SessionID)
		}
	}

	switch msg.Type {
	case model.TypeHello:
		log.Infof("收到服务端hello，开始自动监听")
		c.sendNet(ctx, websocket.SendText(model.AutoListenStart("")))

	case model.TypeIoT:
		if len(msg.Command) > 0 {
			log.Infof("IoT命令: %s", msg.Command)
		}
		c.notify(c.iot, "IoT", text)

	case model.TypeTTS:
		c.handleTTS(ctx, msg, text)

	case model.TypeSTT:
		if msg.HasText() {
			log.Infof("识别结果: %s", msg.Text)
		}

	case model.TypeLLM:
		if msg.Emotion != "" {
			log.Debugf("表情: %s", msg.Emotion)
		}

	default:
		c.discarded.Add(1)
		log.Debugf("忽略未知类型的消息: %s", msg.Type)
	}
}

func (c *Controller) handleTTS(ctx context.Context, msg *model.ServerMessage, raw string) {
	switch msg.State {
	case model.TTSStateStart:
		c.setMuted(true)
		log.Infof("TTS开始，麦克风静音")
	case model.TTSStateStop:
		c.setMuted(false)
		log.Infof("TTS结束，恢复麦克风")
		c.mu.Lock()
		sessionID := c.sessionID
		c.mu.Unlock()
		c.sendNet(ctx, websocket.SendText(model.AutoListenStart(sessionID)))
	}

	if !msg.HasText() {
		return
	}
	log.Infof("TTS: %s", msg.Text)
	if c.opts.Presenter != nil {
		c.opts.Presenter.SetSubtitle(msg.Text)
	}
	if c.opts.EnableTTSDisplay {
		c.notify(c.display, "显示", raw)
	}
}

func (c *Controller) setMuted(muted bool) {
	c.mu.Lock()
	c.muted = muted
	c.mu.Unlock()
}

// handleServerAudio 播放服务端音频，首帧切换到Speaking
func (c *Controller) handleServerAudio(data []byte) {
	if c.transition(model.StateSpeaking) {
		c.notify(c.display, "显示", model.DisplayState(model.DisplaySpeaking))
	}
	if err := c.audio.SendAudio(data); err != nil {
		log.Errorf("发送音频到音频进程失败: %v", err)
	}
}

// HandleAudioEvent 处理麦克风数据，静音期间直接丢弃
func (c *Controller) HandleAudioEvent(ctx context.Context, ev bridge.AudioEvent) {
	c.mu.Lock()
	muted := c.muted
	c.mu.Unlock()
	if muted {
		c.dropped.Add(1)
		return
	}

	if c.transition(model.StateListening) {
		c.notify(c.display, "显示", model.DisplayState(model.DisplayListening))
	}
	c.sendNet(ctx, websocket.SendBinary(ev.Data))
}

// HandleDisplayEvent 把显示进程的消息转发给服务端
func (c *Controller) HandleDisplayEvent(ctx context.Context, ev bridge.MessageEvent) {
	log.Infof("收到显示进程消息: %s", ev.Text)
	c.sendNet(ctx, websocket.SendText(ev.Text))
}

// HandleIoTEvent 把IoT进程的消息转发给服务端
func (c *Controller) HandleIoTEvent(ctx context.Context, ev bridge.MessageEvent) {
	log.Infof("收到IoT消息: %s", ev.Text)
	c.sendNet(ctx, websocket.SendText(ev.Text))
}

// sendNet 向连接客户端下发命令，队列满时等待
func (c *Controller) sendNet(ctx context.Context, cmd websocket.Command) {
	select {
	case c.net <- cmd:
	case <-ctx.Done():
		log.Errorf("发送命令到连接失败: %v", ctx.Err())
	}
}

// notify 转发消息给外部进程，失败只记录日志
func (c *Controller) notify(sink MessageSink, name, text string) {
	if err := sink.SendMessage(text); err != nil {
		if errors.Is(err, bridge.ErrUnsupported) {
			log.Debugf("%s通道不支持文本消息", name)
			return
		}
		log.Errorf("发送消息到%s进程失败: %v", name, err)
	}
}
