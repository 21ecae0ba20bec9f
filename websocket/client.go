package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"xiaozhi-core/log"
	"xiaozhi-core/model"

	"github.com/gorilla/websocket"
)

const (
	// DefaultReconnectDelay 断线后固定等待的时间，不做指数退避
	DefaultReconnectDelay = 5 * time.Second
	defaultHandshake      = 10 * time.Second
	defaultWriteTimeout   = 10 * time.Second
)

var (
	// ErrCommandQueueClosed 表示控制器一侧的命令队列已经关闭
	ErrCommandQueueClosed = errors.New("command queue closed")
	// ErrEventQueueClosed 表示事件无法再投递给控制器
	ErrEventQueueClosed = errors.New("event queue closed")
)

// Options 表示连接远端服务所需的参数
type Options struct {
	URL            string
	Token          string
	DeviceID       string
	ClientID       string
	Hello          model.HelloMessage
	ReconnectDelay time.Duration
	WriteTimeout   time.Duration
}

// Client 维护与远端服务的长连接
// 连接断开后自动重连，对控制器呈现稳定的事件/命令接口
type Client struct {
	opts     Options
	dialer   *websocket.Dialer
	events   chan<- Event
	commands <-chan Command
	attempts atomic.Int64
}

// NewClient 创建连接客户端
// 参数:
//   - opts: 连接参数
//   - events: 向控制器投递事件的队列
//   - commands: 控制器下发命令的队列
func NewClient(opts Options, events chan<- Event, commands <-chan Command) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	return &Client{
		opts: opts,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: defaultHandshake,
		},
		events:   events,
		commands: commands,
	}
}

// Attempts 返回已经发起的连接次数
func (c *Client) Attempts() int {
	return int(c.attempts.Load())
}

// Run 连接主循环，任何错误都会上报Disconnected并在固定延迟后重连
// 只有ctx被取消时才返回
func (c *Client) Run(ctx context.Context) {
	for {
		c.attempts.Add(1)
		err := c.connectAndLoop(ctx)
		if ctx.Err() != nil {
			return
		}

		log.Errorf("连接错误: %v，%s后重连", err, c.opts.ReconnectDelay)
		if !c.emit(ctx, Event{Type: EventDisconnected}) {
			return
		}

		timer := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// header 构造握手请求头
func (c *Client) header() http.Header {
	header := make(http.Header)
	header.Set("Authorization", "Bearer "+c.opts.Token)
	header.Set("Device-Id", c.opts.DeviceID)
	if c.opts.ClientID != "" {
		header.Set("Client-Id", c.opts.ClientID)
	}
	header.Set("Protocol-Version", strconv.Itoa(model.ProtocolVersion))
	return header
}

// connectAndLoop 处理一条连接的完整生命周期
func (c *Client) connectAndLoop(ctx context.Context) error {
	log.Infof("正在连接 %s (第%d次)", c.opts.URL, c.Attempts())

	conn, resp, err := c.dialer.DialContext(ctx, c.opts.URL, c.header())
	if err != nil {
		if resp != nil {
			return fmt.Errorf("握手失败(状态码 %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("连接失败: %w", err)
	}
	log.Infof("已连接到 %s", c.opts.URL)

	connCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		// 先关闭连接让读协程退出，保证Disconnected之前不会再有本连接的事件
		cancel()
		conn.Close()
		wg.Wait()
	}()

	if !c.emit(ctx, Event{Type: EventConnected}) {
		return ErrEventQueueClosed
	}

	hello, err := json.Marshal(c.opts.Hello)
	if err != nil {
		return fmt.Errorf("hello编码失败: %w", err)
	}
	if err := c.write(conn, websocket.TextMessage, hello); err != nil {
		return fmt.Errorf("发送hello失败: %w", err)
	}

	readErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		readErr <- c.readLoop(connCtx, conn)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case cmd, ok := <-c.commands:
			if !ok {
				return ErrCommandQueueClosed
			}
			if err := c.writeCommand(conn, cmd); err != nil {
				return err
			}
		}
	}
}

// readLoop 读取服务端的帧并按顺序转换为事件
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("读取消息错误: %w", err)
		}

		var event Event
		switch messageType {
		case websocket.TextMessage:
			event = Event{Type: EventText, Text: string(data)}
		case websocket.BinaryMessage:
			event = Event{Type: EventBinary, Data: data}
		default:
			continue
		}

		if !c.emit(ctx, event) {
			return ErrEventQueueClosed
		}
	}
}

// writeCommand 把控制器的命令写成对应类型的帧
func (c *Client) writeCommand(conn *websocket.Conn, cmd Command) error {
	switch cmd.Type {
	case CommandText:
		return c.write(conn, websocket.TextMessage, []byte(cmd.Text))
	case CommandBinary:
		return c.write(conn, websocket.BinaryMessage, cmd.Data)
	default:
		log.Warnf("忽略未知命令类型: %d", cmd.Type)
		return nil
	}
}

func (c *Client) write(conn *websocket.Conn, messageType int, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
		return err
	}
	if err := conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("写入消息错误: %w", err)
	}
	return nil
}

// emit 投递事件，队列满时阻塞；ctx取消时返回false
func (c *Client) emit(ctx context.Context, event Event) bool {
	select {
	case c.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
