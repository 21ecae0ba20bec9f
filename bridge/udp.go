package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// udpEndpoint 绑定本地端口接收数据，并把数据发往固定的远端地址
type udpEndpoint struct {
	conn    *net.UDPConn
	remote  *net.UDPAddr
	bufSize int
}

func listenUDP(localIP string, localPort int, remoteIP string, remotePort, bufSize int) (*udpEndpoint, error) {
	if localIP == "" {
		localIP = "0.0.0.0"
	}
	laddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(localIP, strconv.Itoa(localPort)))
	if err != nil {
		return nil, fmt.Errorf("解析本地地址失败: %w", err)
	}
	raddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(remoteIP, strconv.Itoa(remotePort)))
	if err != nil {
		return nil, fmt.Errorf("解析远端地址失败: %w", err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("绑定UDP端口 %d 失败: %w", localPort, err)
	}
	if bufSize <= 0 {
		bufSize = 2048
	}
	return &udpEndpoint{conn: conn, remote: raddr, bufSize: bufSize}, nil
}

func (u *udpEndpoint) recvLoop(ctx context.Context, handle func(data []byte) bool) error {
	// ctx取消时让阻塞中的读立即返回
	stop := context.AfterFunc(ctx, func() {
		_ = u.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, u.bufSize)
	for {
		n, _, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			// 单个数据报出错不影响后续接收
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		if !handle(data) {
			return nil
		}
	}
}

func (u *udpEndpoint) send(data []byte) error {
	if _, err := u.conn.WriteToUDP(data, u.remote); err != nil {
		return fmt.Errorf("UDP发送失败: %w", err)
	}
	return nil
}

func (u *udpEndpoint) localAddr() *net.UDPAddr {
	return u.conn.LocalAddr().(*net.UDPAddr)
}

func (u *udpEndpoint) Close() error {
	return u.conn.Close()
}
