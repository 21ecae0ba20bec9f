package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// processPipe 启动外设子进程，通过stdin/stdout按行收发JSON
type processPipe struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	mu     sync.Mutex
	closed bool
}

func startProcess(argv []string) (*processPipe, error) {
	if len(argv) == 0 {
		return nil, errors.New("外设命令为空")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("创建stdin管道失败: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("创建stdout管道失败: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("启动外设进程 %s 失败: %w", argv[0], err)
	}
	return &processPipe{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

func (p *processPipe) recvLoop(ctx context.Context, handle func(data []byte) bool) error {
	stop := context.AfterFunc(ctx, func() { _ = p.Close() })
	defer stop()

	scanner := bufio.NewScanner(p.stdout)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		data := make([]byte, len(line))
		copy(data, line)
		if !handle(data) {
			return nil
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("读取外设输出失败: %w", err)
	}
	return io.EOF
}

func (p *processPipe) send(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("外设进程已关闭")
	}
	line := make([]byte, 0, len(data)+1)
	line = append(line, data...)
	line = append(line, '\n')
	if _, err := p.stdin.Write(line); err != nil {
		return fmt.Errorf("写入外设进程失败: %w", err)
	}
	return nil
}

func (p *processPipe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	_ = p.stdin.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	// 回收子进程，被Kill时的退出错误不关心
	_ = p.cmd.Wait()
	return nil
}
