package tui

import (
	"context"
	"errors"
	"sync/atomic"

	"xiaozhi-core/model"

	tea "github.com/charmbracelet/bubbletea"
)

const queueSize = 256

// Presenter 把控制器的状态和字幕推送到终端界面
// 推送不阻塞，界面跟不上时丢弃
type Presenter struct {
	msgs    chan tea.Msg
	dropped atomic.Int64
}

// NewPresenter 创建终端界面推送器
func NewPresenter() *Presenter {
	return &Presenter{msgs: make(chan tea.Msg, queueSize)}
}

func (p *Presenter) SetState(state model.SessionState) {
	p.push(stateMsg(state))
}

func (p *Presenter) SetSubtitle(text string) {
	p.push(subtitleMsg(text))
}

// Dropped 返回因界面繁忙而丢弃的推送数
func (p *Presenter) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Presenter) push(msg tea.Msg) {
	select {
	case p.msgs <- msg:
	default:
		p.dropped.Add(1)
	}
}

// Run 接管终端运行界面，用户按q或ctx取消后返回
func (p *Presenter) Run(ctx context.Context) error {
	program := tea.NewProgram(NewModel(), tea.WithAltScreen(), tea.WithContext(ctx))

	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		for {
			select {
			case <-pumpCtx.Done():
				return
			case msg := <-p.msgs:
				program.Send(msg)
			}
		}
	}()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
