package tui

import (
	"strings"
	"time"

	"xiaozhi-core/model"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const tickInterval = 67 * time.Millisecond

type stateMsg model.SessionState

type subtitleMsg string

type tickMsg time.Time

// 每隔这么多帧眨一次眼
const blinkEvery = 45

var (
	faceStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			Align(lipgloss.Center)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Italic(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	stateColors = map[model.SessionState]lipgloss.Color{
		model.StateIdle:         lipgloss.Color("244"),
		model.StateListening:    lipgloss.Color("42"),
		model.StateProcessing:   lipgloss.Color("214"),
		model.StateSpeaking:     lipgloss.Color("39"),
		model.StateNetworkError: lipgloss.Color("196"),
	}

	stateLabels = map[model.SessionState]string{
		model.StateIdle:         "待机",
		model.StateListening:    "聆听中",
		model.StateProcessing:   "思考中",
		model.StateSpeaking:     "说话中",
		model.StateNetworkError: "网络异常，正在重连",
	}
)

// Model 是终端界面的bubbletea模型，展示表情、状态和字幕
type Model struct {
	state    model.SessionState
	subtitle string
	frame    int
	width    int
}

// NewModel 创建初始为待机状态的界面模型
func NewModel() Model {
	return Model{state: model.StateIdle}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case stateMsg:
		m.state = model.SessionState(msg)
	case subtitleMsg:
		m.subtitle = string(msg)
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

// face 按状态和帧数绘制表情
func (m Model) face() string {
	eyes := "◉   ◉"
	if m.frame%blinkEvery == 0 && m.frame > 0 {
		eyes = "─   ─"
	}

	var mouth string
	switch m.state {
	case model.StateSpeaking:
		// 说话时嘴巴开合
		if (m.frame/3)%2 == 0 {
			mouth = " ◯ "
		} else {
			mouth = " ─ "
		}
	case model.StateListening:
		mouth = " ◡ "
	case model.StateProcessing:
		mouth = " ~ "
		eyes = "◔   ◔"
	case model.StateNetworkError:
		mouth = " ︵ "
		eyes = "×   ×"
	default:
		mouth = " ‿ "
	}
	return eyes + "\n" + mouth
}

func (m Model) View() string {
	color, ok := stateColors[m.state]
	if !ok {
		color = stateColors[model.StateIdle]
	}
	label, ok := stateLabels[m.state]
	if !ok {
		label = m.state.String()
	}

	var b strings.Builder
	b.WriteString(faceStyle.BorderForeground(color).Render(m.face()))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(color).Bold(true).Render(label))
	b.WriteString("\n\n")
	if m.subtitle != "" {
		style := subtitleStyle
		if m.width > 4 {
			style = style.Width(m.width - 4)
		}
		b.WriteString(style.Render(m.subtitle))
		b.WriteString("\n\n")
	}
	b.WriteString(helpStyle.Render("q 退出"))
	return b.String()
}
