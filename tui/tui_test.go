package tui

import (
	"testing"

	"xiaozhi-core/model"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestModelState(t *testing.T) {
	m := NewModel()
	assert.Contains(t, m.View(), "待机")

	m, _ = update(t, m, stateMsg(model.StateSpeaking))
	assert.Equal(t, model.StateSpeaking, m.state)
	assert.Contains(t, m.View(), "说话中")

	m, _ = update(t, m, stateMsg(model.StateNetworkError))
	assert.Contains(t, m.View(), "网络异常")
}

func TestModelSubtitle(t *testing.T) {
	m, _ := update(t, NewModel(), tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, subtitleMsg("今天天气不错"))
	assert.Contains(t, m.View(), "今天天气不错")
}

func TestModelQuit(t *testing.T) {
	_, cmd := update(t, NewModel(), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	_, cmd = update(t, NewModel(), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Nil(t, cmd)
}

func TestModelTickAnimates(t *testing.T) {
	m, _ := update(t, NewModel(), stateMsg(model.StateSpeaking))
	first := m.face()

	var cmd tea.Cmd
	for i := 0; i < 3; i++ {
		m, cmd = update(t, m, tickMsg{})
	}
	assert.NotNil(t, cmd)
	assert.NotEqual(t, first, m.face())
}

func TestPresenterNeverBlocks(t *testing.T) {
	p := NewPresenter()
	for i := 0; i < queueSize+10; i++ {
		p.SetSubtitle("x")
	}
	p.SetState(model.StateListening)
	assert.EqualValues(t, 11, p.Dropped())
	assert.Len(t, p.msgs, queueSize)
}
