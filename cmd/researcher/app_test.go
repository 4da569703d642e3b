package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/germanamz/researcher/pkg/chats/chat"
	"github.com/germanamz/researcher/pkg/chats/message"
	"github.com/germanamz/researcher/pkg/chats/role"
	"github.com/germanamz/researcher/pkg/engine"
	"github.com/germanamz/researcher/pkg/research"
	"github.com/germanamz/researcher/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(_ context.Context, _ *chat.Chat, _ []toolbox.Tool) (message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		return message.Message{}, s.err
	}
	return message.NewText("", role.Assistant, s.reply), nil
}

func (s *stubCompleter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type noLauncher struct{}

func (noLauncher) Launch(_ context.Context) (research.Session, error) {
	return nil, errors.New("no browser in tests")
}

func newTestApp(t *testing.T, c *stubCompleter) appModel {
	t.Helper()

	cfg := engine.DefaultConfig()
	cfg.Provider.APIKey = "gsk-test"

	eng, err := engine.New(cfg, engine.WithCompleter(c), engine.WithLauncher(noLauncher{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	m := newAppModel(context.Background(), eng.StartSession(""), eng)
	m.inputBox.enabled = true
	return m
}

func update(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	am, ok := next.(appModel)
	require.True(t, ok)
	return am, cmd
}

// waitForTurn runs the commands of a batch until one yields turnCompleteMsg.
func waitForTurn(t *testing.T, cmd tea.Cmd) turnCompleteMsg {
	t.Helper()
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)

	for _, c := range batch {
		if c == nil {
			continue
		}
		if tc, ok := c().(turnCompleteMsg); ok {
			return tc
		}
	}

	t.Fatal("no turnCompleteMsg in batch")
	return turnCompleteMsg{}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestApp_EmptyPromptShowsNotice(t *testing.T) {
	c := &stubCompleter{reply: "never"}
	m := newTestApp(t, c)

	m, cmd := update(t, m, inputSubmitMsg{text: "   \n"})
	assert.Nil(t, cmd)
	assert.Equal(t, stateInput, m.state)
	assert.Equal(t, emptyPromptNotice, m.notice)
	assert.Contains(t, m.View(), emptyPromptNotice)
	assert.Equal(t, 0, c.callCount())
}

func TestApp_SubmitAnswersAndAsksToContinue(t *testing.T) {
	c := &stubCompleter{reply: "Go is a language."}
	m := newTestApp(t, c)
	m.notice = emptyPromptNotice

	m, cmd := update(t, m, inputSubmitMsg{text: "what is go?"})
	assert.Equal(t, stateProcessing, m.state)
	assert.Empty(t, m.notice)
	assert.False(t, m.inputBox.enabled)

	done := waitForTurn(t, cmd)
	require.NoError(t, done.err)
	assert.Equal(t, "Go is a language.", done.text)

	m, _ = update(t, m, done)
	assert.Equal(t, stateConfirm, m.state)
	require.NotNil(t, m.confirm)
	require.NotNil(t, m.proceed)
	assert.True(t, *m.proceed)
	assert.Equal(t, 1, c.callCount())
	assert.Len(t, m.sess.History(), 3)
}

func TestApp_TurnErrorReturnsToInput(t *testing.T) {
	c := &stubCompleter{err: errors.New("rate limited")}
	m := newTestApp(t, c)

	m, cmd := update(t, m, inputSubmitMsg{text: "hello"})
	done := waitForTurn(t, cmd)
	require.Error(t, done.err)

	m, cmd = update(t, m, done)
	assert.NotNil(t, cmd)
	assert.Equal(t, stateInput, m.state)
	assert.Nil(t, m.confirm)
	assert.True(t, m.inputBox.enabled)
	assert.Len(t, m.sess.History(), 1)
}

func TestApp_ConfirmDeclineQuits(t *testing.T) {
	m := newTestApp(t, &stubCompleter{})
	m, _ = update(t, m, turnCompleteMsg{text: "answer", duration: time.Second})
	require.Equal(t, stateConfirm, m.state)

	*m.proceed = false
	m.confirm.State = huh.StateCompleted

	_, cmd := m.updateConfirm(nil)
	assert.True(t, isQuit(cmd))
}

func TestApp_ConfirmAcceptReturnsToInput(t *testing.T) {
	m := newTestApp(t, &stubCompleter{})
	m, _ = update(t, m, turnCompleteMsg{text: "answer"})
	m.inputBox.enabled = false

	m.confirm.State = huh.StateCompleted

	next, _ := m.updateConfirm(nil)
	am, ok := next.(appModel)
	require.True(t, ok)
	assert.Equal(t, stateInput, am.state)
	assert.Nil(t, am.confirm)
	assert.True(t, am.inputBox.enabled)
}

func TestApp_ConfirmAbortQuits(t *testing.T) {
	m := newTestApp(t, &stubCompleter{})
	m, _ = update(t, m, turnCompleteMsg{text: "answer"})

	m.confirm.State = huh.StateAborted

	_, cmd := m.updateConfirm(nil)
	assert.True(t, isQuit(cmd))
}

func TestApp_CtrlCQuits(t *testing.T) {
	m := newTestApp(t, &stubCompleter{})

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))
}

func TestApp_ActivityIsPrinted(t *testing.T) {
	m := newTestApp(t, &stubCompleter{})

	_, cmd := update(t, m, activityMsg{line: "⚙ Researching"})
	assert.NotNil(t, cmd)
}

func TestInput_EnterSubmitsRawText(t *testing.T) {
	in := newInput()
	in.enabled = true
	in.textarea.SetValue("  hi  ")

	in, cmd := in.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, inputSubmitMsg{text: "  hi  "}, cmd())
	assert.Empty(t, in.textarea.Value())
}

func TestInput_DisabledIgnoresKeys(t *testing.T) {
	in := newInput()
	in.textarea.SetValue("x")

	in, cmd := in.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "x", in.textarea.Value())
}
