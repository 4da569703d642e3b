package main

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/germanamz/researcher/pkg/engine"
)

// appState represents the application state machine.
type appState int

const (
	stateInput appState = iota
	stateProcessing
	stateConfirm
)

const emptyPromptNotice = "Please enter a prompt before sending."

// appModel is the root bubbletea model. Finished output goes to the
// terminal scrollback through tea.Println; View only renders the live area.
type appModel struct {
	ctx          context.Context
	sess         *engine.Session
	eng          *engine.Engine
	program      *tea.Program
	inputBox     inputModel
	spinner      spinner.Model
	status       statusBarModel
	confirm      *huh.Form
	proceed      *bool
	state        appState
	notice       string
	thinking     string
	cancelBridge context.CancelFunc
	cancelTurn   context.CancelFunc
	turnStart    time.Time
	width        int
}

func newAppModel(ctx context.Context, sess *engine.Session, eng *engine.Engine) appModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return appModel{
		ctx:      ctx,
		sess:     sess,
		eng:      eng,
		inputBox: newInput(),
		spinner:  sp,
		status:   statusBarModel{model: eng.Config().Provider.Model},
		state:    stateInput,
	}
}

func (m appModel) Init() tea.Cmd {
	return m.inputBox.enable()
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.status.width = msg.Width
		m.inputBox.setWidth(msg.Width)
		initMarkdownRenderer(msg.Width - 4)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}
		if msg.Type == tea.KeyEsc && m.state == stateProcessing && m.cancelTurn != nil {
			m.cancelTurn()
			m.cancelTurn = nil
			return m, nil
		}

	case programReadyMsg:
		m.program = msg.program
		m.cancelBridge = startBridge(m.ctx, msg.program, m.sess.ID(), m.eng.Events())
		return m, nil

	case inputSubmitMsg:
		return m.handleSubmit(msg)

	case activityMsg:
		return m, tea.Println(msg.line)

	case turnCompleteMsg:
		return m.handleTurnComplete(msg)

	case spinner.TickMsg:
		if m.state != stateProcessing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	switch m.state {
	case stateConfirm:
		return m.updateConfirm(msg)
	case stateInput:
		var cmd tea.Cmd
		m.inputBox, cmd = m.inputBox.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m appModel) View() string {
	var parts []string

	switch m.state {
	case stateProcessing:
		parts = append(parts, m.spinner.View()+" "+dimStyle.Render(m.thinking+" (esc to cancel)"))
	case stateConfirm:
		if m.confirm != nil {
			parts = append(parts, m.confirm.View())
		}
	default:
		if m.notice != "" {
			parts = append(parts, validationStyle.Render(m.notice))
		}
		parts = append(parts, m.inputBox.View())
	}

	parts = append(parts, m.status.View())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// handleSubmit hands the prompt to the session worker. The returned command
// only waits on the completion channel, so the event loop never blocks on
// the model or the browser.
func (m appModel) handleSubmit(msg inputSubmitMsg) (tea.Model, tea.Cmd) {
	turnCtx, cancel := context.WithCancel(m.ctx)

	done, err := m.sess.SubmitAsync(turnCtx, msg.text)
	if err != nil {
		cancel()
		if errors.Is(err, engine.ErrEmptyPrompt) {
			m.notice = emptyPromptNotice
			return m, nil
		}
		m.notice = ""
		return m, tea.Println(renderError(err))
	}

	m.notice = ""
	m.cancelTurn = cancel
	m.state = stateProcessing
	m.thinking = randomThinkingMessage()
	m.turnStart = time.Now()
	m.inputBox.disable()

	start := m.turnStart
	wait := func() tea.Msg {
		c := <-done
		return turnCompleteMsg{text: c.Text, err: c.Err, duration: time.Since(start)}
	}

	return m, tea.Batch(tea.Println(renderUserMessage(msg.text)), wait, m.spinner.Tick)
}

// handleTurnComplete prints the outcome. A successful answer is followed by
// the continue prompt; a failure returns straight to input.
func (m appModel) handleTurnComplete(msg turnCompleteMsg) (tea.Model, tea.Cmd) {
	if m.cancelTurn != nil {
		m.cancelTurn()
		m.cancelTurn = nil
	}
	m.status.usage = m.eng.Usage()
	m.status.duration = msg.duration

	if msg.err != nil {
		m.state = stateInput
		return m, tea.Batch(tea.Println(renderError(msg.err)), m.inputBox.enable())
	}

	m.state = stateConfirm
	m.proceed = new(bool)
	*m.proceed = true
	m.confirm = newConfirmForm(m.proceed)

	return m, tea.Batch(tea.Println(renderAnswer(msg.text)), m.confirm.Init())
}

func newConfirmForm(proceed *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Continue the conversation?").
				Affirmative("Yes").
				Negative("No").
				Value(proceed),
		),
	).WithShowHelp(false)
}

func (m appModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.confirm == nil {
		return m, nil
	}

	form, cmd := m.confirm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirm = f
	}

	switch m.confirm.State {
	case huh.StateAborted:
		return m.quit()
	case huh.StateCompleted:
		if !*m.proceed {
			return m.quit()
		}
		m.confirm = nil
		m.state = stateInput
		return m, m.inputBox.enable()
	}

	return m, cmd
}

func (m appModel) quit() (tea.Model, tea.Cmd) {
	if m.cancelTurn != nil {
		m.cancelTurn()
		m.cancelTurn = nil
	}
	if m.cancelBridge != nil {
		m.cancelBridge()
		m.cancelBridge = nil
	}
	return m, tea.Quit
}
