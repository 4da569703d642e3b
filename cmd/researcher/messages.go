package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// inputSubmitMsg carries the text the user submitted from the input box.
type inputSubmitMsg struct {
	text string
}

// turnCompleteMsg is returned by the tea.Cmd waiting on a submitted turn.
type turnCompleteMsg struct {
	text     string
	err      error
	duration time.Duration
}

// activityMsg is one line of tool activity forwarded by the bridge.
type activityMsg struct {
	line string
}

// programReadyMsg passes the *tea.Program to the model so it can start the bridge.
type programReadyMsg struct {
	program *tea.Program
}
