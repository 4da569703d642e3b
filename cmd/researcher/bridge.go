package main

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/germanamz/researcher/pkg/engine"
)

// startBridge launches the event watcher goroutine. It only calls p.Send and
// never touches model state directly. The returned function cancels the
// watcher and waits for it to exit, so no stale messages arrive afterwards.
func startBridge(ctx context.Context, p *tea.Program, sessionID string, events *engine.EventBus) context.CancelFunc {
	bridgeCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	sub := events.Subscribe(64)

	wg.Go(func() {
		defer events.Unsubscribe(sub)
		for {
			select {
			case <-bridgeCtx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if ev.SessionID != sessionID {
					continue
				}
				if line, ok := formatEvent(ev); ok {
					p.Send(activityMsg{line: line})
				}
			}
		}
	})

	return func() {
		cancel()
		wg.Wait()
	}
}
