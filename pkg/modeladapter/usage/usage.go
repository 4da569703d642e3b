// Package usage tracks token consumption reported by the model endpoint.
package usage

import "sync"

// TokenCount holds the prompt and completion token counts of one model round.
type TokenCount struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Plus returns the element-wise sum of tc and o.
func (tc TokenCount) Plus(o TokenCount) TokenCount {
	return TokenCount{
		InputTokens:  tc.InputTokens + o.InputTokens,
		OutputTokens: tc.OutputTokens + o.OutputTokens,
	}
}

// Tracker accumulates usage across rounds. The session worker writes it while
// the presentation layer reads it, so it is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	last   TokenCount
	total  TokenCount
	rounds int
}

// Add records the usage of one round.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = tc
	t.total = t.total.Plus(tc)
	t.rounds++
}

// Last returns the most recent round's usage; false when nothing was recorded.
func (t *Tracker) Last() (TokenCount, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.rounds > 0
}

// Total returns the aggregate across all rounds.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Count returns the number of recorded rounds.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.rounds
}
