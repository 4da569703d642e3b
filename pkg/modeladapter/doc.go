// Package modeladapter defines how the orchestrator talks to a hosted model.
//
// It contains:
//   - [Completer], the one-call-per-round interface the orchestrator depends on
//   - [ModelAdapter], an embeddable base with auth, JSON POST and status classification
//   - [github.com/germanamz/researcher/pkg/modeladapter/usage] - thread-safe token usage tracker
//
// Provider wire formats live in the providers packages.
package modeladapter
