// Package engine is the composition root that assembles the research
// assistant from configuration and exposes it through a frontend-agnostic
// API. Frontends (TUI, one-shot CLI, MCP) interact with Engine and Session
// types, observe activity through an EventBus, and never wire lower-level
// packages themselves.
package engine
