// Package tools provides the tool registry used by the conversation
// orchestrator and the MCP export of the same tools.
//
// Sub-packages:
//   - [github.com/germanamz/researcher/pkg/tools/toolbox] - Tool descriptors and the static ToolBox registry
//   - [github.com/germanamz/researcher/pkg/tools/mcpserver] - serves a ToolBox over the Model Context Protocol
//
// mcpserver is a thin wrapper around the official MCP Go SDK
// (github.com/modelcontextprotocol/go-sdk).
package tools
