package models

import (
	"encoding/json"
	"time"
)

// Role indicates the message author type.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is the unified message format for a turn's wire representation
// (used when building LLM requests and when persisting history).
type Message struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"session_id"`
	Role        Role           `json:"role"`
	Content     string         `json:"content"`
	ToolCalls   []ToolCall     `json:"tool_calls,omitempty"`
	ToolResults []ToolResult   `json:"tool_results,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ToolCall represents an LLM's or the Orchestrator's request to execute a tool.
type ToolCall struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Input        json.RawMessage `json:"input"`
	Priority     int             `json:"priority,omitempty"`
	Dependencies []string        `json:"dependencies,omitempty"`
	Status       ToolCallStatus  `json:"status,omitempty"`
}

// ToolCallStatus is the lifecycle state of a planned ToolCall.
type ToolCallStatus string

const (
	ToolCallPending  ToolCallStatus = "pending"
	ToolCallRunning  ToolCallStatus = "running"
	ToolCallRetrying ToolCallStatus = "retrying"
	ToolCallSuccess  ToolCallStatus = "success"
	ToolCallFailed   ToolCallStatus = "failed"
	ToolCallSkipped  ToolCallStatus = "skipped"
)

// ToolResult represents the output of a tool execution.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	ToolName   string `json:"tool_name,omitempty"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// Session represents one conversation thread owned exclusively by the
// Session Manager. Callers outside internal/sessions only ever see a
// cloned snapshot, never the live pointer.
type Session struct {
	ID           string             `json:"id"`
	Turns        []Turn             `json:"turns"`
	Documents    []UploadedDocument `json:"documents,omitempty"`
	PersonalInfo PersonalInfo       `json:"personal_info"`
	Summary      ConversationSummary `json:"summary"`
	Metadata     map[string]any     `json:"metadata,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	LastAccess   time.Time          `json:"last_access"`
}

// Turn is one user/assistant exchange, immutable after creation.
type Turn struct {
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	ToolsUsed  []string  `json:"tools_used,omitempty"`
	Tokens     int       `json:"tokens"`
	CreatedAt  time.Time `json:"created_at"`
	Truncated  bool      `json:"truncated,omitempty"`
}

// PersonalInfo is the session's deterministic memory of user-shared facts.
type PersonalInfo struct {
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
}

// HasAny reports whether any personal-info field has been recorded.
func (p PersonalInfo) HasAny() bool {
	return p.Name != "" || p.Location != ""
}

// ConversationSummary is a lazily-refreshed rolling prose summary of a
// long session, appended to the LLM system preamble.
type ConversationSummary struct {
	Text        string `json:"text,omitempty"`
	TurnsAtSync int    `json:"turns_at_sync"`
}
