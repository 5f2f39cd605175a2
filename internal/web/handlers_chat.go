package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aqagent/aqagent/internal/agent"
	"github.com/aqagent/aqagent/internal/health"
	"github.com/aqagent/aqagent/internal/sessions"
	"github.com/aqagent/aqagent/internal/tools/policy"
	"github.com/aqagent/aqagent/pkg/models"
)

// handlers holds the dependencies shared by every route, grounded on the
// teacher's internal/gateway.Server field layout (one struct, one
// constructor, methods as handlers).
type handlers struct {
	pipeline *agent.Pipeline
	sessions sessions.Store
	health   *health.Monitor
	logger   *slog.Logger

	// toolResolver/toolPolicy gate which tools a turn may execute, per
	// ToolsConfig.Profile; attached to every request's context so the
	// Executor's policy.Resolver lookup (agent.WithToolPolicy) sees them.
	toolResolver *policy.Resolver
	toolPolicy   *policy.Policy
}

func (h *handlers) withPolicy(ctx context.Context) context.Context {
	return agent.WithToolPolicy(ctx, h.toolResolver, h.toolPolicy)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleChat serves POST /chat: one request in, one ChatResponse out.
func (h *handlers) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		writeJSONError(w, http.StatusBadRequest, "session_id and message are required")
		return
	}

	resp, err := h.pipeline.HandleTurn(h.withPolicy(r.Context()), req)
	if err != nil {
		// The pipeline already rendered a user-safe message into resp;
		// still report 200 so the chat payload round-trips normally,
		// matching spec §6's contract that errors surface as a finish
		// reason, not a transport failure.
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleChatStream serves POST /chat/stream: an SSE stream of `thought`
// (tool/reasoning progress), `response` (the final ChatResponse), and
// `done` events, translated from the Agent Pipeline's AgentEvent stream
// via a per-request ChanSink.
func (h *handlers) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.Message == "" {
		writeJSONError(w, http.StatusBadRequest, "session_id and message are required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events := make(chan models.AgentEvent, 32)
	sink := agent.NewChanSink(events)
	streamPipeline := h.pipeline.WithSink(sink)

	done := make(chan struct{})
	var resp *models.ChatResponse
	var turnErr error
	go func() {
		defer close(done)
		resp, turnErr = streamPipeline.HandleTurn(h.withPolicy(r.Context()), req)
	}()

	ctx := r.Context()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				continue
			}
			writeThoughtEvent(w, flusher, ev)
		case <-done:
			// Drain whatever arrived between the last select tick and the
			// goroutine closing done.
			drainEvents(w, flusher, events)
			writeSSE(w, flusher, "response", resp)
			writeSSE(w, flusher, "done", map[string]bool{"done": true})
			if turnErr != nil {
				h.logger.Error("chat stream turn error", "error", turnErr)
			}
			return
		case <-ctx.Done():
			return
		}
	}
}

func drainEvents(w http.ResponseWriter, flusher http.Flusher, events chan models.AgentEvent) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeThoughtEvent(w, flusher, ev)
		default:
			return
		}
	}
}

// writeThoughtEvent renders non-terminal AgentEvents (tool progress, model
// deltas) as `thought` SSE frames; terminal run events are handled by the
// caller once HandleTurn itself returns, so they're skipped here.
func writeThoughtEvent(w http.ResponseWriter, flusher http.Flusher, ev models.AgentEvent) {
	switch ev.Type {
	case models.AgentEventRunFinished, models.AgentEventRunError, models.AgentEventRunCancelled, models.AgentEventRunTimedOut:
		return
	}
	writeSSE(w, flusher, "thought", ev)
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
