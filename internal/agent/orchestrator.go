package agent

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aqagent/aqagent/pkg/models"
)

// OrchestratorConfig configures dependency batching, the per-tool circuit
// breaker, and the executor it drives.
type OrchestratorConfig struct {
	// CircuitBreakerThreshold is the number of consecutive failures before a
	// tool's breaker opens.
	CircuitBreakerThreshold int

	// CircuitBreakerCooldown is how long a breaker stays open before the next
	// call is allowed to probe the tool again.
	CircuitBreakerCooldown time.Duration

	// Executor runs each batch's calls in parallel. Required.
	Executor *Executor
}

// DefaultOrchestratorConfig returns sensible defaults matching the
// Orchestrator's per-tool retry (1 retry, latency-bounded) and breaker
// cooldown windows documented in the design notes.
func DefaultOrchestratorConfig(executor *Executor) *OrchestratorConfig {
	return &OrchestratorConfig{
		CircuitBreakerThreshold: 3,
		CircuitBreakerCooldown:  30 * time.Second,
		Executor:                executor,
	}
}

// Orchestrator plans a dependency-respecting execution of a batch of tool
// calls, runs each layer in parallel via the Executor, and tracks a
// per-tool circuit breaker so a tool that keeps failing stops being tried
// until its cooldown elapses.
type Orchestrator struct {
	config  *OrchestratorConfig
	mu      sync.Mutex
	states  map[string]*models.CircuitBreakerState
	tracer  trace.Tracer
}

// NewOrchestrator creates an Orchestrator bound to the given executor.
func NewOrchestrator(config *OrchestratorConfig) *Orchestrator {
	if config == nil || config.Executor == nil {
		panic("agent: NewOrchestrator requires a non-nil Executor")
	}
	if config.CircuitBreakerThreshold <= 0 {
		config.CircuitBreakerThreshold = 3
	}
	if config.CircuitBreakerCooldown <= 0 {
		config.CircuitBreakerCooldown = 30 * time.Second
	}
	return &Orchestrator{
		config: config,
		states: make(map[string]*models.CircuitBreakerState),
		tracer: otel.Tracer("aqagent/orchestrator"),
	}
}

// Plan arranges calls into dependency-respecting batches using Kahn's
// algorithm over ToolCall.Dependencies (matched by ToolCall.ID). A call
// whose dependency can't be resolved to another call in the same plan is
// treated as having no dependency. If a cycle is detected — the unresolved
// node count stops shrinking across a pass — Plan gives up on layering and
// returns every remaining call as a single final batch so execution still
// makes progress instead of deadlocking.
func (o *Orchestrator) Plan(calls []models.ToolCall) [][]models.ToolCall {
	if len(calls) == 0 {
		return nil
	}

	byID := make(map[string]models.ToolCall, len(calls))
	for _, c := range calls {
		if c.ID != "" {
			byID[c.ID] = c
		}
	}

	remaining := make([]models.ToolCall, len(calls))
	copy(remaining, calls)

	done := make(map[string]bool, len(calls))
	var batches [][]models.ToolCall

	for len(remaining) > 0 {
		var ready []models.ToolCall
		var next []models.ToolCall

		for _, c := range remaining {
			ok := true
			for _, dep := range c.Dependencies {
				if _, exists := byID[dep]; !exists {
					continue // unresolved dependency is ignored
				}
				if !done[dep] {
					ok = false
					break
				}
			}
			if ok {
				ready = append(ready, c)
			} else {
				next = append(next, c)
			}
		}

		if len(ready) == 0 {
			// Cycle: no progress possible. Run everything left as one batch.
			batches = append(batches, remaining)
			break
		}

		for _, c := range ready {
			if c.ID != "" {
				done[c.ID] = true
			}
		}
		batches = append(batches, ready)
		remaining = next
	}

	return batches
}

// Run executes a full plan batch by batch, honoring the circuit breaker
// per tool, and returns every execution result in the order the calls were
// originally submitted within their batch.
func (o *Orchestrator) Run(ctx context.Context, calls []models.ToolCall) *models.OrchestrationResult {
	start := time.Now()
	result := &models.OrchestrationResult{
		Success: true,
		Results: make(map[string]models.ToolResult),
		Errors:  make(map[string]string),
	}

	batches := o.Plan(calls)
	if len(batches) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.run",
		trace.WithAttributes(attribute.Int("aqagent.batch_count", len(batches)), attribute.Int("aqagent.call_count", len(calls))))
	defer span.End()

	for i, batch := range batches {
		batchCtx, batchSpan := o.tracer.Start(ctx, "orchestrator.batch", trace.WithAttributes(attribute.Int("aqagent.batch_index", i), attribute.Int("aqagent.batch_size", len(batch))))

		runnable := make([]models.ToolCall, 0, len(batch))
		for _, c := range batch {
			if o.available(c.Name) {
				runnable = append(runnable, c)
				continue
			}
			result.Errors[c.ID] = "circuit open for tool " + c.Name
			result.Results[c.ID] = models.ToolResult{ToolCallID: c.ID, ToolName: c.Name, Content: "tool temporarily unavailable: " + c.Name, IsError: true}
			result.Success = false
		}

		execResults := o.config.Executor.ExecuteAll(batchCtx, runnable)
		for j, er := range execResults {
			call := runnable[j]
			_, callSpan := o.tracer.Start(batchCtx, "orchestrator.tool_call", trace.WithAttributes(
				attribute.String("aqagent.tool_name", call.Name),
				attribute.Int("aqagent.priority", call.Priority),
			))

			if er.Error != nil {
				o.recordFailure(call.Name)
				result.Errors[call.ID] = er.Error.Error()
				result.Results[call.ID] = models.ToolResult{ToolCallID: call.ID, ToolName: call.Name, Content: er.Error.Error(), IsError: true}
				result.Success = false
				callSpan.SetAttributes(attribute.Bool("aqagent.error", true))
			} else {
				o.recordSuccess(call.Name)
				if er.Result != nil {
					result.Results[call.ID] = models.ToolResult{
						ToolCallID: call.ID,
						ToolName:   call.Name,
						Content:    er.Result.Content,
						IsError:    er.Result.IsError,
					}
				}
				result.ToolsUsed = append(result.ToolsUsed, call.Name)
			}
			callSpan.End()
		}

		batchSpan.End()
	}

	result.Duration = time.Since(start)
	result.ContextInjection = BuildContextInjection(result)
	return result
}

func (o *Orchestrator) getOrCreateState(name string) *models.CircuitBreakerState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.states[name]; ok {
		return s
	}
	s := &models.CircuitBreakerState{ToolName: name}
	o.states[name] = s
	return s
}

func (o *Orchestrator) available(name string) bool {
	s := o.getOrCreateState(name)
	o.mu.Lock()
	defer o.mu.Unlock()
	if s.IsAvailable(o.config.CircuitBreakerThreshold, o.config.CircuitBreakerCooldown) {
		if s.Open && time.Since(s.OpenedAt) >= o.config.CircuitBreakerCooldown {
			s.Open = false
			s.Failures = 0
		}
		return true
	}
	return false
}

func (o *Orchestrator) recordSuccess(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.states[name]
	if s == nil {
		return
	}
	s.Failures = 0
	s.Open = false
}

func (o *Orchestrator) recordFailure(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.states[name]
	if s == nil {
		s = &models.CircuitBreakerState{ToolName: name}
		o.states[name] = s
	}
	s.Failures++
	s.LastFailure = time.Now()
	if s.Failures >= o.config.CircuitBreakerThreshold && !s.Open {
		s.Open = true
		s.OpenedAt = time.Now()
	}
}

// States returns a snapshot of every tool's circuit breaker state.
func (o *Orchestrator) States() []models.CircuitBreakerState {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.CircuitBreakerState, 0, len(o.states))
	for _, s := range o.states {
		out = append(out, *s)
	}
	return out
}

// ResetCircuitBreaker clears the breaker for a single tool, e.g. after an
// operator confirms the upstream dependency recovered.
func (o *Orchestrator) ResetCircuitBreaker(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.states[name]; ok {
		s.Failures = 0
		s.Open = false
	}
}
