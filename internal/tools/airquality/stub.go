// Package airquality implements the stub adapters for the air-quality and
// weather tool set named in spec §4.4. Each tool validates its arguments
// against a declared JSON Schema (github.com/santhosh-tekuri/jsonschema/v5,
// kept from the teacher's pluginsdk.ValidateConfig usage path) and returns a
// realistic, deterministic mock payload derived from the input — no real
// network calls are made; real API clients are out of scope per spec §1.
package airquality

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/aqagent/aqagent/internal/agent"
)

// generatorFunc builds the mock response body for a validated call.
type generatorFunc func(params map[string]any) (string, error)

// StubTool is a generic jsonschema-validated mock tool adapter. Concrete
// tools are built by NewStubTool with their own name/description/schema/
// generator — the validate-then-generate shape is identical across all
// nine stubs, so it is factored once rather than copy-pasted nine times.
type StubTool struct {
	name        string
	description string
	schemaJSON  json.RawMessage
	schema      *jsonschema.Schema
	generate    generatorFunc
}

// NewStubTool compiles schemaJSON at construction time — a malformed schema
// fails at startup registration, not at the first call — and returns a Tool
// ready for ToolRegistry.Register.
func NewStubTool(name, description string, schemaJSON json.RawMessage, gen generatorFunc) *StubTool {
	compiled, err := jsonschema.CompileString(name+".schema.json", string(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("airquality: invalid schema for tool %s: %v", name, err))
	}
	return &StubTool{
		name:        name,
		description: description,
		schemaJSON:  schemaJSON,
		schema:      compiled,
		generate:    gen,
	}
}

func (t *StubTool) Name() string           { return t.name }
func (t *StubTool) Description() string    { return t.description }
func (t *StubTool) Schema() json.RawMessage { return t.schemaJSON }

// Execute validates params against the tool's schema, then runs its
// generator. Schema violations and generator errors both come back as
// IsError results rather than Go errors, matching the Tool.Execute contract
// documented in provider_types.go (the Orchestrator treats the Go error
// return as a transport/infra failure eligible for retry, not a semantic
// one).
func (t *StubTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var decoded any
	if len(params) == 0 {
		decoded = map[string]any{}
	} else if err := json.Unmarshal(params, &decoded); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid JSON parameters: %v", err), IsError: true}, nil
	}

	if err := t.schema.Validate(decoded); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("parameters failed schema validation: %v", err), IsError: true}, nil
	}

	asMap, _ := decoded.(map[string]any)
	content, err := t.generate(asMap)
	if err != nil {
		return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	return &agent.ToolResult{Content: content}, nil
}

// seedHash derives a stable uint32 from arbitrary input text so mock
// responses are deterministic per-input (same city always yields the same
// pseudo-AQI) without reaching for math/rand's global, time-seeded state.
func seedHash(parts ...string) uint32 {
	h := fnv.New32a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum32()
}

// rangeFromSeed maps a seed into [min, max).
func rangeFromSeed(seed uint32, min, max float64) float64 {
	if max <= min {
		return min
	}
	frac := float64(seed%10000) / 10000.0
	return min + frac*(max-min)
}

func stringParam(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func floatParam(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m[key].(float64)
	return v, ok
}
