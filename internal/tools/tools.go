// Package tools wraps C4/C5/C7/C3 as the fixed set of tools the LLM
// dispatcher (C9) can call (C8). Every tool executes under the calling
// user's identity, passed by the dispatcher as an explicit caller
// parameter — never taken from a tool argument — so the model cannot
// escalate or impersonate.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
)

// Descriptor is a callable tool's schema and human description, shaped so
// it can be embedded verbatim in the LLM system context (§4.8).
type Descriptor struct {
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	ParameterSchema map[string]interface{} `json:"parameter_schema"`
}

// Handler executes one tool call under caller's identity (the username
// C10's auth middleware resolved, passed in by the dispatcher), given the
// raw JSON arguments the model emitted.
type Handler func(ctx context.Context, caller string, args json.RawMessage) (interface{}, error)

// Tool pairs a Descriptor with its Handler.
type Tool struct {
	Descriptor Descriptor
	Handler    Handler
}

// Registry is the closed, startup-built set of callable tools.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds an empty Registry; callers Register each of the four
// fixed tools (§4.8) during service wiring.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t to the registry. Registering the same name twice
// overwrites the order-preserving slot with the new handler but keeps the
// original order position — used only during startup wiring, never at
// request time.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Descriptor.Name]; !exists {
		r.order = append(r.order, t.Descriptor.Name)
	}
	r.tools[t.Descriptor.Name] = t
}

// Descriptors returns every registered tool's Descriptor, in registration
// order, for embedding in the LLM system context.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Descriptor)
	}
	return out
}

// Dispatch validates args against name's schema and executes it under
// caller's identity.
func (r *Registry) Dispatch(ctx context.Context, caller, name string, args json.RawMessage) (interface{}, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, errors.InvalidParams(fmt.Sprintf("unknown tool %q", name))
	}
	if err := validateStructurally(t.Descriptor.ParameterSchema, args); err != nil {
		return nil, err
	}
	return t.Handler(ctx, caller, args)
}
