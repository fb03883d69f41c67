// Package tools provides the tool implementations the Hands dispatch to.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ashutoshrp06/brainhands/internal/types"
)

// Output is the raw result of a tool implementation before the executor
// wraps it into a types.ToolResult.
type Output struct {
	Success bool
	Message string
	Data    map[string]any
}

// Tool defines the interface that all tools must implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Execute runs the tool. A nil Output with a nil error is an invalid result.
	Execute(ctx context.Context, params map[string]any, ec *types.ExecutionContext) (*Output, error)
}

// Provider is a named set of tool implementations.
type Provider interface {
	Name() string
	Lookup(name string) (Tool, bool)
}

// Registry manages tool registration and lookup. It is a Provider.
type Registry struct {
	name  string
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a new, empty tool registry.
func NewRegistry(name string) *Registry {
	return &Registry{
		name:  name,
		tools: make(map[string]Tool),
	}
}

// Name returns the provider name.
func (r *Registry) Name() string { return r.name }

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}

	r.tools[name] = tool
	return nil
}

// MustRegister adds a tool to the registry, panicking on error.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		panic(err)
	}
}

// Lookup retrieves a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chain queries providers in priority order.
type Chain []Provider

// Resolve returns the first implementation of name and the provider it came from.
func (c Chain) Resolve(name string) (Tool, string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if t, ok := p.Lookup(name); ok {
			return t, p.Name(), true
		}
	}
	return nil, "", false
}

// Func adapts a function to the Tool interface.
type Func struct {
	ToolName string
	Fn       func(ctx context.Context, params map[string]any, ec *types.ExecutionContext) (*Output, error)
}

func (f Func) Name() string { return f.ToolName }

func (f Func) Execute(ctx context.Context, params map[string]any, ec *types.ExecutionContext) (*Output, error) {
	return f.Fn(ctx, params, ec)
}
