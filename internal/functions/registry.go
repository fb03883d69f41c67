// Package functions loads the static tool catalogue the Brain chooses from.
package functions

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/ashutoshrp06/brainhands/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Registry is an immutable, ordered catalogue of tool descriptors.
type Registry struct {
	tools []types.ToolDescriptor
	index map[string]int
}

// Default returns the catalogue compiled into the binary.
func Default() (*Registry, error) {
	return Parse(defaultCatalog)
}

// LoadRegistry reads a catalogue from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse builds a registry from YAML catalogue bytes.
func Parse(data []byte) (*Registry, error) {
	var catalog struct {
		Tools []types.ToolDescriptor `yaml:"tools"`
	}
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	return New(catalog.Tools...)
}

// New builds a registry from descriptors, preserving their order.
func New(descriptors ...types.ToolDescriptor) (*Registry, error) {
	r := &Registry{
		tools: make([]types.ToolDescriptor, 0, len(descriptors)),
		index: make(map[string]int, len(descriptors)),
	}
	for _, d := range descriptors {
		if d.AgentID == "" {
			return nil, fmt.Errorf("tool descriptor without agent_id")
		}
		if types.IsTerminalTool(d.AgentID) {
			return nil, fmt.Errorf("tool name %q is reserved", d.AgentID)
		}
		if _, dup := r.index[d.AgentID]; dup {
			return nil, fmt.Errorf("tool already registered: %s", d.AgentID)
		}
		r.index[d.AgentID] = len(r.tools)
		r.tools = append(r.tools, d)
	}
	return r, nil
}

// Describe returns the descriptor for name, including the terminal tools.
func (r *Registry) Describe(name string) (types.ToolDescriptor, bool) {
	if d, ok := terminalDescriptor(name); ok {
		return d, true
	}
	i, ok := r.index[name]
	if !ok {
		return types.ToolDescriptor{}, false
	}
	return r.tools[i], true
}

// ListTools returns the terminal tools followed by every catalogued tool
// whose name is in allowed, in catalogue order.
func (r *Registry) ListTools(allowed types.ToolSet) []types.ToolDescriptor {
	out := TerminalDescriptors()
	for _, d := range r.tools {
		if allowed.Has(d.AgentID) {
			out = append(out, d)
		}
	}
	return out
}

// All returns every catalogued tool, excluding the terminal tools.
func (r *Registry) All() []types.ToolDescriptor {
	out := make([]types.ToolDescriptor, len(r.tools))
	copy(out, r.tools)
	return out
}

// List returns the names of all catalogued tools, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.tools))
	for _, d := range r.tools {
		names = append(names, d.AgentID)
	}
	sort.Strings(names)
	return names
}

// Category returns the declared category of a tool, or "general".
func (r *Registry) Category(name string) string {
	if d, ok := r.Describe(name); ok && d.Category != "" {
		return d.Category
	}
	return "general"
}
