package functions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(ds []types.ToolDescriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.AgentID)
	}
	return out
}

func TestDefaultCatalogue(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	for _, name := range []string{"calculator", "search_web", "read_webpage", "add_transaction", "get_budgets"} {
		d, ok := r.Describe(name)
		require.True(t, ok, "missing %s", name)
		assert.NotEmpty(t, d.Description)
	}

	calc, _ := r.Describe("calculator")
	assert.Equal(t, "string", calc.InputFormat["expression"])
}

func TestListTools_AlwaysIncludesTerminalTools(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name    string
		allowed types.ToolSet
		want    []string
	}{
		{"nil allow-list", nil, []string{"clarify", "answerUser"}},
		{"empty allow-list", types.NewToolSet(), []string{"clarify", "answerUser"}},
		{"unknown names ignored", types.NewToolSet("teleport"), []string{"clarify", "answerUser"}},
		{
			"catalogue order preserved",
			types.NewToolSet("search_web", "calculator"),
			[]string{"clarify", "answerUser", "calculator", "search_web"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(r.ListTools(tt.allowed)))
		})
	}
}

func TestDescribe_TerminalAndMissing(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	d, ok := r.Describe("answerUser")
	require.True(t, ok)
	assert.Equal(t, "string", d.InputFormat["answer"])

	_, ok = r.Describe("nope")
	assert.False(t, ok)
}

func TestNew_RejectsBadDescriptors(t *testing.T) {
	_, err := New(types.ToolDescriptor{})
	assert.Error(t, err)

	_, err = New(types.ToolDescriptor{AgentID: "clarify"})
	assert.Error(t, err)

	_, err = New(types.ToolDescriptor{AgentID: "a"}, types.ToolDescriptor{AgentID: "a"})
	assert.Error(t, err)
}

func TestLoadRegistry_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	data := []byte(`tools:
  - agent_id: weather
    category: research
    description: Current weather for a city
    input_format:
      city: string
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"weather"}, r.List())
	assert.Equal(t, "research", r.Category("weather"))
	assert.Equal(t, "general", r.Category("missing"))

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
