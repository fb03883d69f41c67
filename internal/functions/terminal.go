package functions

import "github.com/ashutoshrp06/brainhands/internal/types"

var (
	clarifyDescriptor = types.ToolDescriptor{
		AgentID:      types.ToolClarify,
		Description:  "Ask the user a clarifying question when the request is ambiguous or missing information.",
		Category:     "terminal",
		Capabilities: []string{"clarification"},
		InputFormat:  map[string]string{"question": "string"},
		OutputFormat: map[string]string{"type": "string", "question": "string", "requiresUserResponse": "boolean"},
	}

	answerUserDescriptor = types.ToolDescriptor{
		AgentID:      types.ToolAnswerUser,
		Description:  "Give the final answer to the user. Use this once you have everything you need.",
		Category:     "terminal",
		Capabilities: []string{"final_answer"},
		InputFormat:  map[string]string{"answer": "string"},
		OutputFormat: map[string]string{"type": "string", "answer": "string", "isComplete": "boolean"},
	}
)

// TerminalDescriptors returns fresh copies of the two terminal tool descriptors.
func TerminalDescriptors() []types.ToolDescriptor {
	return []types.ToolDescriptor{clarifyDescriptor, answerUserDescriptor}
}

func terminalDescriptor(name string) (types.ToolDescriptor, bool) {
	switch name {
	case types.ToolClarify:
		return clarifyDescriptor, true
	case types.ToolAnswerUser:
		return answerUserDescriptor, true
	}
	return types.ToolDescriptor{}, false
}
