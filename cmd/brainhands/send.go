package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ashutoshrp06/brainhands/internal/compat"
	ctxmgr "github.com/ashutoshrp06/brainhands/internal/context"
	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/ashutoshrp06/brainhands/pkg/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	sendSession    string
	sendLegacy     bool
	sendAgentMode  bool
	sendNoFallback bool
	sendCharacter  string
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send a message through the legacy chat interface",
	Long: `Send a message the way existing chat clients do: with a flat
history of user/model messages, returning a single reply.

The message history is read from and appended to the local history
store, so repeated sends with the same --session continue a chat.

Examples:
  brainhands send --session groceries "I spent 30 on vegetables"
  brainhands send --session groceries "How much have I spent on food?"
  brainhands send --legacy "What is 7 * 6?"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSend(strings.Join(args, " "))
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendSession, "session", "", "History session to continue (a new one is created when empty)")
	sendCmd.Flags().BoolVar(&sendLegacy, "legacy", false, "Use the single-shot path instead of the agent loop")
	sendCmd.Flags().BoolVar(&sendAgentMode, "agent-mode", true, "Let the assistant call tools")
	sendCmd.Flags().BoolVar(&sendNoFallback, "no-fallback", false, "Do not fall back to the single-shot path when the agent fails")
	sendCmd.Flags().StringVar(&sendCharacter, "character", "", "Character id recorded with each message")
}

func runSend(text string) {
	a := initApp(false)
	defer a.Close()

	ctx := context.Background()
	toolStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	sessionID := sendSession
	if sessionID == "" {
		id, err := a.history.NewSession(ctx, truncate(text, 40))
		if err != nil {
			printError("create session", err)
			return
		}
		sessionID = id
	}

	stored, err := a.history.Messages(ctx, sessionID, 0)
	if err != nil {
		printError("read history", err)
		return
	}
	window := ctxmgr.NewManager(a.cfg.Conversation.MaxMessages)
	for _, m := range stored {
		window.AddMessage(m)
	}

	flags := compat.Flags{
		UseNewAgentSystem: a.cfg.Features.UseNewAgentSystem && !sendLegacy,
		EnableFallback:    a.cfg.Features.EnableFallback && !sendNoFallback,
	}

	reply, err := a.shim.SendMessage(ctx, compat.Request{
		APIKey:          a.apiKey(),
		ModelName:       a.cfg.LLM.Model,
		HistoryMessages: window.GetMessages(),
		NewMessageText:  text,
		IsAgentMode:     sendAgentMode,
		TavilyAPIKey:    a.cfg.Tools.TavilyAPIKey,
		Finance:         a.ledger,
		AllowedTools:    a.cfg.Tools.Allowed,
		OnToolCall: func(calls models.ToolCallsRequired) {
			for _, c := range calls.ToolsRequired {
				fmt.Println(toolStyle.Render("→ " + c.ToolName))
			}
		},
	}, flags)

	now := types.NowMillis()
	msgs := []models.LegacyMessage{{Role: models.RoleUser, Text: text, Ts: now, CharacterID: sendCharacter}}
	if err != nil {
		msgs = append(msgs, models.LegacyMessage{Role: models.RoleModel, Text: err.Error(), Ts: types.NowMillis(), CharacterID: sendCharacter, Error: true})
	} else {
		msgs = append(msgs, models.LegacyMessage{Role: models.RoleModel, Text: reply, Ts: types.NowMillis(), CharacterID: sendCharacter})
	}
	if perr := a.history.Append(ctx, sessionID, msgs...); perr != nil {
		printError("save history", perr)
	}

	if err != nil {
		printError("send failed", err)
		a.Close()
		os.Exit(1)
	}

	fmt.Println(reply)
	fmt.Println(dimStyle.Render("session " + sessionID))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
