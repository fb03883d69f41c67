package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List saved chats or show one",
	Long: `Without arguments, list the saved chat sessions. With a session id,
print its messages.

Examples:
  brainhands history
  brainhands history 4f1c... --limit 20
  brainhands history clear 4f1c...`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			listSessions()
			return
		}
		showSession(args[0])
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear [session-id]",
	Short: "Delete a saved chat",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := initApp(false)
		defer a.Close()
		if err := a.history.Clear(context.Background(), args[0]); err != nil {
			printError("clear session", err)
			return
		}
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Render("Cleared " + args[0]))
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show only the last N messages")
	historyCmd.AddCommand(historyClearCmd)
}

func listSessions() {
	a := initApp(false)
	defer a.Close()

	idStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	sessions, err := a.history.Sessions(context.Background())
	if err != nil {
		printError("list sessions", err)
		return
	}
	if len(sessions) == 0 {
		fmt.Println(dimStyle.Render("No saved chats."))
		return
	}
	for _, s := range sessions {
		fmt.Printf("%s  %s %s\n",
			idStyle.Render(s.ID),
			s.Title,
			dimStyle.Render(fmt.Sprintf("(%d messages, %s)", s.Messages, s.CreatedAt.Format(time.DateTime))))
	}
}

func showSession(id string) {
	a := initApp(false)
	defer a.Close()

	userStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	modelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	msgs, err := a.history.Messages(context.Background(), id, historyLimit)
	if err != nil {
		printError("read session", err)
		return
	}
	for _, m := range msgs {
		ts := dimStyle.Render(time.UnixMilli(m.Ts).Format(time.TimeOnly))
		switch {
		case m.Error:
			fmt.Printf("%s %s\n", ts, errStyle.Render(m.Text))
		case m.Role == "user":
			fmt.Printf("%s %s\n", ts, userStyle.Render("You: ")+m.Text)
		default:
			fmt.Printf("%s %s\n", ts, modelStyle.Render(m.Text))
		}
	}
}
