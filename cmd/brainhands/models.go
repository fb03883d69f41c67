package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models on the local Ollama server",
	Long: `List the models installed on the configured Ollama server.

Only available when llm.provider is "ollama".`,
	Run: func(cmd *cobra.Command, args []string) {
		runModels()
	},
}

func runModels() {
	a := initApp(false)
	defer a.Close()

	if a.ollama == nil {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).
			Render("llm.provider is " + a.cfg.LLM.Provider + "; set it to ollama to list local models."))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	names, err := a.ollama.ListModels(ctx)
	if err != nil {
		printConnectionHelp(a.cfg)
		return
	}

	active := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	for _, n := range names {
		if n == a.cfg.LLM.Model {
			fmt.Println(active.Render("* " + n))
			continue
		}
		fmt.Println("  " + n)
	}
}
