package main

import (
	"fmt"
	"sort"

	"github.com/ashutoshrp06/brainhands/internal/config"
	"github.com/ashutoshrp06/brainhands/internal/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List available tools",
	Long: `List the tools the assistant may call.

Tools marked "enabled" are in tools.allowed; answerUser and clarify are
always available because they end the assistant's reasoning.

Examples:
  brainhands tools           # List all tools
  brainhands tools --verbose # Show inputs and outputs`,
	Run: func(cmd *cobra.Command, args []string) {
		runToolsList()
	},
}

func runToolsList() {
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7C3AED")).
		Bold(true)

	toolStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9CA3AF"))

	paramStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#06B6D4"))

	categoryStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	cfg, err := loadConfig()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	registry, err := loadCatalogue(cfg.Tools.CatalogPath)
	if err != nil {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).
			Render(fmt.Sprintf("Failed to load tools: %v", err)))
		return
	}
	allowed := types.NewToolSet(cfg.Tools.Allowed...)

	fmt.Println(headerStyle.Render("Available Tools"))
	fmt.Println()

	categories := make(map[string][]types.ToolDescriptor)
	for _, d := range registry.All() {
		categories[d.Category] = append(categories[d.Category], d)
	}
	names := make([]string, 0, len(categories))
	for c := range categories {
		names = append(names, c)
	}
	sort.Strings(names)

	for _, category := range names {
		fmt.Printf("  %s\n", categoryStyle.Render(category))

		for _, d := range categories[category] {
			status := ""
			if types.IsTerminalTool(d.AgentID) || allowed.Has(d.AgentID) {
				status = descStyle.Render(" (enabled)")
			}
			fmt.Printf("    %s%s\n", toolStyle.Render(d.AgentID), status)
			fmt.Printf("      %s\n", descStyle.Render(d.Description))

			if verbose && len(d.InputFormat) > 0 {
				fmt.Println("      Input:")
				for _, k := range sortedKeys(d.InputFormat) {
					fmt.Printf("        %s %s\n", paramStyle.Render(k), descStyle.Render(d.InputFormat[k]))
				}
			}
			if verbose && len(d.OutputFormat) > 0 {
				fmt.Println("      Output:")
				for _, k := range sortedKeys(d.OutputFormat) {
					fmt.Printf("        %s %s\n", paramStyle.Render(k), descStyle.Render(d.OutputFormat[k]))
				}
			}
		}
		fmt.Println()
	}

	fmt.Println(descStyle.Render(fmt.Sprintf("  Total: %d tools available", len(registry.All()))))

	if !verbose {
		fmt.Println(descStyle.Render("  Use --verbose for input and output details"))
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
