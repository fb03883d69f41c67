package main

import (
	"fmt"
	"os"

	"github.com/ashutoshrp06/brainhands/internal/config"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit configuration",
	Long:  "View current configuration or create a default config file.",
	Run:   runConfig,
}

var (
	configInit bool
	configShow bool
)

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Create default config file")
	configCmd.Flags().BoolVar(&configShow, "show", true, "Show current configuration")
}

func runConfig(cmd *cobra.Command, args []string) {
	if configInit {
		initConfig()
		return
	}

	if configShow {
		showConfig()
	}
}

func initConfig() {
	if _, err := os.Stat("config.yaml"); err == nil {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).
			Render("config.yaml already exists. Use --show to view it."))
		return
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save("config.yaml"); err != nil {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).
			Render(fmt.Sprintf("Failed to create config: %v", err)))
		os.Exit(1)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).
		Render("Created config.yaml with default settings."))
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - LLM provider, endpoint, model and API key")
	fmt.Println("  - Agent iteration budget and timeouts")
	fmt.Println("  - Allowed tools and the web search key")
	fmt.Println("  - Storage directory and persona")
	fmt.Println("\nAny key can also be set from the environment, e.g. BRAINHANDS_LLM_API_KEY.")
}

func showConfig() {
	cfg, err := loadConfig()
	if err != nil {
		cfg = config.DefaultConfig()
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).
			Render(fmt.Sprintf("Could not load config (%v). Showing defaults:\n", err)))
	} else {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true).
			Render("Current Configuration:\n"))
	}

	shown := *cfg
	if shown.LLM.APIKey != "" {
		shown.LLM.APIKey = "********"
	}
	if shown.Tools.TavilyAPIKey != "" {
		shown.Tools.TavilyAPIKey = "********"
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println(string(data))

	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).
		Render("\nConfig file locations (in order of precedence):"))
	for i, p := range config.SearchPaths() {
		fmt.Printf("  %d. %s\n", i+1, p)
	}
}
