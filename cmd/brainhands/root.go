package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ashutoshrp06/brainhands/internal/config"
	"github.com/ashutoshrp06/brainhands/internal/ui"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath  string
	verbose     bool
	interactive bool
)

var rootCmd = &cobra.Command{
	Use:   "brainhands [query]",
	Short: "Tool-using AI assistant",
	Long: `
██████╗ ██████╗  █████╗ ██╗███╗   ██╗██╗  ██╗ █████╗ ███╗   ██╗██████╗ ███████╗
██╔══██╗██╔══██╗██╔══██╗██║████╗  ██║██║  ██║██╔══██╗████╗  ██║██╔══██╗██╔════╝
██████╔╝██████╔╝███████║██║██╔██╗ ██║███████║███████║██╔██╗ ██║██║  ██║███████╗
██╔══██╗██╔══██╗██╔══██║██║██║╚██╗██║██╔══██║██╔══██║██║╚██╗██║██║  ██║╚════██║
██████╔╝██║  ██║██║  ██║██║██║ ╚████║██║  ██║██║  ██║██║ ╚████║██████╔╝███████║
╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═══╝╚═════╝ ╚══════╝

  An assistant that thinks one step at a time and uses tools to act:
  calculator, web search, page reading, and a personal finance ledger.

Usage:
  brainhands "What is 18% of 240?"
  brainhands --it`,

	Run: func(cmd *cobra.Command, args []string) {
		if interactive {
			runInteractive()
			return
		}
		if len(args) > 0 {
			runOneShot(args)
			return
		}
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&interactive, "it", false, "Start interactive mode")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(versionCmd)
}

func runInteractive() {
	a := initApp(true)
	defer a.Close()

	if err := ui.Run(a.conversation(), a.allowedToolNames()); err != nil {
		printError("UI failed", err)
		os.Exit(1)
	}
}

func runOneShot(args []string) {
	query := strings.Join(args, " ")
	a := initApp(true)
	defer a.Close()

	res := ui.RunOneShot(context.Background(), os.Stdout, a.conversation(), query)
	if !res.Success {
		a.Close()
		os.Exit(1)
	}
}

// initApp loads config and wires the runtime. With checkLLM set it also
// verifies a local model server is reachable.
func initApp(checkLLM bool) *app {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Printf("Warning: Could not load config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	logger := createLogger()

	a, err := newApp(cfg, logger)
	if err != nil {
		printError("Failed to initialize", err)
		os.Exit(1)
	}

	if checkLLM && a.ollama != nil {
		fmt.Print(lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Render("Connecting to LLM... "))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.ping(ctx); err != nil {
			cancel()
			fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Render("✗"))
			fmt.Println()
			printConnectionHelp(cfg)
			a.Close()
			os.Exit(1)
		}
		cancel()
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Render("✓"))
		fmt.Printf("Using model: %s\n", cfg.LLM.Model)
	}

	return a
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadFromPaths(config.SearchPaths()...)
}

func createLogger() *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

func printError(msg string, err error) {
	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).
		Render(fmt.Sprintf("Error: %s: %v", msg, err)))
}

func printConnectionHelp(cfg *config.Config) {
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	cmdStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	fmt.Println(errStyle.Render("Could not connect to LLM at " + cfg.LLM.Endpoint))
	fmt.Println()
	fmt.Println(helpStyle.Render("Make sure Ollama is running:"))
	fmt.Println(cmdStyle.Render("  ollama serve"))
	fmt.Println()
	fmt.Println(helpStyle.Render("And pull the configured model:"))
	fmt.Println(cmdStyle.Render("  ollama pull " + cfg.LLM.Model))
	fmt.Println()
	fmt.Println(helpStyle.Render("Or configure a different endpoint:"))
	fmt.Println(cmdStyle.Render("  Edit config.yaml and set llm.endpoint"))
}
