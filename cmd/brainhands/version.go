package main

import (
	"fmt"
	"runtime"

	"github.com/ashutoshrp06/brainhands/internal/functions"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.Version=...".
var (
	Version   = "0.1.0"
	GitCommit = "dev"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}

func printVersion() {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))

	rows := [][2]string{
		{"Version:", Version},
		{"Git Commit:", GitCommit},
		{"Build Date:", BuildDate},
		{"Go Version:", runtime.Version()},
		{"Platform:", runtime.GOOS + "/" + runtime.GOARCH},
	}
	if reg, err := functions.Default(); err == nil {
		rows = append(rows, [2]string{"Built-in tools:", fmt.Sprint(len(reg.All()))})
	}

	fmt.Println(title.Render("brainhands"))
	fmt.Println()
	for _, r := range rows {
		fmt.Printf("%s %s\n", label.Render(r[0]), value.Render(r[1]))
	}
}
