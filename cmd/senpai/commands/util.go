package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a855f7"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#c084fc")).Width(12)
)

// request is the YAML request accepted by -f. Each workflow reads the
// fields it needs.
type request struct {
	Prompt string `yaml:"prompt"`
	Text   string `yaml:"text"`
	Source string `yaml:"source"`
	Voice  string `yaml:"voice"`
	System string `yaml:"system"`
	Kind   string `yaml:"kind"`
}

// loadRequest loads a request file into v.
func loadRequest(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read request file: %w", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse request file: %w", err)
	}
	return nil
}

// printSuccess prints a success message
func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// printError prints an error message
func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, errorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// printInfo prints an info message
func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, infoStyle.Render(fmt.Sprintf(format, args...)))
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintln(w, labelStyle.Render(label)+value)
}

func argText(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
