package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/naoray/hubber/internal/labels"
)

var (
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// SetOutput redirects the printers. A nil writer leaves its stream unchanged.
func SetOutput(stdout, stderr io.Writer) {
	if stdout != nil {
		out = stdout
	}
	if stderr != nil {
		errOut = stderr
	}
}

func PrintSuccess(format string, args ...any) {
	fmt.Fprintln(out, successStyle.Render("✓ ")+fmt.Sprintf(format, args...))
}

func PrintInfo(format string, args ...any) {
	fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf(format, args...)))
}

func PrintWarning(format string, args ...any) {
	fmt.Fprintln(errOut, warningStyle.Render("! ")+fmt.Sprintf(format, args...))
}

func PrintError(err error) {
	fmt.Fprintln(errOut, errorStyle.Render("✗ ")+err.Error())
}

func PrintMuted(format string, args ...any) {
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

func PrintHeader(title string) {
	fmt.Fprintln(out, headerStyle.Render(title))
}

// PrintDone prints the closing line of a command.
func PrintDone() {
	fmt.Fprintln(out, successStyle.Render("Done!"))
}

// Swatch renders the label name on a background of its own color.
func Swatch(label labels.Label) string {
	color := strings.TrimPrefix(label.Color, "#")
	if !labels.IsValidColor(color) {
		return label.Name
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color("#" + color)).
		Foreground(lipgloss.Color(contrastColor(color))).
		Padding(0, 1).
		Render(label.Name)
}

// Swatches renders set as space separated swatches.
func Swatches(set []labels.Label) string {
	rendered := make([]string, len(set))
	for i, l := range set {
		rendered[i] = Swatch(l)
	}
	return strings.Join(rendered, " ")
}

// PrintLabels prints one label per line with its description.
func PrintLabels(set []labels.Label) {
	for _, l := range set {
		line := Swatch(l)
		if l.Description != "" {
			line += " " + mutedStyle.Render(l.Description)
		}
		fmt.Fprintln(out, line)
	}
}

// contrastColor picks black or white text for a hex background.
func contrastColor(hex string) string {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return "#000000"
	}
	r := float64(rgb >> 16 & 0xff)
	g := float64(rgb >> 8 & 0xff)
	b := float64(rgb & 0xff)
	if 0.299*r+0.587*g+0.114*b > 150 {
		return "#000000"
	}
	return "#ffffff"
}
