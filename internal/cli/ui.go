package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// stdout receives all status output. Artifacts written with -o - go to
// os.Stdout directly; commands that do so print no status lines.
var stdout io.Writer = os.Stdout

// Palette. ANSI 256 codes so output looks the same on light and dark themes.
var (
	colorCyan   = lipgloss.Color("37")
	colorGreen  = lipgloss.Color("71")
	colorYellow = lipgloss.Color("178")
	colorRed    = lipgloss.Color("160")
	colorBlue   = lipgloss.Color("68")
	colorWhite  = lipgloss.Color("252")
	colorGray   = lipgloss.Color("246")
	colorDim    = lipgloss.Color("241")
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

// Styles shared by the commands and the inspector.
var (
	StyleTitle     = fg(colorCyan).Bold(true)
	StyleHighlight = fg(colorCyan)
	StyleNumber    = fg(colorCyan)
	StyleLink      = fg(colorBlue).Underline(true)
	StyleValue     = fg(colorWhite)
	StyleDim       = fg(colorDim)
	StyleSuccess   = fg(colorGreen)
	StyleWarning   = fg(colorYellow)

	styleIconError   = fg(colorRed).Bold(true)
	styleIconSpinner = fg(colorCyan)
	styleKey         = fg(colorGray).Width(12)
	styleCommand     = fg(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
	iconEmpty   = "—" // absent attachment or empty surface form
)

// statusLine prints one "<icon> <message>" line.
func statusLine(icon string, iconStyle, msgStyle lipgloss.Style, format string, args []any) {
	fmt.Fprintf(stdout, "%s %s\n", iconStyle.Render(icon), msgStyle.Render(fmt.Sprintf(format, args...)))
}

var styleNone = lipgloss.NewStyle()

func printSuccess(format string, args ...any) {
	statusLine(iconSuccess, StyleSuccess, styleNone, format, args)
}

func printError(format string, args ...any) {
	statusLine(iconError, styleIconError, styleNone, format, args)
}

func printWarning(format string, args ...any) {
	statusLine(iconWarning, StyleWarning, StyleWarning, format, args)
}

func printInfo(format string, args ...any) {
	statusLine(iconInfo, fg(colorGray), styleNone, format, args)
}

// printDetail prints a muted, indented line under a status line.
func printDetail(format string, args ...any) {
	fmt.Fprintf(stdout, "  %s\n", StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile reports a written output file.
func printFile(path string) {
	fmt.Fprintf(stdout, "  %s %s\n", StyleDim.Render(iconArrow), StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintf(stdout, "%s %s\n", styleKey.Render(key), StyleValue.Render(value))
}

// printStats prints diagram statistics on a single line, e.g.
// "5 units · 28 nodes · 31 edges · fresh". Zero counts are left out.
func printStats(units, nodes, edges int, cached bool) {
	var parts []string
	for _, p := range []struct {
		n    int
		noun string
	}{{units, "units"}, {nodes, "nodes"}, {edges, "edges"}} {
		if p.n > 0 {
			parts = append(parts, StyleDim.Render(fmt.Sprintf("%d %s", p.n, p.noun)))
		}
	}
	if cached {
		parts = append(parts, StyleSuccess.Render(iconCached))
	} else {
		parts = append(parts, fg(colorGray).Render(iconFresh))
	}
	fmt.Fprintf(stdout, "  %s\n", strings.Join(parts, StyleDim.Render(" · ")))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintf(stdout, "%s %s\n", StyleDim.Render(description+":"), styleCommand.Render(cmd))
}

func printNewline() { fmt.Fprintln(stdout) }
