package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clausetree/pkg/clause"
	"github.com/matzehuels/clausetree/pkg/pipeline"
)

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var (
		inputFmt string
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a clause description and summarize its diagram",
		Long: `Validate a clause description without rendering it.

Check decodes the description, resolves its head and builds the diagram. On
success it prints a table of units and the node, edge and rank counts; on
failure it reports the offending unit and field and exits non-zero.`,
		Example: `  clausetree check sentence.json
  clausetree check -q sentence.toml && echo ok`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), args[0], inputFmt, quiet)
		},
	}

	cmd.Flags().StringVarP(&inputFmt, "input-format", "i", "", "input format: json, toml (default: from extension)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print nothing on success")
	return cmd
}

func (c *CLI) runCheck(ctx context.Context, input, inputFmt string, quiet bool) error {
	format, err := inputFormat(input, inputFmt)
	if err != nil {
		return err
	}
	data, err := readInput(input)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		InputFormat: format,
		Formats:     []string{pipeline.FormatDOT},
		NoRender:    true,
		NoCache:     true,
		Logger:      c.Logger,
	}
	result, err := pipeline.NewRunner(nil, nil, c.Logger).Execute(ctx, data, opts)
	if err != nil {
		return err
	}
	if quiet {
		return nil
	}

	fmt.Fprintln(stdout, unitTable(result.Units, result.Head))
	for i, u := range result.Units {
		if u.Phon == "" {
			printWarning("unit %d has an empty surface form", i)
		}
	}
	printSuccess("%s is well-formed", displayName(input))
	printKeyValue("head", fmt.Sprintf("unit %d (%s)", result.Head, phonOrDash(result.Units[result.Head].Phon)))
	printKeyValue("ranks", strconv.Itoa(result.Stats.RankCount))
	printStats(result.Stats.UnitCount, result.Stats.NodeCount, result.Stats.EdgeCount, false)
	printNewline()
	printNextStep("Render it", fmt.Sprintf("%s render %s", appName, input))
	return nil
}

// unitTable renders units as a bordered table with the head row highlighted.
func unitTable(units []clause.Unit, head int) string {
	rows := make([][]string, len(units))
	for i, u := range units {
		marker := ""
		if i == head {
			marker = "head"
		}
		rows[i] = []string{strconv.Itoa(i), phonOrDash(u.Phon), formatTop(u.Top), formatBottoms(u.Bottoms), marker}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Phon", "Top", "Bottoms", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return headerStyle.Padding(0, 1)
			case row == head:
				return style.Foreground(colorGreen).Bold(true)
			case col == 0:
				return style.Foreground(colorDim)
			}
			return style
		}).
		Render()
}

// formatTop renders a category attachment as "Category@Kind".
func formatTop(t *clause.Top) string {
	if t == nil {
		return iconEmpty
	}
	return t.Category + "@" + t.Kind.String()
}

// formatBottoms renders operator attachments as "op@Kind" pairs.
func formatBottoms(bots []clause.Bottom) string {
	if len(bots) == 0 {
		return iconEmpty
	}
	parts := make([]string, len(bots))
	for i, b := range bots {
		parts[i] = b.Operator + "@" + b.Kind.String()
	}
	return strings.Join(parts, ", ")
}

func phonOrDash(s string) string {
	if s == "" {
		return iconEmpty
	}
	return s
}

func displayName(input string) string {
	if input == stdinPath {
		return "stdin"
	}
	return input
}
