package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/clausetree/pkg/pipeline"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		inputFmt string
		plain    bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Browse units and the diagram nodes generated for them",
		Long: `Browse a clause description interactively.

Each unit is listed with its attachments and the DOT node names the diagram
uses for it, which helps when post-processing the generated DOT source.
Use --plain to print the same information without the interactive view.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], inputFmt, plain)
		},
	}

	cmd.Flags().StringVarP(&inputFmt, "input-format", "i", "", "input format: json, toml (default: from extension)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print unit details instead of starting the interactive view")
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input, inputFmt string, plain bool) error {
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

	model := NewInspectModel(result.Units, result.Head, result.Graph)
	if plain {
		printInspect(model)
		return nil
	}

	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	return nil
}

// printInspect writes every unit's details and nodes to stdout.
func printInspect(m InspectModel) {
	for i, u := range m.Units {
		title := fmt.Sprintf("unit %d", i)
		if i == m.Head {
			title += " (head)"
		}
		fmt.Fprintln(stdout, StyleTitle.Render(title))
		printKeyValue("phon", phonOrDash(u.Phon))
		printKeyValue("top", formatTop(u.Top))
		printKeyValue("bottoms", formatBottoms(u.Bottoms))
		for _, nd := range m.Nodes[i] {
			printDetail("%-10s %-16s %s", nd.ID, nd.Role, nd.Label)
		}
		printNewline()
	}
}
