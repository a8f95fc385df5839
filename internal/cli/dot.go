package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clausetree/pkg/pipeline"
)

// dotCommand creates the dot command, which prints the Graphviz source.
func (c *CLI) dotCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "dot [file]",
		Short: "Print the Graphviz DOT source for a clause description",
		Long: `Print the Graphviz DOT source for a clause description.

The output is written to stdout unless -o is given. It does not need Graphviz
and is never cached.`,
		Example: `  clausetree dot sentence.json
  clausetree dot sentence.toml --name robin -o robin.dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDOT(cmd.Context(), args[0], flags)
		},
	}

	c.addRenderFlags(cmd, &flags)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) runDOT(ctx context.Context, input string, flags renderFlags) error {
	flags.formats = pipeline.FormatDOT
	flags.noCache = true
	opts, err := c.options(input, flags)
	if err != nil {
		return err
	}
	data, err := readInput(input)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	result, err := runner.Execute(ctx, data, opts)
	if err != nil {
		return err
	}

	if flags.output == "" || flags.output == stdinPath {
		_, err = os.Stdout.WriteString(result.DOT)
		return err
	}
	if err := writeFile(flags.output, []byte(result.DOT)); err != nil {
		return err
	}
	printSuccess("Wrote DOT source")
	printFile(flags.output)
	return nil
}
