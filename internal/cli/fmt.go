package cli

import (
	"bytes"
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clausetree/pkg/clause"
	"github.com/matzehuels/clausetree/pkg/errors"
)

// fmtCommand creates the fmt command.
func (c *CLI) fmtCommand() *cobra.Command {
	var (
		inputFmt string
		output   string
		write    bool
	)

	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Rewrite a clause description as canonical JSON",
		Long: `Rewrite a clause description as canonical JSON.

The description is decoded (JSON or TOML) and re-encoded as an indented JSON
array with the canonical field names. Aliases such as "bottoms" become "bot"
and unknown fields are dropped. The result goes to stdout unless -o or -w is
given; -w rewrites a JSON input in place.`,
		Example: `  clausetree fmt sentence.json
  clausetree fmt -w sentence.json
  clausetree fmt sentence.toml -o sentence.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFmt(cmd.Context(), args[0], inputFmt, output, write)
		},
	}

	cmd.Flags().StringVarP(&inputFmt, "input-format", "i", "", "input format: json, toml (default: from extension)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the input file in place")
	cmd.MarkFlagsMutuallyExclusive("output", "write")
	return cmd
}

func (c *CLI) runFmt(ctx context.Context, input, inputFmt, output string, write bool) error {
	format, err := inputFormat(input, inputFmt)
	if err != nil {
		return err
	}
	if write {
		if input == stdinPath {
			return errors.New(errors.ErrCodeInvalidPath, "cannot rewrite stdin in place")
		}
		if format != clause.FormatJSON {
			return errors.New(errors.ErrCodeInvalidFormat, "-w only rewrites JSON files; use -o to convert %s", format)
		}
		output = input
	}

	data, err := readInput(input)
	if err != nil {
		return err
	}
	formatted, err := canonical(data, format)
	if err != nil {
		return err
	}

	if output == "" || output == stdinPath {
		_, err = os.Stdout.Write(formatted)
		return err
	}
	if bytes.Equal(data, formatted) && output == input {
		loggerFromContext(ctx).Debug("already formatted", "file", input)
		return nil
	}
	if err := writeFile(output, formatted); err != nil {
		return err
	}
	printFile(output)
	return nil
}

// canonical decodes data and re-encodes it in the canonical JSON form.
func canonical(data []byte, format clause.Format) ([]byte, error) {
	units, err := clause.DecodeFormat(bytes.NewReader(data), format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := clause.Encode(&buf, units); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode description")
	}
	return buf.Bytes(), nil
}
