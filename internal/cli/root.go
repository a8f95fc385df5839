package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/clausetree/pkg/errors"
)

// Exit codes returned by ExitCode.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitInvalidArgs = 2
	ExitInterrupted = 130 // shell convention for SIGINT
)

// Execute runs the clausetree CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via loggerFromContext.
//
// Example:
//
//	func main() {
//	    ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	    defer cancel()
//	    os.Exit(cli.ExitCode(cli.Execute(ctx, os.Args[1:])))
//	}
func Execute(ctx context.Context, args []string) error {
	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil && !stderrors.Is(err, context.Canceled) {
		reportError(os.Stderr, err)
	}
	return err
}

// reportError prints err for a human. Coded errors print their message with
// location; the code is shown dimmed.
func reportError(w io.Writer, err error) {
	code := errors.GetCode(err)
	if code == "" {
		fmt.Fprintln(w, styleIconError.Render(iconError)+" "+err.Error())
		return
	}
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+errors.UserMessage(err)+" "+StyleDim.Render("["+string(code)+"]"))
}

// ExitCode maps the result of Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case stderrors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, errors.ErrCodeInvalidFormat), errors.Is(err, errors.ErrCodeInvalidPath):
		return ExitInvalidArgs
	default:
		return ExitError
	}
}
