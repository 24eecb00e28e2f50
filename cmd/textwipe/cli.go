package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/textwipe/internal/config"
	"github.com/hpungsan/textwipe/internal/errors"
	"github.com/hpungsan/textwipe/internal/logging"
	"github.com/hpungsan/textwipe/internal/ops"
)

const usageLine = "Usage: textwipe [options] <repository>"

// newCLIApp creates the CLI application. All output goes to the given
// writers so tests can run it in-process.
func newCLIApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	app := &cli.App{
		Name:      "textwipe",
		Usage:     "Erase the text of every file in a repository copy",
		UsageText: usageLine,
		ArgsUsage: "<repository>",
		Version:   Version,
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "Report what would be erased without writing"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"V"}, Usage: "Log every scrubbed node to stderr"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Config file (default ~/.textwipe/config.json)"},
		},
		HideHelpCommand: true,
		Action:          eraseAction,
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// eraseAction validates the repository, asks for confirmation and runs the
// erase.
func eraseAction(c *cli.Context) error {
	if c.NArg() != 1 {
		// Flag parsing stops at the first positional argument.
		for _, arg := range c.Args().Tail() {
			if strings.HasPrefix(arg, "-") {
				return outputError(errors.NewUsage(fmt.Sprintf(
					"textwipe: option %s must come before <repository>\n%s", arg, usageLine)))
			}
		}
		return outputError(errors.NewUsage(usageLine))
	}
	repoPath := c.Args().First()

	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return outputError(err)
	}
	if c.Bool("verbose") {
		cfg.Verbose = true
	}
	log := logging.New(c.App.ErrWriter, cfg.Verbose)
	dryRun := c.Bool("dry-run")

	// Nothing is printed or prompted for until the repository validates.
	if _, err := ops.ValidateRepository(repoPath, cfg); err != nil {
		return outputError(err)
	}

	out := c.App.Writer
	confirmed := false
	if !dryRun {
		printWarning(out, repoPath)
		confirmed = readConfirmation(c.App.Reader, out)
		if !confirmed {
			fmt.Fprintln(out, ops.CancelledMessage)
			return nil
		}
	}

	fmt.Fprintln(out, "Opening database environment...")
	result, err := ops.Erase(c.Context, cfg, ops.EraseInput{
		RepoPath:  repoPath,
		Confirmed: confirmed,
		DryRun:    dryRun,
		Progress: func(n int) {
			fmt.Fprintf(out, "Processed %d nodes...\n", n)
		},
		Logger: log,
	})
	if err != nil {
		if stderrors.Is(err, context.Canceled) {
			log.Warn("interrupted; store closed, re-run to finish")
		}
		return outputError(err)
	}

	fmt.Fprintf(out, "Processed %d nodes\n", result.Nodes)
	if dryRun {
		fmt.Fprintln(out, result.Message)
	} else {
		log.WithField("run_id", result.RunID).Info(result.Message)
	}
	fmt.Fprintln(out, "Done")
	return nil
}

// printWarning writes the warning block shown before the prompt.
func printWarning(w io.Writer, repoPath string) {
	fmt.Fprintln(w, "WARNING!: This program will destroy all text data in the subversion")
	fmt.Fprintf(w, "repository '%s'\n", repoPath)
	fmt.Fprintln(w, "Do not proceed unless this is a *COPY* of your real repository")
	fmt.Fprintf(w, "If this is really what you want to do, type '%s' and press Return\n", ops.ConfirmPhrase)
}

// readConfirmation prompts for and reads one line. End of input counts as
// a mismatch.
func readConfirmation(r io.Reader, w io.Writer) bool {
	fmt.Fprint(w, "Confirmation string> ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimRight(line, "\r\n") == ops.ConfirmPhrase
}

// loadConfig reads the config file named by --config, or the default one
// under ~/.textwipe.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, errors.NewUsage(fmt.Sprintf("failed to load config: %v", err))
		}
		return cfg, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return config.DefaultConfig(), nil
	}
	cfg, err := config.Load(filepath.Join(homeDir, ".textwipe"))
	if err != nil {
		return nil, errors.NewUsage(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg, nil
}

// outputError formats error for CLI.
func outputError(err error) error {
	if wipeErr, ok := err.(*errors.WipeError); ok {
		if wipeErr.Code == errors.ErrUsage {
			return cli.Exit(wipeErr.Message, wipeErr.ExitCode)
		}
		return cli.Exit(fmt.Sprintf("textwipe: %s", wipeErr.Message), wipeErr.ExitCode)
	}
	return cli.Exit(fmt.Sprintf("textwipe: %v", err), 1)
}

// exitCode maps an error returned by the app to a process exit status and
// writes its message to stderr.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exitErr cli.ExitCoder
	if stderrors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(stderr, msg)
		}
		return exitErr.ExitCode()
	}
	// Flag parse errors from urfave/cli land here.
	fmt.Fprintf(stderr, "textwipe: %v\n%s\n", err, usageLine)
	return errors.ExitCode(err)
}

// run executes the CLI and returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := newCLIApp(stdin, stdout, stderr)
	return exitCode(app.RunContext(ctx, args), stderr)
}
