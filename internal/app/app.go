// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ohfid/internal/config"
	"ohfid/internal/version"
	"ohfid/internal/writers"
)

// env is what every command writes to.
type env struct {
	stdout  io.Writer // buffered; flushed by RunContext
	stderr  io.Writer
	cfgFile string
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "ohfid",
		Short: "Choose Golden Gate overhang sets with the highest ligation fidelity",
		Long: `ohfid scores and optimizes sets of ligation overhangs against a measured
pairwise ligation-frequency matrix. Without a subcommand it runs "optimize".`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          func(cmd *cobra.Command, _ []string) error { return runOptimize(cmd, e) },
	}
	root.SetVersionTemplate("ohfid version {{.Version}}\n")
	root.PersistentFlags().StringVar(&e.cfgFile, "config", "", "YAML config file")
	config.Register(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "optimize",
			Short: "Search the candidate pools for the best overhang set (default)",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, _ []string) error { return runOptimize(cmd, e) },
		},
		&cobra.Command{
			Use:   "eval",
			Short: "Score the assignment given with --init",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, _ []string) error { return runEval(cmd, e) },
		},
		&cobra.Command{
			Use:   "batch",
			Short: "Score --samples random assignments drawn from the pools",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, _ []string) error { return runBatch(cmd, e) },
		},
		&cobra.Command{
			Use:   "pools",
			Short: "Build and print the candidate pools only",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, _ []string) error { return runPools(cmd, e) },
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintf(e.stdout, "ohfid version %s\n", version.Version)
				return ioErr(err)
			},
		},
	)
	return root
}

// RunContext executes argv and returns the process exit code.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	e := &env{stdout: outw, stderr: stderr}

	root := newRootCmd(e)
	root.SetArgs(argv)
	root.SetOut(outw)
	root.SetErr(stderr)

	err := root.ExecuteContext(parent)
	if ferr := writers.Settle(outw.Flush()); ferr != nil && err == nil {
		err = ioErr(ferr)
	}
	if writers.ReaderGone(err) {
		return ExitOK
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "ohfid: %v\n", err)
	}
	return exitCode(err)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
