package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/observer/internal/errors"
	"github.com/vango-dev/observer/internal/script"
	"github.com/vango-dev/observer/pkg/document"
)

func runCmd(flags *globalFlags) *cobra.Command {
	var (
		out   string
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a mutation script",
		Long: `Run a YAML mutation script against its document.

Every step prints the watchers it re-ran and the warnings it
reported. Steps with expectations fail the run when they differ.

Examples:
  observer run todo.yaml
  observer run todo.yaml --out result.json
  observer run todo.yaml --out s3://bucket/result.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScript(ctx, flags, args[0], out, quiet)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the final document to a file or s3:// URL")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print failures")

	return cmd
}

func runScript(ctx context.Context, flags *globalFlags, path, out string, quiet bool) error {
	e, err := setup(flags)
	if err != nil {
		return err
	}

	s, err := script.ParseFile(path)
	if err != nil {
		return err
	}

	runner := script.NewRunner(script.Options{S3: e.s3, Logger: e.logger})
	defer e.install(runner)()

	res, runErr := runner.Run(ctx, s)
	if res != nil && !quiet {
		printSteps(res)
	}
	if runErr != nil {
		return runErr
	}

	if out != "" {
		if err := writeDocument(ctx, e, out, res.Root); err != nil {
			return err
		}
		if !quiet {
			success("Wrote %s", out)
		}
	}
	if !quiet {
		success("%d steps passed", len(res.Steps))
	}
	return nil
}

func printSteps(res *script.Result) {
	for _, st := range res.Steps {
		line := fmt.Sprintf("%2d  %-16s %-20s", st.Index, st.Op, st.Path)
		if len(st.Triggered) > 0 {
			line += " → " + strings.Join(st.Triggered, ", ")
		}
		if len(st.Warnings) > 0 {
			line += " [" + strings.Join(st.Warnings, ", ") + "]"
		}
		info("%s", line)
	}
}

func writeDocument(ctx context.Context, e *env, out string, root any) error {
	store, key, err := document.Open(out, e.s3)
	if err != nil {
		return errors.New("E101").WithDetail(out).Wrap(err)
	}
	data, err := document.Encode(root, document.FormatFromPath(key))
	if err != nil {
		return errors.New("E101").WithDetail(out).Wrap(err)
	}
	if err := store.Save(ctx, key, data); err != nil {
		return errors.New("E101").WithDetail(out).Wrap(err)
	}
	return nil
}
