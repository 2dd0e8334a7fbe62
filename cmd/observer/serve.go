package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/observer/internal/script"
	"github.com/vango-dev/observer/pkg/devtools"
	"github.com/vango-dev/observer/pkg/document"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [script]",
		Short: "Start the inspector server",
		Long: `Start the inspector server.

The server exposes /healthz, /metrics, /events (websocket) and,
when a script is given, /snapshot with the script's final document.
Connect to /events before the script runs to see every event.

Examples:
  observer serve
  observer serve todo.yaml --addr=0.0.0.0:7070`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runServe(ctx, flags, addr, path)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from config)")

	return cmd
}

func runServe(ctx context.Context, flags *globalFlags, addr, path string) error {
	e, err := setup(flags)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = e.cfg.Devtools.Address
	}

	// state guards the document between the script goroutine and /snapshot.
	var state struct {
		sync.Mutex
		root any
	}

	srv := devtools.New(devtools.Options{
		Address:         addr,
		ReadBufferSize:  e.cfg.Devtools.ReadBufferSize,
		WriteBufferSize: e.cfg.Devtools.WriteBufferSize,
		Gatherer:        e.registry,
		Logger:          e.logger,
		Snapshot: func() ([]byte, error) {
			state.Lock()
			defer state.Unlock()
			return document.EncodeJSON(state.root)
		},
	})

	var runner *script.Runner
	if path != "" {
		runner = script.NewRunner(script.Options{S3: e.s3, Logger: e.logger})
	}
	if runner != nil {
		defer e.install(srv.Hub(), runner)()
	} else {
		defer e.install(srv.Hub())()
	}

	success("Inspector on http://%s", addr)

	if path != "" {
		s, err := script.ParseFile(path)
		if err != nil {
			return err
		}
		go func() {
			state.Lock()
			defer state.Unlock()
			res, err := runner.Run(ctx, s)
			if res != nil {
				state.root = res.Root
			}
			if err != nil {
				e.logger.Error("script failed", "error", err)
				return
			}
			e.logger.Info("script finished", "steps", len(res.Steps))
		}()
	}

	return srv.ListenAndServe(ctx)
}
