package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"screen-ocr-translate/src/llm"
	"screen-ocr-translate/src/singleinstance"
)

// stress-capture fires concurrent remote capture requests at the running
// app. At most one is accepted; the rest must be rejected as busy.

type stressOptions struct {
	n        int
	wait     bool
	deadline time.Duration
}

type captureClient interface {
	TryCapture(ctx context.Context, wait bool) (bool, llm.Result, error)
}

type tally struct {
	ok, busy, missing, failed atomic.Int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	return newRootCmd(opts).Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-capture",
		Short:         "Stress test remote capture delegation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.OutOrStdout(), *opts, func() captureClient { return singleinstance.NewClient() })
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().BoolVar(&opts.wait, "wait", false, "wait for each accepted capture to finish")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func runWithOptions(w io.Writer, opts stressOptions, newClient func() captureClient) error {
	var t tally
	var g errgroup.Group
	start := time.Now()
	for i := 0; i < opts.n; i++ {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, _, err := newClient().TryCapture(ctx, opts.wait)
			switch {
			case err != nil && strings.Contains(strings.ToLower(err.Error()), "busy"):
				t.busy.Add(1)
			case err != nil:
				t.failed.Add(1)
			case delegated:
				t.ok.Add(1)
			default:
				t.missing.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	fmt.Fprintf(w, "launched=%d ok=%d busy=%d missing=%d err=%d elapsed=%s\n",
		opts.n, t.ok.Load(), t.busy.Load(), t.missing.Load(), t.failed.Load(), time.Since(start).Round(time.Millisecond))
	return nil
}
