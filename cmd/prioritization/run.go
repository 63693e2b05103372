package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/no0law1/kafka-prioritization"
	"github.com/no0law1/kafka-prioritization/types"
)

const exitCommand = "exit"

func newRunCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the tier consumers and publish lines read from stdin",
		Long: `run starts one consumer per priority tier and then reads stdin line by
line. Each line is "<priority> [message]"; the message defaults to the
priority label. Unknown priorities fall back to low. Type "exit" or send
EOF to stop.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runInteractive(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runInteractive(ctx context.Context, opts *globalOptions, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e, err := openEnv(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.close(); err != nil {
			e.logger.Warn("failed to close substrate", "error", err)
		}
	}()

	srv := startMetricsServer(opts.metricsAddr, e.registry, e.logger)
	defer srv.shutdown()

	printer := &consolePrinter{out: out}
	router, err := prioritization.NewRouter(e.cfg, e.sub, printer, e.options...)
	if err != nil {
		return err
	}
	if err := router.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := router.Stop(context.Background()); err != nil {
			e.logger.Warn("router stop failed", "error", err)
		}
	}()

	fmt.Fprintf(out, "tier table: %s\n", router.Table())
	fmt.Fprintln(out, `enter "<high|medium|low> [message]", or "exit" to quit`)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-router.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmdLine, skip := parseLine(line)
			if skip {
				continue
			}
			if cmdLine.exit {
				return nil
			}
			if cmdLine.fallback {
				printer.printf("Invalid priority %q. Setting priority to %q.\n", cmdLine.label, "low")
			}

			res, err := router.Publish(ctx, cmdLine.priority, []byte(cmdLine.message))
			if err != nil {
				e.logger.Error("publish failed", "priority", cmdLine.priority, "error", err)
				continue
			}
			e.logger.Debug("published", "priority", cmdLine.priority, "partition", res.Partition, "offset", res.Offset)
		}
	}
}

// inputLine is one parsed stdin line.
type inputLine struct {
	priority types.Priority
	label    string
	message  string
	fallback bool
	exit     bool
}

// parseLine decodes "<priority> [message]". Unknown priorities become Low
// with fallback set; a missing message defaults to the priority label.
// Blank lines are skipped.
func parseLine(line string) (inputLine, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return inputLine{}, true
	}

	label, message, _ := strings.Cut(line, " ")
	if strings.EqualFold(label, exitCommand) {
		return inputLine{exit: true}, false
	}

	parsed := inputLine{label: label, message: strings.TrimSpace(message)}
	p, err := types.ParsePriority(label)
	if err != nil {
		p = types.PriorityLow
		parsed.fallback = true
	}
	parsed.priority = p
	if parsed.message == "" {
		parsed.message = strings.ToLower(p.String())
	}

	return parsed, false
}

// consolePrinter writes consumed records to out. The three tier workers
// call Handle concurrently.
type consolePrinter struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *consolePrinter) Handle(_ context.Context, rec types.Record) error {
	tier := "Unknown"
	if rec.PriorityValid {
		tier = rec.Priority.String()
	}
	c.printf("[%s] consumed message: %s on partition %d\n", tier, rec.Value, rec.Partition)

	return nil
}

func (c *consolePrinter) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, format, args...)
}
