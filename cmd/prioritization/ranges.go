package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/no0law1/kafka-prioritization/internal/logging"
	"github.com/no0law1/kafka-prioritization/source"
	"github.com/no0law1/kafka-prioritization/tiering"
	"github.com/no0law1/kafka-prioritization/types"
)

func newRangesCmd(opts *globalOptions) *cobra.Command {
	var (
		live       bool
		partitions int
	)

	cmd := &cobra.Command{
		Use:   "ranges",
		Short: "Print the partition range owned by each priority tier",
		Long: `ranges prints the tier table computed from the configured weights and
partition count. With --live the partition count is read from the
substrate instead, and a difference from the configured count is reported.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var (
				e   *env
				err error
			)
			if live {
				e, err = openEnv(ctx, opts)
			} else {
				e, err = loadEnv(opts)
			}
			if err != nil {
				return err
			}
			defer func() { _ = e.close() }()

			if cmd.Flags().Changed("partitions") {
				e.cfg.TotalPartitions = partitions
			}

			var inspector types.TopicInspector = source.NewStatic(map[string]int{e.cfg.Topic: e.cfg.TotalPartitions})
			if live {
				inspector = e.sub
			}

			return printRanges(ctx, cmd.OutOrStdout(), e, inspector)
		},
	}

	cmd.Flags().BoolVar(&live, "live", false, "read the partition count from the substrate")
	cmd.Flags().IntVar(&partitions, "partitions", 0, "override the configured partition count")

	return cmd
}

func printRanges(ctx context.Context, out io.Writer, e *env, inspector types.TopicInspector) error {
	registry, err := tiering.NewRegistry(e.cfg.TotalPartitions, e.cfg.Weights.TierWeights(),
		tiering.WithRegistryLogger(logging.NewNop()),
	)
	if err != nil {
		return err
	}

	count, err := inspector.PartitionCount(ctx, e.cfg.Topic)
	if err != nil {
		return err
	}
	table, err := registry.Resolve(count)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "topic %s, %d partitions\n", e.cfg.Topic, table.TotalPartitions())
	if count != e.cfg.TotalPartitions {
		fmt.Fprintf(out, "warning: substrate reports %d partitions, configured %d\n", count, e.cfg.TotalPartitions)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tRANGE\tPARTITIONS")
	for _, tr := range table.Ranges() {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", tr.Priority, tr.Range, tr.Range.Len())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, p := range table.EmptyTiers() {
		fmt.Fprintf(out, "warning: tier %s owns no partitions\n", p)
	}

	return nil
}
