package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/no0law1/kafka-prioritization"
	"github.com/no0law1/kafka-prioritization/types"
)

func newProduceCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "produce <priority> [message]",
		Short: "Publish one message into its priority tier",
		Example: `  prioritization produce high "disk full on db-1"
  prioritization --substrate kafka --brokers kafka:9092 produce low`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			priority, err := types.ParsePriority(args[0])
			if err != nil {
				return err
			}
			message := strings.Join(args[1:], " ")
			if message == "" {
				message = strings.ToLower(priority.String())
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = e.close() }()

			producer, err := prioritization.NewProducer(e.cfg, e.sub, e.options...)
			if err != nil {
				return err
			}
			if err := producer.Prepare(ctx); err != nil {
				return err
			}

			res, err := producer.Publish(ctx, priority, []byte(message))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s message to %s partition %d offset %d\n",
				priority, res.Topic, res.Partition, res.Offset)

			return nil
		},
	}
}
