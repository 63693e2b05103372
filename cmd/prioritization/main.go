// Package main provides the prioritization operator CLI.
//
// It runs the three tier consumers against a live substrate, publishes
// messages with a priority, and prints the partition tier table.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "prioritization",
		Short: "Priority-tiered partition routing over Kafka or NATS JetStream",
		Long: `prioritization splits one topic's partitions into High, Medium and Low
ranges, publishes each message into the range of its priority and runs one
consumer per range, so low-priority bulk traffic never delays urgent messages.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file path (YAML)")
	flags.StringVar(&opts.substrate, "substrate", substrateEmbedded, "messaging substrate: embedded, nats, kafka or memory")
	flags.StringVar(&opts.natsURL, "nats-url", "nats://127.0.0.1:4222", "NATS server URL (--substrate nats)")
	flags.StringSliceVar(&opts.brokers, "brokers", []string{"localhost:9092"}, "Kafka bootstrap brokers (--substrate kafka)")
	flags.StringVar(&opts.kafkaVersion, "kafka-version", "", "Kafka protocol version, e.g. 3.6.0")
	flags.BoolVar(&opts.commitOffsets, "commit-offsets", true, "commit consumed Kafka offsets under the consumer group")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newProduceCmd(opts))
	rootCmd.AddCommand(newRangesCmd(opts))

	return rootCmd
}
