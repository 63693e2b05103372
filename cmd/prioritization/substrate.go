package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/no0law1/kafka-prioritization"
	"github.com/no0law1/kafka-prioritization/internal/logging"
	"github.com/no0law1/kafka-prioritization/internal/metrics"
	"github.com/no0law1/kafka-prioritization/substrate/kafka"
	"github.com/no0law1/kafka-prioritization/substrate/memory"
	"github.com/no0law1/kafka-prioritization/substrate/natsjs"
	"github.com/no0law1/kafka-prioritization/types"
)

const (
	substrateEmbedded = "embedded"
	substrateNATS     = "nats"
	substrateKafka    = "kafka"
	substrateMemory   = "memory"
)

type globalOptions struct {
	configPath    string
	substrate     string
	natsURL       string
	brokers       []string
	kafkaVersion  string
	commitOffsets bool
	logLevel      string
	metricsAddr   string
}

// env is everything a command needs: configuration, ambient stack and an
// open substrate. close releases it in reverse order of creation.
type env struct {
	cfg      prioritization.Config
	logger   *logging.SlogLogger
	metrics  *metrics.PrometheusCollector
	registry *prometheus.Registry
	sub      types.Substrate
	options  []prioritization.Option
	closers  []func() error
}

func (e *env) addCloser(fn func() error) {
	e.closers = append(e.closers, fn)
}

func (e *env) close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	e.closers = nil

	return errors.Join(errs...)
}

// loadEnv builds the configuration and the ambient stack without touching
// a substrate.
func loadEnv(opts *globalOptions) (*env, error) {
	logger, err := logging.NewText(os.Stderr, opts.logLevel)
	if err != nil {
		return nil, err
	}

	cfg := prioritization.DefaultConfig()
	if opts.configPath != "" {
		cfg, err = prioritization.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewPrometheus(reg, "prioritization")

	return &env{
		cfg:      cfg,
		logger:   logger,
		metrics:  collector,
		registry: reg,
		options: []prioritization.Option{
			prioritization.WithLogger(logger),
			prioritization.WithMetrics(collector),
		},
	}, nil
}

// openEnv loads the environment and connects the selected substrate. The
// topic is created on substrates that manage topics themselves.
func openEnv(ctx context.Context, opts *globalOptions) (*env, error) {
	e, err := loadEnv(opts)
	if err != nil {
		return nil, err
	}

	switch opts.substrate {
	case substrateEmbedded:
		err = e.openEmbedded(ctx)
	case substrateNATS:
		err = e.openNATS(ctx, opts.natsURL, jetstream.FileStorage)
	case substrateKafka:
		err = e.openKafka(opts)
	case substrateMemory:
		broker := memory.New()
		if err = broker.CreateTopic(e.cfg.Topic, e.cfg.TotalPartitions); err == nil {
			e.sub = broker
			e.addCloser(broker.Close)
		}
	default:
		err = fmt.Errorf("%w: unknown substrate %q", prioritization.ErrInvalidConfig, opts.substrate)
	}
	if err != nil {
		_ = e.close()
		return nil, err
	}

	return e, nil
}

func (e *env) openEmbedded(ctx context.Context) error {
	srv, err := startEmbeddedServer(e.logger)
	if err != nil {
		return err
	}
	e.addCloser(func() error {
		srv.Shutdown()
		srv.WaitForShutdown()

		return nil
	})

	return e.openNATS(ctx, srv.ClientURL(), jetstream.MemoryStorage)
}

func (e *env) openNATS(ctx context.Context, url string, storage jetstream.StorageType) error {
	nc, err := nats.Connect(url, nats.Name("prioritization"))
	if err != nil {
		return fmt.Errorf("%w: %w", prioritization.ErrConnectivity, err)
	}
	e.addCloser(func() error {
		nc.Close()
		return nil
	})

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create jetstream context: %w", err)
	}

	sub, err := natsjs.NewJS(js, natsjs.Config{
		Storage: storage,
		Logger:  e.logger,
		Metrics: e.metrics,
	})
	if err != nil {
		return err
	}
	e.addCloser(sub.Close)

	if err := sub.EnsureTopic(ctx, e.cfg.Topic, e.cfg.TotalPartitions); err != nil {
		return err
	}

	store, err := natsjs.NewTableStore(ctx, js, "", e.logger)
	if err != nil {
		return err
	}
	e.sub = sub
	e.options = append(e.options, prioritization.WithTableStore(store))

	return nil
}

func (e *env) openKafka(opts *globalOptions) error {
	sub, err := kafka.New(opts.brokers, kafka.Config{
		Version:       opts.kafkaVersion,
		CommitOffsets: opts.commitOffsets,
		Logger:        e.logger,
	})
	if err != nil {
		return err
	}
	e.sub = sub
	e.addCloser(sub.Close)

	return nil
}
