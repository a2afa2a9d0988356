package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"caseflow/internal/platform/kafka"
	"caseflow/internal/platform/postgres"
	"caseflow/pkg/platform/audit"
	auditpg "caseflow/pkg/platform/audit/store/postgres"
	"caseflow/pkg/platform/audit/worker"
	"caseflow/pkg/platform/tx"
)

var auditCategories = []audit.EventCategory{audit.CategoryCompliance, audit.CategoryOperations, audit.CategorySecurity}

func relayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Publish audit outbox entries to Kafka",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			if len(cfg.Kafka.Brokers) == 0 {
				return fmt.Errorf("the relay needs CASEFLOW_KAFKA_BROKERS")
			}
			db, err := postgres.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			producer, err := kafka.New(cfg.Kafka, log)
			if err != nil {
				return err
			}
			defer producer.Close(context.WithoutCancel(ctx))

			relay := worker.NewRelay(auditpg.New(db), producer, tx.NewPostgresRunner(db, cfg.Cases.TransitionTimeout),
				cfg.Kafka.TopicPrefix, cfg.Kafka.RelayInterval, cfg.Kafka.RelayBatchSize, log)
			topics := make([]string, 0, len(auditCategories))
			for _, c := range auditCategories {
				topics = append(topics, relay.Topic(string(c)))
			}
			if err := producer.EnsureTopics(ctx, cfg.Kafka.TopicPartitions, cfg.Kafka.TopicReplication, topics...); err != nil {
				return err
			}

			log.InfoContext(ctx, "audit relay started", "topic_prefix", cfg.Kafka.TopicPrefix)
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
