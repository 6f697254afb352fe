// dlq-reprocess перечитывает dead letter queue сервиса заказов и повторно
// публикует сообщения в исходные топики. По умолчанию работает в dry-run
// режиме: только печатает, что было бы переотправлено.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/messaging/kafka"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
)

type config struct {
	brokers     []string
	limit       int
	execute     bool
	idleTimeout time.Duration
}

// dlqPayload — формат сообщения, которое consumer кладёт в DLQ.
type dlqPayload struct {
	OriginalTopic string `json:"original_topic"`
	OriginalKey   string `json:"original_key"`
	OriginalValue string `json:"original_value"`
	ErrorMessage  string `json:"error_message"`
	RetryCount    int    `json:"retry_count"`
}

func main() {
	cfg := readFlags()

	logger := log.WithField("component", "dlq-reprocess")
	if !cfg.execute {
		logger.Info("dry-run mode: pass -execute to actually republish")
	}

	replayed, skipped, err := run(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("dlq reprocess failed")
		os.Exit(1)
	}
	logger.WithFields(log.Fields{
		"replayed": replayed,
		"skipped":  skipped,
	}).Info("dlq reprocess finished")
}

func readFlags() config {
	var (
		brokers string
		limit   int
		execute bool
		idle    time.Duration
	)

	flag.StringVar(&brokers, "brokers", "", "Kafka brokers, comma separated (fallback: ORDERS_KAFKA_BROKERS)")
	flag.IntVar(&limit, "limit", defaultReplayLimit, "maximum messages to replay")
	flag.BoolVar(&execute, "execute", false, "republish messages instead of dry-run")
	flag.DurationVar(&idle, "idle-timeout", defaultIdleTimeout, "stop after this period without new DLQ messages")
	flag.Parse()

	if strings.TrimSpace(brokers) == "" {
		brokers = strings.TrimSpace(os.Getenv("ORDERS_KAFKA_BROKERS"))
	}
	if brokers == "" {
		fmt.Fprintln(os.Stderr, "ORDERS_KAFKA_BROKERS (or -brokers) is required")
		os.Exit(2)
	}

	return config{
		brokers:     strings.Split(brokers, ","),
		limit:       limit,
		execute:     execute,
		idleTimeout: idle,
	}
}

func run(cfg config, logger *log.Entry) (replayed, skipped int, err error) {
	consumer, err := sarama.NewConsumer(cfg.brokers, sarama.NewConfig())
	if err != nil {
		return 0, 0, fmt.Errorf("create kafka consumer: %w", err)
	}
	defer consumer.Close()

	var producer *kafka.Producer
	if cfg.execute {
		producer, err = kafka.NewProducer(cfg.brokers)
		if err != nil {
			return 0, 0, fmt.Errorf("create kafka producer: %w", err)
		}
		defer producer.Close()
	}

	partitions, err := consumer.Partitions(kafka.TopicDeadLetterQueue)
	if err != nil {
		return 0, 0, fmt.Errorf("list dlq partitions: %w", err)
	}

	for _, partition := range partitions {
		if replayed >= cfg.limit {
			break
		}

		pc, err := consumer.ConsumePartition(kafka.TopicDeadLetterQueue, partition, sarama.OffsetOldest)
		if err != nil {
			return replayed, skipped, fmt.Errorf("consume dlq partition %d: %w", partition, err)
		}

		r, s := drainPartition(pc, cfg, producer, logger.WithField("partition", partition), cfg.limit-replayed)
		replayed += r
		skipped += s
		_ = pc.Close()
	}

	return replayed, skipped, nil
}

func drainPartition(pc sarama.PartitionConsumer, cfg config, producer *kafka.Producer, logger *log.Entry, budget int) (replayed, skipped int) {
	for replayed < budget {
		select {
		case message, ok := <-pc.Messages():
			if !ok {
				return replayed, skipped
			}

			var payload dlqPayload
			if err := json.Unmarshal(message.Value, &payload); err != nil || payload.OriginalTopic == "" {
				logger.WithField("offset", message.Offset).Warn("skipping unparseable dlq message")
				skipped++
				continue
			}

			logger.WithFields(log.Fields{
				"offset":       message.Offset,
				"target_topic": payload.OriginalTopic,
				"key":          payload.OriginalKey,
				"error":        payload.ErrorMessage,
				"retry_count":  payload.RetryCount,
			}).Info("dlq message")

			if cfg.execute {
				if err := producer.PublishRaw(payload.OriginalTopic, payload.OriginalKey, []byte(payload.OriginalValue)); err != nil {
					logger.WithError(err).WithField("offset", message.Offset).Warn("failed to republish, skipping")
					skipped++
					continue
				}
			}
			replayed++
		case err := <-pc.Errors():
			logger.WithError(err).Warn("dlq partition error")
			skipped++
		case <-time.After(cfg.idleTimeout):
			return replayed, skipped
		}
	}
	return replayed, skipped
}
