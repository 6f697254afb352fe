package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/messaging/kafka"
)

const paymentConsumerGroup = "orders-service"

// initKafkaProducer инициализирует Kafka producer, если brokers не пустой.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	if brokers == "" {
		return nil, nil
	}

	brokerList := strings.Split(brokers, ",")
	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// initPaymentConsumer создаёт consumer событий payment.succeeded c retry и DLQ.
func initPaymentConsumer(brokers string, handler kafka.MessageHandler, dlqProducer *kafka.Producer, logger *log.Entry) (*kafka.Consumer, error) {
	if brokers == "" {
		return nil, nil
	}

	brokerList := strings.Split(brokers, ",")
	consumer, err := kafka.NewConsumerWithDLQ(
		brokerList,
		paymentConsumerGroup,
		[]string{kafka.TopicPaymentEvents},
		handler,
		dlqProducer,
		3,
	)
	if err != nil {
		logger.WithError(err).Warn("failed to create payment consumer, continuing without confirmations")
		return nil, err
	}

	logger.WithFields(log.Fields{
		"brokers": brokerList,
		"topic":   kafka.TopicPaymentEvents,
		"group":   paymentConsumerGroup,
	}).Info("payment consumer initialized")
	return consumer, nil
}

// closeKafka закрывает Kafka producer, если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
