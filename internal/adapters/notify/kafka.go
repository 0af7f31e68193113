package notify

// kafka.go — AlertPublisher on a Kafka topic. High-severity events
// (unprotected fills, risk-limit breaches) are consumed downstream by the
// alerting pipeline.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/alejandrodnm/tradeguard/internal/ports"
)

// KafkaAlerts implements ports.AlertPublisher with a synchronous producer,
// so a published critical alert is confirmed durable before trading resumes.
type KafkaAlerts struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaAlerts connects a producer to the given brokers.
func NewKafkaAlerts(brokers []string, topic string) (*KafkaAlerts, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("notify.NewKafkaAlerts: connect: %w", err)
	}
	return &KafkaAlerts{producer: producer, topic: topic}, nil
}

// Publish sends one alert, keyed by severity so consumers can partition on
// urgency.
func (k *KafkaAlerts) Publish(_ context.Context, alert ports.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("notify.Publish: marshal: %w", err)
	}

	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(alert.Severity),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("notify.Publish: send: %w", err)
	}
	return nil
}

// Close shuts down the producer.
func (k *KafkaAlerts) Close() error {
	return k.producer.Close()
}

var _ ports.AlertPublisher = (*KafkaAlerts)(nil)
