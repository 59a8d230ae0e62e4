package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"chain-sentinel/internal/domain"
)

// KafkaSink publishes signals to a Kafka topic. Messages are keyed by
// signal ID and carry kind/severity headers so downstream subscribers can
// filter without decoding the payload.
type KafkaSink struct {
	topic    string
	producer sarama.SyncProducer
}

// NewKafkaSink creates a Kafka signal sink.
func NewKafkaSink(brokers []string, topic string, cfg *sarama.Config) (*KafkaSink, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &KafkaSink{topic: topic, producer: producer}, nil
}

// Publish sends the signal as a JSON message.
func (s *KafkaSink) Publish(_ context.Context, signal *domain.Signal) error {
	data, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(signal.SignalID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(signal.Kind)},
			{Key: []byte("severity"), Value: []byte(signal.Severity)},
		},
	}
	if _, _, err := s.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

// Close shuts down the producer.
func (s *KafkaSink) Close() error {
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}

var _ Sink = (*KafkaSink)(nil)
