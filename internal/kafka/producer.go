package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/course-conditions/internal/config"
	"github.com/course-conditions/internal/domain"
)

// ReportCreatedEvent is the message published when a condition report is
// persisted
type ReportCreatedEvent struct {
	EventType       string    `json:"event_type"`
	ReportID        string    `json:"report_id"`
	CourseID        string    `json:"course_id"`
	UserID          string    `json:"user_id"`
	UserDisplayName string    `json:"user_display_name"`
	Rating          int       `json:"rating"`
	DatePlayed      string    `json:"date_played"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// Producer publishes condition report events to Kafka
type Producer struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg *config.KafkaConfig, logger *slog.Logger) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Flush.Frequency = cfg.FlushTimeout
	saramaConfig.Producer.Flush.Messages = cfg.FlushMessages
	saramaConfig.Producer.Return.Successes = false
	saramaConfig.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("creating producer: %w", err)
	}

	p := &Producer{
		producer: producer,
		topic:    cfg.Topic,
		logger:   logger,
	}

	// Delivery failures are advisory; the report is already persisted
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for err := range producer.Errors() {
			p.logger.Warn("failed to deliver report event", "error", err)
		}
	}()

	return p, nil
}

// Close shuts the producer down, flushing buffered messages
func (p *Producer) Close() error {
	p.producer.AsyncClose()
	p.wg.Wait()
	return nil
}

// PublishReportCreated enqueues a report-created event
func (p *Producer) PublishReportCreated(ctx context.Context, report *domain.ConditionReport) error {
	event := ReportCreatedEvent{
		EventType:       "condition.report.created",
		ReportID:        report.ID,
		CourseID:        report.CourseID,
		UserID:          report.UserID,
		UserDisplayName: report.UserDisplayName,
		Rating:          report.Rating,
		DatePlayed:      report.DatePlayed,
		SubmittedAt:     report.SubmittedAt,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling report event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(report.CourseID),
		Value: sarama.ByteEncoder(value),
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
