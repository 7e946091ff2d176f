package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/pkg/config"
	"github.com/wonny/areascore/pkg/logger"
)

// SchemaVersion tags every score event payload
const SchemaVersion = "v1"

// batchSize caps messages per WriteMessages call
const batchSize = 100

// MessageWriter is the subset of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ScoreEvent is the payload of one area's score message
type ScoreEvent struct {
	SchemaVersion string                `json:"schema_version"`
	RunID         string                `json:"run_id"`
	AreaID        string                `json:"area_id"`
	AreaName      string                `json:"area_name"`
	Scores        contracts.SubscoreSet `json:"scores"`
	Total         float64               `json:"total"`
	Quantile      int                   `json:"quantile"`
	IsOutlier     bool                  `json:"is_outlier"`
	ScoredAt      time.Time             `json:"scored_at"`
}

// KafkaPublisher writes one message per scored area, keyed by area ID
// ⭐ SSOT: 점수 이벤트 발행은 여기서만
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
	logger *logger.Logger
}

// NewKafkaPublisher creates a publisher from config.
// Returns an error when no broker is configured.
func NewKafkaPublisher(cfg config.KafkaConfig, log *logger.Logger) (*KafkaPublisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("topic must not be empty")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return NewWithWriter(w, cfg.Topic, log), nil
}

// NewWithWriter wraps an existing writer, e.g. a test double
func NewWithWriter(w MessageWriter, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		logger: log,
	}
}

// PublishScores emits every record of the set.
// Messages go out in batches; the first failing batch aborts the rest.
func (p *KafkaPublisher) PublishScores(ctx context.Context, set *contracts.ScoreSet) error {
	if set == nil || len(set.Records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(set.Records))
	for _, rec := range set.Records {
		value, err := json.Marshal(NewScoreEvent(rec))
		if err != nil {
			return fmt.Errorf("failed to encode score event for %s: %w", rec.AreaID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(rec.AreaID),
			Value: value,
			Time:  rec.ScoredAt,
			Headers: []kafka.Header{
				{Key: "run_id", Value: []byte(set.RunID)},
				{Key: "schema_version", Value: []byte(SchemaVersion)},
			},
		})
	}

	for start := 0; start < len(msgs); start += batchSize {
		end := min(start+batchSize, len(msgs))
		if err := p.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return fmt.Errorf("failed to write score events [%d:%d]: %w", start, end, err)
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"topic":  p.topic,
		"run_id": set.RunID,
		"events": len(msgs),
	}).Info("Published score events")
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewScoreEvent maps a record to its event payload
func NewScoreEvent(rec contracts.ScoreRecord) ScoreEvent {
	return ScoreEvent{
		SchemaVersion: SchemaVersion,
		RunID:         rec.RunID,
		AreaID:        rec.AreaID,
		AreaName:      rec.AreaName,
		Scores:        rec.Subscores,
		Total:         rec.Total,
		Quantile:      rec.Quantile,
		IsOutlier:     rec.IsOutlier,
		ScoredAt:      rec.ScoredAt,
	}
}
