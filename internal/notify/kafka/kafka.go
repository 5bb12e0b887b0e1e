// Package kafka publishes notification intents and re-match requests with
// franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"givecycle/internal/matching/models"
)

const (
	headerKind     = "kind"
	headerAudience = "audience"
)

// NewClient connects a producer to brokers.
func NewClient(brokers []string, opts ...kgo.Opt) (*kgo.Client, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ClientID("givecycle"),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopics creates topics that do not exist yet.
func EnsureTopics(ctx context.Context, client *kgo.Client, partitions int32, replicationFactor int16, topics ...string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, t := range resp.Sorted() {
		if t.Err != nil && !errors.Is(t.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

// Sink produces each intent as one JSON record keyed by match id, so all
// intents of a match land on the same partition in order.
type Sink struct {
	client *kgo.Client
	topic  string
}

func NewSink(client *kgo.Client, topic string) (*Sink, error) {
	if client == nil {
		return nil, errors.New("kafka client is required")
	}
	if topic == "" {
		return nil, errors.New("notifications topic is required")
	}
	return &Sink{client: client, topic: topic}, nil
}

func (s *Sink) Deliver(ctx context.Context, batch []models.Intent) error {
	records := make([]*kgo.Record, 0, len(batch))
	for _, in := range batch {
		value, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode intent %s: %w", in.ID, err)
		}
		records = append(records, &kgo.Record{
			Topic: s.topic,
			Key:   []byte(in.MatchID.String()),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: headerKind, Value: []byte(in.Kind)},
				{Key: headerAudience, Value: []byte(in.Audience)},
			},
		})
	}
	if err := s.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce intents: %w", err)
	}
	return nil
}

// Rematcher publishes re-match requests for the upstream donation-request
// flow, keyed by recipient.
type Rematcher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewRematcher(client *kgo.Client, topic string, logger *slog.Logger) (*Rematcher, error) {
	if client == nil {
		return nil, errors.New("kafka client is required")
	}
	if topic == "" {
		return nil, errors.New("rematch topic is required")
	}
	return &Rematcher{client: client, topic: topic, logger: logger}, nil
}

func (r *Rematcher) Rematch(ctx context.Context, req models.RematchRequest) error {
	value, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode rematch request: %w", err)
	}
	record := &kgo.Record{
		Topic: r.topic,
		Key:   []byte(req.RecipientID),
		Value: value,
	}
	if err := r.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce rematch request: %w", err)
	}
	if r.logger != nil {
		r.logger.DebugContext(ctx, "re-match request published",
			"recipient_id", req.RecipientID,
			"expired_match_id", req.ExpiredMatch,
		)
	}
	return nil
}
