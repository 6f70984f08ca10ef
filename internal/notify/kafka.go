package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/senyabanana/auction-service/internal/models"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer - часть клиента kgo, нужная для отправки записей.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Event - запись о письме, публикуемая в Kafka.
type Event struct {
	Kind        Kind      `json:"kind"`
	RecipientID uuid.UUID `json:"recipientId"`
	AuctionID   uuid.UUID `json:"auctionId"`
	Mail        Mail      `json:"mail"`
	CreatedAt   time.Time `json:"createdAt"`
}

// KafkaNotifier публикует письма в топик, откуда их забирает почтовый сервис.
type KafkaNotifier struct {
	producer Producer
	topic    string
	now      func() time.Time
}

// NewKafkaClient создает клиента franz-go для публикации в topic.
func NewKafkaClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return client, nil
}

// NewKafkaNotifier создает новый экземпляр KafkaNotifier.
func NewKafkaNotifier(producer Producer, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, now: time.Now}
}

func (n *KafkaNotifier) NotifyAuctionOpened(ctx context.Context, recipient models.User, in Intent) error {
	return n.publish(ctx, recipient, in)
}

func (n *KafkaNotifier) NotifyNewProposal(ctx context.Context, recipient models.User, in Intent) error {
	return n.publish(ctx, recipient, in)
}

func (n *KafkaNotifier) NotifySelectedPhase2(ctx context.Context, recipient models.User, in Intent) error {
	return n.publish(ctx, recipient, in)
}

func (n *KafkaNotifier) NotifyWinner(ctx context.Context, recipient models.User, in Intent) error {
	return n.publish(ctx, recipient, in)
}

func (n *KafkaNotifier) publish(ctx context.Context, recipient models.User, in Intent) error {
	record, err := n.encode(recipient, in)
	if err != nil {
		return err
	}
	if err := n.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s to %s: %w", in.Kind, n.topic, err)
	}
	return nil
}

// encode строит запись с ключом по аукциону, чтобы события одного аукциона шли в одну партицию.
func (n *KafkaNotifier) encode(recipient models.User, in Intent) (*kgo.Record, error) {
	value, err := json.Marshal(Event{
		Kind:        in.Kind,
		RecipientID: recipient.ID,
		AuctionID:   in.AuctionID,
		Mail:        Render(recipient, in),
		CreatedAt:   n.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", in.Kind, err)
	}
	return &kgo.Record{
		Topic: n.topic,
		Key:   []byte(in.AuctionID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(in.Kind)},
		},
	}, nil
}
