package events

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/roosmar/backoffice/pkg/models"
)

const (
	OrderCreatedTopic = "order.created"
)

// OrderCreatedEvent is the lightweight projection published when an order
// is materialized. Downstream consumers that need the full record fetch it
// over the API.
type OrderCreatedEvent struct {
	OrderID      string              `json:"order_id"`
	ClientName   string              `json:"client_name,omitempty"`
	ItemCount    int                 `json:"item_count"`
	DeliveryMode models.DeliveryMode `json:"delivery_mode"`
	Total        decimal.Decimal     `json:"total"`
	CreatedAt    time.Time           `json:"created_at"`
	EventTime    time.Time           `json:"event_time"`
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer([]string{brokers}, config)
	if err != nil {
		return nil, err
	}

	return &KafkaProducer{
		producer: producer,
		logger:   logger,
	}, nil
}

// PublishOrderCreated projects the order into an event and sends it keyed
// by order ID. Publish failures are the caller's to log; order creation
// never awaits or depends on the broker.
func (p *KafkaProducer) PublishOrderCreated(order models.Order) error {
	event := OrderCreatedEvent{
		OrderID:      order.ID,
		ItemCount:    len(order.Items),
		DeliveryMode: order.DeliveryMode,
		Total:        order.Total,
		CreatedAt:    order.CreatedAt,
		EventTime:    time.Now(),
	}
	if order.Client != nil {
		event.ClientName = order.Client.Name
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: OrderCreatedTopic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).Error("Failed to send message to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     OrderCreatedTopic,
		"partition": partition,
		"offset":    offset,
		"order_id":  event.OrderID,
	}).Info("Event published to Kafka")

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
