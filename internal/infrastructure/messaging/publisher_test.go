package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisherPublish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, "pos.orders", msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "tenant-1", string(key))

		value, err := msg.Value.Encode()
		require.NoError(t, err)
		var body map[string]string
		require.NoError(t, json.Unmarshal(value, &body))
		assert.Equal(t, "o-1", body["orderId"])

		assert.Equal(t, "event_type", string(msg.Headers[0].Key))
		assert.Equal(t, "order.created", string(msg.Headers[0].Value))
		return nil
	})

	p := NewKafkaPublisherWithProducer(producer)
	err := p.Publish(context.Background(), Message{
		Topic: "pos.orders",
		Key:   "tenant-1",
		Type:  "order.created",
		ID:    "evt-1",
		Value: map[string]string{"orderId": "o-1"},
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestKafkaPublisherReturnsSendError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(errors.New("broker down"))

	p := NewKafkaPublisherWithProducer(producer)
	err := p.Publish(context.Background(), Message{Topic: "pos.billing", Type: "payment.completed", Value: struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	require.NoError(t, p.Close())
}

func TestNoopPublisher(t *testing.T) {
	var p NoopPublisher
	assert.NoError(t, p.Publish(context.Background(), Message{}))
	assert.NoError(t, p.Close())
}
