package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes JSON documents on a topic.
type IPublisher interface {
	PublishJSON(ctx context.Context, topic string, v any) error
	Close()
}

// Publisher sends messages through a shared MQTT client.
type Publisher struct {
	client mqtt.Client
	qos    byte
}

func NewPublisher(client mqtt.Client, qos byte) *Publisher {
	return &Publisher{client: client, qos: qos}
}

// PublishMessage publishes a raw string payload. It stops waiting for the
// broker's ack when ctx is done; paho may still deliver the message later.
func (p *Publisher) PublishMessage(ctx context.Context, topic, message string) error {
	token := p.client.Publish(topic, p.qos, false, message)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish %s: %w", topic, ctx.Err())
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message: %w", token.Error())
	}
	logger.Debugf("mqtt: published topic=%s bytes=%d", topic, len(message))
	return nil
}

// PublishJSON marshals v and publishes it on topic.
func (p *Publisher) PublishJSON(ctx context.Context, topic string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}
	return p.PublishMessage(ctx, topic, string(b))
}

// Close disconnects the underlying client.
func (p *Publisher) Close() {
	CloseRabbitMQConn(p.client)
}
