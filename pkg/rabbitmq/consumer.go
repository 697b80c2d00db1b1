package rabbitmq

import (
	"context"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one message received on topic.
type Handler func(topic string, message mqtt.Message) error

// IConsumer is implemented by Consumer; services depend on it for tests.
type IConsumer interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler Handler)
}

// Consumer subscribes a shared MQTT client to one or more topic filters.
type Consumer struct {
	client  mqtt.Client
	handler Handler
	topics  []string
}

func NewConsumer(client mqtt.Client, handler Handler, topics ...string) *Consumer {
	return &Consumer{
		client:  client,
		topics:  topics,
		handler: handler,
	}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

// Topics returns the subscribed filters.
func (c *Consumer) Topics() []string { return c.topics }

func qosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "sensor/aggregated") ||
		strings.HasPrefix(t, "event/recommendation") {
		return 1
	}
	return 0
}

// ConsumeMessage subscribes every topic and blocks until ctx is cancelled,
// then unsubscribes.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	for _, topic := range c.topics {
		topic := topic
		token := c.client.Subscribe(topic, qosFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			c.dispatch(topic, msg)
		})
		token.Wait()
		if token.Error() != nil {
			logger.Errorf("mqtt: subscribe failed topic=%s err=%v", topic, token.Error())
			continue
		}
		logger.Infof("mqtt: subscribed topic=%s qos=%d", topic, qosFor(topic))
	}

	<-ctx.Done()

	for _, topic := range c.topics {
		c.client.Unsubscribe(topic).Wait()
	}
}

func (c *Consumer) dispatch(topic string, msg mqtt.Message) {
	if c.handler == nil {
		logger.Warnf("mqtt: no handler set topic=%s", topic)
		return
	}
	if err := c.handler(msg.Topic(), msg); err != nil {
		logger.Warnf("mqtt: handler error topic=%s err=%v", msg.Topic(), err)
	}
}
