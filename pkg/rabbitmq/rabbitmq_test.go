package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

// stalledToken never completes, like a publish to a reconnecting broker.
type stalledToken struct{ done chan struct{} }

func (t stalledToken) Wait() bool                     { <-t.done; return true }
func (t stalledToken) WaitTimeout(time.Duration) bool { return false }
func (t stalledToken) Error() error                   { return nil }
func (t stalledToken) Done() <-chan struct{}          { return t.done }

type published struct {
	topic   string
	qos     byte
	payload string
}

// fakeClient implements the subset of mqtt.Client used by the package.
type fakeClient struct {
	mqtt.Client

	mu           sync.Mutex
	connected    bool
	publishErr   error
	stall        bool
	published    []published
	subs         map[string]mqtt.MessageHandler
	unsubscribed []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{connected: true, subs: map[string]mqtt.MessageHandler{}}
}

func (f *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return doneToken{err: f.publishErr}
	}
	if f.stall {
		return stalledToken{done: make(chan struct{})}
	}
	f.published = append(f.published, published{topic: topic, qos: qos, payload: payload.(string)})
	return doneToken{}
}

func (f *fakeClient) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[topic] = cb
	return doneToken{}
}

func (f *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribed = append(f.unsubscribed, topics...)
	return doneToken{}
}

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func (f *fakeClient) handler(topic string) mqtt.MessageHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[topic]
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestQosFor(t *testing.T) {
	assert.Equal(t, byte(1), qosFor("sensor/aggregated/#"))
	assert.Equal(t, byte(1), qosFor(" event/recommendation/P001"))
	assert.Equal(t, byte(0), qosFor("sensor/raw/x"))
}

func TestConsumerDispatchesAndUnsubscribes(t *testing.T) {
	client := newFakeClient()
	got := make(chan string, 1)
	c := NewConsumer(client, func(topic string, msg mqtt.Message) error {
		got <- topic + "=" + string(msg.Payload())
		return nil
	}, "sensor/aggregated/#")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.ConsumeMessage(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return client.handler("sensor/aggregated/#") != nil }, time.Second, 5*time.Millisecond)
	client.handler("sensor/aggregated/#")(client, fakeMessage{topic: "sensor/aggregated/field_1/s1", payload: []byte("42")})

	select {
	case v := <-got:
		assert.Equal(t, "sensor/aggregated/field_1/s1=42", v)
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}

	cancel()
	<-done
	assert.Equal(t, []string{"sensor/aggregated/#"}, client.unsubscribed)
}

func TestConsumerWithoutHandlerDoesNotPanic(t *testing.T) {
	c := NewConsumer(newFakeClient(), nil, "t")
	assert.NotPanics(t, func() { c.dispatch("t", fakeMessage{topic: "t"}) })

	c.SetHandler(func(string, mqtt.Message) error { return errors.New("boom") })
	assert.NotPanics(t, func() { c.dispatch("t", fakeMessage{topic: "t"}) })
	assert.Equal(t, []string{"t"}, c.Topics())
}

func TestPublisherPublishJSON(t *testing.T) {
	client := newFakeClient()
	p := NewPublisher(client, 1)

	ctx := context.Background()
	require.NoError(t, p.PublishJSON(ctx, "event/recommendation/P001", map[string]int{"n": 1}))
	require.Len(t, client.published, 1)
	assert.Equal(t, published{topic: "event/recommendation/P001", qos: 1, payload: `{"n":1}`}, client.published[0])

	assert.Error(t, p.PublishJSON(ctx, "x", func() {}))

	client.publishErr = errors.New("broker down")
	assert.ErrorContains(t, p.PublishMessage(ctx, "x", "y"), "broker down")

	p.Close()
	assert.False(t, client.IsConnected())
}

func TestPublishGivesUpWithContext(t *testing.T) {
	client := newFakeClient()
	client.stall = true
	p := NewPublisher(client, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := p.PublishJSON(ctx, "event/recommendation/P001", map[string]int{"n": 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBroker(t *testing.T) {
	cfg := &RabbitMQConfig{Host: "rabbitmq", Port: 1883}
	assert.Equal(t, "tcp://rabbitmq:1883", cfg.Broker())
}
