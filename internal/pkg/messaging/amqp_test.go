package messaging

import (
	"context"
	"errors"
	"io"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAMQPChannel struct {
	confirmErr error
	publishErr error
	closeErr   error
	ack        bool
	noConfirm  bool

	exchange  string
	key       string
	published []amqp.Publishing
	confirms  chan amqp.Confirmation
	closed    bool
}

func (f *fakeAMQPChannel) Confirm(bool) error { return f.confirmErr }

func (f *fakeAMQPChannel) NotifyPublish(c chan amqp.Confirmation) chan amqp.Confirmation {
	f.confirms = c
	return c
}

func (f *fakeAMQPChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.exchange = exchange
	f.key = key
	f.published = append(f.published, msg)
	if f.noConfirm {
		close(f.confirms)
		return nil
	}
	f.confirms <- amqp.Confirmation{DeliveryTag: uint64(len(f.published)), Ack: f.ack}
	return nil
}

func (f *fakeAMQPChannel) Close() error {
	f.closed = true
	return f.closeErr
}

type fakeAMQPConn struct {
	ch     *fakeAMQPChannel
	chErr  error
	closed int
}

func (f *fakeAMQPConn) Channel() (amqpChannel, error) {
	if f.chErr != nil {
		return nil, f.chErr
	}
	return f.ch, nil
}

func (f *fakeAMQPConn) Close() error {
	f.closed++
	return nil
}

func TestAMQP_Publish(t *testing.T) {
	t.Parallel()

	ch := &fakeAMQPChannel{ack: true}
	conn := &fakeAMQPConn{ch: ch}
	a := newAMQP(conn, AMQPConfig{})

	res, err := a.Publish(context.Background(), "orders", OutgoingMessage{
		Body:        []byte(`{"id":1}`),
		MessageID:   "m-1",
		SessionID:   "42",
		ContentType: "application/json",
		Headers:     []Header{{Key: "cID", Value: []byte("c-1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "orders", res.Topic)
	assert.Equal(t, "m-1", res.MessageID)
	assert.True(t, ch.closed)

	assert.Empty(t, ch.exchange)
	assert.Equal(t, "orders", ch.key)
	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, []byte(`{"id":1}`), got.Body)
	assert.Equal(t, "m-1", got.MessageId)
	assert.Equal(t, "application/json", got.ContentType)
	assert.Equal(t, amqp.Persistent, got.DeliveryMode)
	assert.Equal(t, amqp.Table{"cID": "c-1", HeaderSessionID: "42"}, got.Headers)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.Equal(t, 1, conn.closed)

	_, err = a.Publish(context.Background(), "orders", OutgoingMessage{})
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestAMQP_Publish_ExchangeAndTransient(t *testing.T) {
	t.Parallel()

	ch := &fakeAMQPChannel{ack: true}
	a := newAMQP(&fakeAMQPConn{ch: ch}, AMQPConfig{Exchange: "events", Transient: true})

	_, err := a.Publish(context.Background(), "orders", OutgoingMessage{Body: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "events", ch.exchange)
	assert.Equal(t, amqp.Transient, ch.published[0].DeliveryMode)
	assert.Nil(t, ch.published[0].Headers)
}

func TestAMQP_Publish_Errors(t *testing.T) {
	t.Parallel()

	chErr := errors.New("channel_max reached")
	confirmErr := errors.New("confirm not supported")
	publishErr := errors.New("connection reset")
	closeErr := errors.New("channel close failed")

	tests := []struct {
		name  string
		conn  *fakeAMQPConn
		queue string
		want  error
	}{
		{name: "empty queue", conn: &fakeAMQPConn{ch: &fakeAMQPChannel{}}, queue: "", want: ErrAMQPQueueRequired},
		{name: "channel error", conn: &fakeAMQPConn{chErr: chErr}, queue: "q", want: chErr},
		{name: "confirm error", conn: &fakeAMQPConn{ch: &fakeAMQPChannel{confirmErr: confirmErr}}, queue: "q", want: confirmErr},
		{name: "publish error", conn: &fakeAMQPConn{ch: &fakeAMQPChannel{publishErr: publishErr}}, queue: "q", want: publishErr},
		{name: "nack", conn: &fakeAMQPConn{ch: &fakeAMQPChannel{ack: false}}, queue: "q", want: ErrAMQPNacked},
		{name: "channel closed", conn: &fakeAMQPConn{ch: &fakeAMQPChannel{noConfirm: true}}, queue: "q", want: ErrAMQPChannelClosed},
		{name: "close error", conn: &fakeAMQPConn{ch: &fakeAMQPChannel{ack: true, closeErr: closeErr}}, queue: "q", want: closeErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := newAMQP(tt.conn, AMQPConfig{})
			_, err := a.Publish(context.Background(), tt.queue, OutgoingMessage{Body: []byte("x")})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewAMQP_URLRequired(t *testing.T) {
	t.Parallel()

	_, err := NewAMQP(AMQPConfig{})
	assert.ErrorIs(t, err, ErrAMQPURLRequired)
}
