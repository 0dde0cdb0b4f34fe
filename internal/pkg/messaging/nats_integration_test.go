//go:build integration

package messaging

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	natsImage       = "nats:2.10-alpine"
	natsTestTimeout = 30 * time.Second
)

func setupNATS(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        natsImage,
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(natsTestTimeout),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate nats container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("nats://%s:%s", host, port.Port())
}

func TestNATS_PublishIntegration(t *testing.T) {
	url := setupNATS(t)

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()

	ch := make(chan *nats.Msg, 1)
	s, err := sub.ChanSubscribe("orders", ch)
	require.NoError(t, err)
	defer s.Unsubscribe() //nolint:errcheck
	require.NoError(t, sub.Flush())

	pub, err := NewNATS(NATSConfig{URL: url})
	require.NoError(t, err)
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), natsTestTimeout)
	defer cancel()

	_, err = pub.Publish(ctx, "orders", OutgoingMessage{Body: []byte("hello"), SessionID: "42"})
	require.NoError(t, err)

	select {
	case msg := <-ch:
		assert.Equal(t, []byte("hello"), msg.Data)
		assert.Equal(t, "42", msg.Header.Get(HeaderSessionID))
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}
