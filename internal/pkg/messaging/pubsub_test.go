package messaging

import (
	"context"
	"io"
	"testing"

	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"cloud.google.com/go/pubsub/v2/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const pubsubTestProject = "queuesend-test"

func newTestPubSub(t *testing.T, topicIDs ...string) (*PubSub, *pstest.Server) {
	t.Helper()
	ctx := context.Background()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	for _, id := range topicIDs {
		_, err := srv.GServer.CreateTopic(ctx, &pubsubpb.Topic{
			Name: "projects/" + pubsubTestProject + "/topics/" + id,
		})
		require.NoError(t, err)
	}

	ps, err := NewPubSub(ctx, PubSubConfig{
		ProjectID: pubsubTestProject,
		ClientOptions: []option.ClientOption{
			option.WithEndpoint(srv.Addr),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ps.Close() })

	return ps, srv
}

func TestPubSub_Publish(t *testing.T) {
	t.Parallel()

	ps, srv := newTestPubSub(t, "orders")

	res, err := ps.Publish(context.Background(), "orders", OutgoingMessage{
		Body:      []byte(`{"id":1}`),
		SessionID: "42",
		Headers:   []Header{{Key: "cID", Value: []byte("c-1")}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.MessageID)
	assert.Equal(t, "orders", res.Topic)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []byte(`{"id":1}`), msgs[0].Data)
	assert.Equal(t, map[string]string{"cID": "c-1", HeaderSessionID: "42"}, msgs[0].Attributes)
}

func TestPubSub_Publish_UnknownTopic(t *testing.T) {
	t.Parallel()

	ps, _ := newTestPubSub(t)

	_, err := ps.Publish(context.Background(), "missing", OutgoingMessage{Body: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pubsub publish")
}

func TestPubSub_Publish_Validation(t *testing.T) {
	t.Parallel()

	ps, _ := newTestPubSub(t)

	_, err := ps.Publish(context.Background(), "", OutgoingMessage{})
	assert.ErrorIs(t, err, ErrPubSubTopicRequired)

	require.NoError(t, ps.Close())
	require.NoError(t, ps.Close())
	_, err = ps.Publish(context.Background(), "orders", OutgoingMessage{})
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	_, err = (&PubSub{}).Publish(context.Background(), "orders", OutgoingMessage{})
	assert.ErrorIs(t, err, ErrPubSubClientRequired)
}

func TestNewPubSub_ProjectRequired(t *testing.T) {
	t.Parallel()

	_, err := NewPubSub(context.Background(), PubSubConfig{})
	assert.ErrorIs(t, err, ErrPubSubProjectIDRequired)
}

func TestPubSubAttributes(t *testing.T) {
	t.Parallel()

	assert.Nil(t, pubSubAttributes(OutgoingMessage{Body: []byte("x")}))
	assert.Equal(t, map[string]string{
		"message-id":   "m-1",
		"content-type": "text/plain",
	}, pubSubAttributes(OutgoingMessage{MessageID: "m-1", ContentType: "text/plain"}))
}
