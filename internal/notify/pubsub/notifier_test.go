package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	pb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"cloud.google.com/go/pubsub/v2/pstest"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestNotifyPublishesEvent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client, err := pubsub.NewClient(ctx, "clipper-test", option.WithGRPCConn(conn))
	require.NoError(t, err)
	defer client.Close()

	topic := "projects/clipper-test/topics/clips"
	_, err = client.TopicAdminClient.CreateTopic(ctx, &pb.Topic{Name: topic})
	require.NoError(t, err)

	publisher := client.Publisher(topic)
	defer publisher.Stop()

	n := New(publisher)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	require.NoError(t, n.Notify(ctx, "✨ new clip"))

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var event Event
	require.NoError(t, json.Unmarshal(msgs[0].Data, &event))
	require.Equal(t, Event{Text: "✨ new clip", SentAt: fixed}, event)
	require.Equal(t, "application/json", msgs[0].Attributes["content_type"])
}

func TestNotifyWithoutPublisher(t *testing.T) {
	t.Parallel()

	require.Error(t, New(nil).Notify(context.Background(), "x"))
}

func TestCarrierKeys(t *testing.T) {
	t.Parallel()

	c := &pubsubCarrier{attrs: map[string]string{}}
	c.Set("traceparent", "00-abc")
	require.Equal(t, "00-abc", c.Get("traceparent"))
	require.Equal(t, []string{"traceparent"}, c.Keys())
}
