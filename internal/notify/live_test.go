package notify

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/reqctx"
	"jobboard/internal/tasks"
)

func TestRedisPublisherPublishesToAccountChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, LiveChannel(7))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisher(client)
	require.NoError(t, pub.PublishStatus(ctx, 7, StatusEvent{ApplicationID: 3, Status: "hired"}))

	select {
	case msg := <-sub.Channel():
		var ev StatusEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, "application_status", ev.Type)
		assert.Equal(t, uint(3), ev.ApplicationID)
		assert.Equal(t, "hired", ev.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestRedisPublisherGivesUpOnStalledRedis(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	// 接受连接但从不应答。
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			t.Cleanup(func() { _ = conn.Close() })
		}
	}()

	client := redis.NewClient(&redis.Options{Addr: ln.Addr().String(), ContextTimeoutEnabled: true})
	t.Cleanup(func() { _ = client.Close() })
	pub := NewRedisPublisher(client)
	pub.timeout = 100 * time.Millisecond

	start := time.Now()
	err = pub.PublishStatus(context.Background(), 7, StatusEvent{Status: "hired"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

type recordingEnqueuer struct {
	tasks []*asynq.Task
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "t1"}, nil
}

func TestQueueDispatcherEnqueuesRenderedMessage(t *testing.T) {
	enq := &recordingEnqueuer{}
	d := NewQueueDispatcher(enq, 3, nil)

	msg, err := WelcomeEmail("a@x.io", "Ann", "candidate")
	require.NoError(t, err)

	ctx := reqctx.WithCorrelationID(context.Background(), "corr-1")
	require.NoError(t, d.Dispatch(ctx, msg))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, tasks.TypeEmailDeliver, enq.tasks[0].Type())

	p, err := tasks.ParseEmailDeliverPayload(enq.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, "corr-1", p.CorrelationID)
	assert.Equal(t, msg, FromPayload(p))
}
