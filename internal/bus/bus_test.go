package bus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStreamer struct {
	args []*goredis.XAddArgs
	err  error
}

func (f *fakeStreamer) XAdd(_ context.Context, a *goredis.XAddArgs) *goredis.StringCmd {
	f.args = append(f.args, a)
	if f.err != nil {
		return goredis.NewStringResult("", f.err)
	}
	return goredis.NewStringResult("1700000000000-0", nil)
}

func TestRedisPublisher_Publish(t *testing.T) {
	rdb := &fakeStreamer{}
	p := NewRedisPublisher(rdb, Config{StreamPrefix: "events:", Originator: "submissions-api", MaxLen: 1000}, nil)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	err := p.Publish(context.Background(), TopicCreate, map[string]any{"resource": "review", "id": "r1"})
	require.NoError(t, err)
	require.Len(t, rdb.args, 1)

	args := rdb.args[0]
	assert.Equal(t, "events:"+TopicCreate, args.Stream)
	assert.Equal(t, int64(1000), args.MaxLen)
	assert.True(t, args.Approx)

	values := args.Values.(map[string]any)
	var event Event
	require.NoError(t, json.Unmarshal([]byte(values["event"].(string)), &event))
	assert.Equal(t, TopicCreate, event.Topic)
	assert.Equal(t, "submissions-api", event.Originator)
	assert.Equal(t, "2024-05-01T12:00:00Z", event.Timestamp)
	assert.Equal(t, "application/json", event.MimeType)
	assert.Equal(t, map[string]any{"resource": "review", "id": "r1"}, event.Payload)
}

func TestRedisPublisher_Unbounded(t *testing.T) {
	rdb := &fakeStreamer{}
	p := NewRedisPublisher(rdb, Config{}, nil)

	require.NoError(t, p.Publish(context.Background(), TopicDelete, "s1"))
	assert.Zero(t, rdb.args[0].MaxLen)
	assert.False(t, rdb.args[0].Approx)
}

func TestRedisPublisher_Error(t *testing.T) {
	p := NewRedisPublisher(&fakeStreamer{err: errors.New("connection refused")}, Config{}, nil)

	err := p.Publish(context.Background(), TopicUpdate, "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), TopicUpdate)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), TopicCreate, nil))
}
