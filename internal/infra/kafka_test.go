package infra

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	fetchErr  error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		if r.fetchErr != nil {
			return kafka.Message{}, r.fetchErr
		}
		return kafka.Message{}, context.Canceled
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, splitBrokers(" k1:9092, ,k2:9092 "))
	assert.Empty(t, splitBrokers(""))
}

func TestKafkaConsumer_DisabledReturnsImmediately(t *testing.T) {
	c := NewKafkaConsumer("", "faketoto.notifications", "g", true, testLogger)
	called := false
	require.NoError(t, c.Consume(context.Background(), func(context.Context, []byte, []byte) error {
		called = true
		return nil
	}))
	assert.False(t, called)
	assert.NoError(t, c.Close())
}

func TestKafkaConsumer_CommitsEveryMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{msgs: []kafka.Message{
		{Key: []byte("s1"), Value: []byte(`{"message":"a"}`), Offset: 1},
		{Key: []byte("s2"), Value: []byte(`bad`), Offset: 2},
		{Key: []byte("s1"), Value: []byte(`{"message":"b"}`), Offset: 3},
	}}
	c := &KafkaConsumer{reader: reader, logger: testLogger, enabled: true}

	var keys []string
	err := c.Consume(ctx, func(_ context.Context, key, value []byte) error {
		keys = append(keys, string(key))
		if string(value) == "bad" {
			return errors.New("malformed")
		}
		if len(keys) == 3 {
			cancel()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s1"}, keys)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
}

func TestKafkaConsumer_FetchErrorStops(t *testing.T) {
	reader := &fakeReader{fetchErr: errors.New("broker gone")}
	c := &KafkaConsumer{reader: reader, logger: testLogger, enabled: true}

	err := c.Consume(context.Background(), func(context.Context, []byte, []byte) error { return nil })
	assert.EqualError(t, err, "broker gone")
}
