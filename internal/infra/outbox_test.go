package infra

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutboxStore struct {
	records []domain.OutboxRecord
	marked  []int64
}

func (s *fakeOutboxStore) FetchUnpublished(_ context.Context, limit int) ([]domain.OutboxRecord, error) {
	if len(s.records) > limit {
		return s.records[:limit], nil
	}
	return s.records, nil
}

func (s *fakeOutboxStore) MarkPublished(_ context.Context, ids []int64) error {
	s.marked = append(s.marked, ids...)
	return nil
}

type publishedMsg struct {
	topic string
	key   string
	value []byte
}

type fakePublisher struct {
	msgs    []publishedMsg
	failKey string
}

func (p *fakePublisher) Publish(_ context.Context, topic string, key, value []byte) error {
	if string(key) == p.failKey {
		return errors.New("broker unavailable")
	}
	p.msgs = append(p.msgs, publishedMsg{topic: topic, key: string(key), value: value})
	return nil
}

func TestOutboxPoller_Poll(t *testing.T) {
	r := &domain.RoundResult{RoundID: "r-1", SessionID: "s-1", Mode: domain.ModeLadder}
	tx := &domain.Transaction{SessionID: "s-2", Type: domain.TxDebit, Amount: 10}
	store := &fakeOutboxStore{records: []domain.OutboxRecord{
		{SeqID: 1, OutboxDraft: domain.NewRoundSettledEvent(r)},
		{SeqID: 2, OutboxDraft: domain.NewTransactionPostedEvent(tx)},
	}}
	pub := &fakePublisher{failKey: "s-2"}

	n, err := NewOutboxPoller(store, pub, 0, 0, testLogger).Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, store.marked, "failed publishes stay queued")
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "faketoto.round.wager.round.settled", pub.msgs[0].topic)
	assert.Equal(t, "s-1", pub.msgs[0].key)

	var body map[string]any
	require.NoError(t, json.Unmarshal(pub.msgs[0].value, &body))
	assert.Equal(t, "r-1", body["aggregate_id"])
}

func TestOutboxPoller_Empty(t *testing.T) {
	store := &fakeOutboxStore{}
	n, err := NewOutboxPoller(store, &fakePublisher{}, 0, 0, testLogger).Poll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.marked)
}
