package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ReelMarket/pkg/correlation"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	pending   []kafka.Message
	committed []int64
	drained   chan struct{}
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{pending: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.pending) > 0 {
		msg := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	close(r.drained)
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Config() kafka.ReaderConfig {
	return kafka.ReaderConfig{Topic: "payments.events", GroupID: "reelmarket-payments"}
}

func (r *fakeReader) Close() error { return nil }

func TestConsumer_Start(t *testing.T) {
	t.Run("should redeliver rejected message before moving on", func(t *testing.T) {
		// given
		reader := newFakeReader(
			kafka.Message{Topic: "payments.events", Offset: 1, Key: []byte("pi_1")},
			kafka.Message{Topic: "payments.events", Offset: 2, Key: []byte("pi_2")},
		)
		var (
			mu   sync.Mutex
			seen []string
		)
		failOnce := true
		handler := func(_ context.Context, key, _ []byte) error {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, string(key))
			if string(key) == "pi_1" && failOnce {
				failOnce = false
				return errors.New("dlq unavailable")
			}
			return nil
		}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		// when
		go func() { done <- NewConsumerWithReader(reader).Start(ctx, handler) }()
		select {
		case <-reader.drained:
		case <-time.After(5 * time.Second):
			t.Fatal("consumer did not drain messages")
		}
		cancel()

		// then
		require.NoError(t, <-done)
		assert.Equal(t, []string{"pi_1", "pi_1", "pi_2"}, seen)
		assert.Equal(t, []int64{1, 2}, reader.committed)
	})

	t.Run("should stop without committing when cancelled mid-redelivery", func(t *testing.T) {
		// given
		reader := newFakeReader(kafka.Message{Topic: "payments.events", Offset: 7})
		ctx, cancel := context.WithCancel(context.Background())
		handler := func(context.Context, []byte, []byte) error {
			cancel()
			return errors.New("boom")
		}

		// when
		err := NewConsumerWithReader(reader).Start(ctx, handler)

		// then
		require.NoError(t, err)
		assert.Empty(t, reader.committed)
	})

	t.Run("should pass correlation id from headers to handler", func(t *testing.T) {
		// given
		reader := newFakeReader(kafka.Message{
			Offset:  3,
			Headers: []kafka.Header{{Key: correlation.KafkaHeaderName, Value: []byte("corr-42")}},
		})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		got := make(chan string, 1)
		handler := func(ctx context.Context, _, _ []byte) error {
			got <- correlation.FromContext(ctx)
			return nil
		}

		// when
		go func() { _ = NewConsumerWithReader(reader).Start(ctx, handler) }()

		// then
		select {
		case id := <-got:
			assert.Equal(t, "corr-42", id)
		case <-time.After(5 * time.Second):
			t.Fatal("handler was not called")
		}
	})
}
