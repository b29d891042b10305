package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribeOrder(t *testing.T) {
	t.Parallel()

	b := New[int](4)
	sub := b.Subscribe()
	defer sub.Close()

	for i := 1; i <= 3; i++ {
		b.Publish(i)
	}

	for want := 1; want <= 3; want++ {
		ev, ok := sub.Next()
		require.True(t, ok)
		assert.Zero(t, ev.Lagged)
		assert.Equal(t, want, ev.Value)
	}
	_, ok := sub.Next()
	assert.False(t, ok, "no more events expected")
}

func TestSubscribeSeesOnlyLaterValues(t *testing.T) {
	t.Parallel()

	b := New[string](4)
	b.Publish("before")

	sub := b.Subscribe()
	defer sub.Close()
	b.Publish("after")

	ev, ok := sub.Next()
	require.True(t, ok)
	assert.Equal(t, "after", ev.Value)
}

func TestSlowSubscriberLags(t *testing.T) {
	t.Parallel()

	b := New[int](2)
	sub := b.Subscribe()
	defer sub.Close()

	for i := 1; i <= 5; i++ {
		b.Publish(i)
	}

	// Three oldest values dropped; the lag notice comes first.
	ev, ok := sub.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(3), ev.Lagged)

	ev, ok = sub.Next()
	require.True(t, ok)
	assert.Zero(t, ev.Lagged)
	assert.Equal(t, 4, ev.Value)

	ev, ok = sub.Next()
	require.True(t, ok)
	assert.Equal(t, 5, ev.Value)
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	t.Parallel()

	b := New[int](1)
	sub := b.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestReadySignalsPendingEvents(t *testing.T) {
	t.Parallel()

	b := New[int](4)
	sub := b.Subscribe()
	defer sub.Close()

	b.Publish(1)
	b.Publish(2)

	// Ready fires once; after consuming one event it is re-armed because
	// another is still pending.
	<-sub.Ready()
	_, ok := sub.Next()
	require.True(t, ok)

	select {
	case <-sub.Ready():
	case <-time.After(time.Second):
		t.Fatal("Ready not re-armed with a pending event")
	}
	ev, ok := sub.Next()
	require.True(t, ok)
	assert.Equal(t, 2, ev.Value)
}

func TestRecvBlocksAndDelivers(t *testing.T) {
	t.Parallel()

	b := New[int](4)
	sub := b.Subscribe()
	defer sub.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		b.Publish(42)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev, err := sub.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, ev.Value)
}

func TestRecvHonorsContext(t *testing.T) {
	t.Parallel()

	b := New[int](4)
	sub := b.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := sub.Recv(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseDetachesSubscriber(t *testing.T) {
	t.Parallel()

	b := New[int](4)
	sub := b.Subscribe()
	b.Publish(1)
	sub.Close()

	// Publishing after close must not panic and the subscription stays empty.
	b.Publish(2)
	_, ok := sub.Next()
	assert.False(t, ok)

	_, err := sub.Recv(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
