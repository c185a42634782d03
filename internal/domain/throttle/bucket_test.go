package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestBucket(t *testing.T) (*Bucket, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	return NewBucket(DefaultConfig(), clock.Now), clock
}

func TestBucketStartsFull(t *testing.T) {
	b, _ := newTestBucket(t)

	status := b.Check()
	assert.Equal(t, 40, status.Tokens)
	assert.Equal(t, 40, status.MaxTokens)
}

func TestBucketBurstThenDeny(t *testing.T) {
	b, _ := newTestBucket(t)

	for i := 0; i < 40; i++ {
		decision := b.Consume(1)
		require.True(t, decision.Allowed, "consume %d should be allowed", i+1)
	}

	decision := b.Consume(1)
	require.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Tokens)
	assert.Equal(t, 50*time.Millisecond, decision.RetryAfter)
}

func TestBucketDenialMutatesNothing(t *testing.T) {
	b, clock := newTestBucket(t)

	for i := 0; i < 40; i++ {
		b.Consume(1)
	}
	before := b.Snapshot()

	denied := b.Consume(1)
	require.False(t, denied.Allowed)
	assert.Equal(t, before, b.Snapshot())

	// The next whole interval still credits relative to the original
	// refill time, not the denial.
	clock.Advance(50 * time.Millisecond)
	decision := b.Consume(1)
	require.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.Tokens)
}

func TestBucketRefillWholeIntervalsOnly(t *testing.T) {
	b, clock := newTestBucket(t)

	for i := 0; i < 40; i++ {
		b.Consume(1)
	}

	// 75ms is one whole interval plus change: exactly one credit of 2.
	clock.Advance(75 * time.Millisecond)
	status := b.Check()
	assert.Equal(t, 2, status.Tokens)

	// The leftover 25ms carries over: 25ms later the second interval
	// completes.
	clock.Advance(25 * time.Millisecond)
	status = b.Check()
	assert.Equal(t, 4, status.Tokens)
}

func TestBucketRefillCapsAtMax(t *testing.T) {
	b, clock := newTestBucket(t)

	b.Consume(5)
	clock.Advance(time.Hour)

	status := b.Check()
	assert.Equal(t, 40, status.Tokens)
}

func TestBucketConsumeMultipleTokens(t *testing.T) {
	b, _ := newTestBucket(t)

	decision := b.Consume(25)
	require.True(t, decision.Allowed)
	assert.Equal(t, 15, decision.Tokens)

	decision = b.Consume(16)
	require.False(t, decision.Allowed)
	assert.Equal(t, 15, decision.Tokens)

	decision = b.Consume(15)
	require.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.Tokens)
}

func TestBucketConsumeZeroDefaultsToOne(t *testing.T) {
	b, _ := newTestBucket(t)

	decision := b.Consume(0)
	require.True(t, decision.Allowed)
	assert.Equal(t, 39, decision.Tokens)
}

func TestBucketReset(t *testing.T) {
	b, _ := newTestBucket(t)

	for i := 0; i < 40; i++ {
		b.Consume(1)
	}
	require.Equal(t, 0, b.Check().Tokens)

	assert.Equal(t, 40, b.Reset())
	assert.Equal(t, 40, b.Check().Tokens)
}

func TestBucketRestoreClampsSnapshot(t *testing.T) {
	cases := []struct {
		name     string
		snapshot Snapshot
		want     int
	}{
		{"within bounds", Snapshot{Tokens: 12}, 12},
		{"above max", Snapshot{Tokens: 500}, 40},
		{"negative", Snapshot{Tokens: -3}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, _ := newTestBucket(t)
			b.Restore(tc.snapshot)
			assert.Equal(t, tc.want, b.Snapshot().Tokens)
		})
	}
}

func TestBucketRestoreKeepsRefillTime(t *testing.T) {
	b, clock := newTestBucket(t)

	past := clock.Now().Add(-125 * time.Millisecond)
	b.Restore(Snapshot{Tokens: 0, LastRefill: past})

	// Two whole intervals elapsed since the persisted refill time.
	status := b.Check()
	assert.Equal(t, 4, status.Tokens)
}
