package throttle

import "time"

// Config is the static shape of a token bucket. Defaults model roughly
// 40 req/s of burst capacity for one upstream domain.
type Config struct {
	MaxTokens      int
	RefillRate     int
	RefillInterval time.Duration
}

// DefaultConfig returns the stock bucket: max 40 tokens, 2 tokens per 50ms.
func DefaultConfig() Config {
	return Config{
		MaxTokens:      40,
		RefillRate:     2,
		RefillInterval: 50 * time.Millisecond,
	}
}

// Decision is the outcome of a consume attempt.
type Decision struct {
	Allowed    bool
	Tokens     int
	MaxTokens  int
	RetryAfter time.Duration
}

// Status reports bucket state without consuming.
type Status struct {
	Tokens     int
	MaxTokens  int
	LastRefill time.Time
}

// Snapshot is the persistable portion of bucket state.
type Snapshot struct {
	Tokens     int
	LastRefill time.Time
}

// Bucket implements token-bucket admission arithmetic. It is not safe for
// concurrent use; the throttle actor serializes access.
type Bucket struct {
	cfg        Config
	tokens     int
	lastRefill time.Time
	now        func() time.Time
}

// NewBucket starts a bucket full. nowFn may be nil, defaulting to time.Now.
func NewBucket(cfg Config, nowFn func() time.Time) *Bucket {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Bucket{
		cfg:        cfg,
		tokens:     cfg.MaxTokens,
		lastRefill: nowFn(),
		now:        nowFn,
	}
}

// refill advances lastRefill by whole intervals only, so repeated calls
// within the same interval never double-credit.
func (b *Bucket) refill() {
	elapsed := b.now().Sub(b.lastRefill)
	if elapsed < b.cfg.RefillInterval {
		return
	}
	intervals := int64(elapsed / b.cfg.RefillInterval)
	b.tokens += int(intervals) * b.cfg.RefillRate
	if b.tokens > b.cfg.MaxTokens {
		b.tokens = b.cfg.MaxTokens
	}
	b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * b.cfg.RefillInterval)
}

// Consume attempts to take n tokens. A denial mutates nothing and carries
// the refill interval as the retry hint.
func (b *Bucket) Consume(n int) Decision {
	if n <= 0 {
		n = 1
	}
	b.refill()
	if b.tokens >= n {
		b.tokens -= n
		return Decision{Allowed: true, Tokens: b.tokens, MaxTokens: b.cfg.MaxTokens}
	}
	return Decision{
		Allowed:    false,
		Tokens:     b.tokens,
		MaxTokens:  b.cfg.MaxTokens,
		RetryAfter: b.cfg.RefillInterval,
	}
}

// Check refills and reports current state without consuming.
func (b *Bucket) Check() Status {
	b.refill()
	return Status{Tokens: b.tokens, MaxTokens: b.cfg.MaxTokens, LastRefill: b.lastRefill}
}

// Reset restores the bucket to full. Test and ops utility only.
func (b *Bucket) Reset() int {
	b.tokens = b.cfg.MaxTokens
	b.lastRefill = b.now()
	return b.tokens
}

// Snapshot exports state for persistence.
func (b *Bucket) Snapshot() Snapshot {
	return Snapshot{Tokens: b.tokens, LastRefill: b.lastRefill}
}

// Restore loads a persisted snapshot, clamping to the configured bounds.
func (b *Bucket) Restore(s Snapshot) {
	b.tokens = s.Tokens
	if b.tokens > b.cfg.MaxTokens {
		b.tokens = b.cfg.MaxTokens
	}
	if b.tokens < 0 {
		b.tokens = 0
	}
	if !s.LastRefill.IsZero() {
		b.lastRefill = s.LastRefill
	}
}
