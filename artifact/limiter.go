package artifact

import (
	"context"

	"golang.org/x/time/rate"
)

// ioLimiter throttles blob writes to a byte rate.
type ioLimiter struct {
	limiter *rate.Limiter
	burst   int
}

// newIOLimiter returns nil when bytesPerSec is not positive.
func newIOLimiter(bytesPerSec int64) *ioLimiter {
	if bytesPerSec <= 0 {
		return nil
	}
	burst := int(min(bytesPerSec, 1<<30))
	return &ioLimiter{
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
		burst:   burst,
	}
}

// chunk is the largest write that a single wait may cover.
func (l *ioLimiter) chunk() int {
	return min(l.burst, 256*1024)
}

// acquire waits until n bytes may be written. n must not exceed the burst.
func (l *ioLimiter) acquire(ctx context.Context, n int) error {
	if l == nil {
		return nil
	}
	return l.limiter.WaitN(ctx, n)
}
