package pacer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer 控制两次外部请求之间的节奏
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay 每次固定等待 Delay，不做自适应
type FixedDelay struct {
	Delay time.Duration
}

func NewFixedDelay(d time.Duration) *FixedDelay {
	return &FixedDelay{Delay: d}
}

func (f *FixedDelay) Wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(f.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RateLimited 基于令牌桶，每个 interval 放行一次请求
type RateLimited struct {
	limiter *rate.Limiter
}

func NewRateLimited(interval time.Duration) *RateLimited {
	return &RateLimited{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (r *RateLimited) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// None 不等待，用于测试或一次性调试
type None struct{}

func (None) Wait(ctx context.Context) error { return ctx.Err() }

// New 按名称构造 Pacer："rate" 为令牌桶，"none" 不等待，其余为固定延迟
func New(kind string, d time.Duration) Pacer {
	switch kind {
	case "rate":
		if d <= 0 {
			return None{}
		}
		return NewRateLimited(d)
	case "none":
		return None{}
	default:
		return NewFixedDelay(d)
	}
}
