// Package backoff 实现指数退避重试。
// 用于数据库行情源建立连接时的重试延迟计算，避免数据库尚未就绪时立即失败。
// 默认基础间隔 200ms，最大间隔 5s，抖动 ±20%
package backoff

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Backoff 指数退避计算器
// 每次调用 Next() 返回下一次重试的等待时间，按指数增长直到达到最大值
// 非并发安全，每个重试循环使用独立实例
type Backoff struct {
	base    time.Duration
	max     time.Duration
	jitter  float64
	attempt int
}

// New 创建新的退避计算器
// 参数 base: 基础等待时间
// 参数 max: 最大等待时间
// 参数 jitter: 抖动比例（0-1），例如 0.2 表示 ±20%
func New(base, max time.Duration, jitter float64) *Backoff {
	return &Backoff{base: base, max: max, jitter: jitter}
}

// NewDefault 创建默认配置的退避计算器
func NewDefault() *Backoff {
	return New(200*time.Millisecond, 5*time.Second, 0.2)
}

// Next 获取下次重试的等待时间
// 计算公式: min(base * 2^attempt, max)，然后应用抖动
func (b *Backoff) Next() time.Duration {
	delay := b.max
	// 位移超过 30 位后必然超过 max，避免溢出
	if b.attempt < 31 {
		if d := b.base * time.Duration(int64(1)<<b.attempt); d > 0 && d < b.max {
			delay = d
		}
	}

	if b.jitter > 0 {
		factor := 1.0 + (rand.Float64()*2-1)*b.jitter
		delay = time.Duration(float64(delay) * factor)
	}

	b.attempt++
	return delay
}

// Reset 重置重试次数
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempt 获取当前重试次数
func (b *Backoff) Attempt() int {
	return b.attempt
}

// Wait 等待下一次退避间隔
// ctx 取消时立即返回 ctx.Err()
func (b *Backoff) Wait(ctx context.Context) error {
	t := time.NewTimer(b.Next())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry 最多执行 attempts 次 fn，两次执行之间按退避间隔等待
// fn 返回 nil 即成功；全部失败时返回最后一次错误
func (b *Backoff) Retry(ctx context.Context, attempts int, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	b.Reset()
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		if werr := b.Wait(ctx); werr != nil {
			return fmt.Errorf("重试被取消: %w (上次错误: %v)", werr, err)
		}
	}
	return fmt.Errorf("重试 %d 次后仍失败: %w", attempts, err)
}
