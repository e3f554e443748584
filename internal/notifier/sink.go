package notifier

import (
	"context"
	"errors"

	"sugar-price-sentry/pkg/types"
)

// Sink 快照消费者。会话在持有自身锁时调用Notify，实现不得回调会话
type Sink interface {
	Notify(ctx context.Context, snap *types.Snapshot) error
}

// SinkFunc 函数适配器
type SinkFunc func(ctx context.Context, snap *types.Snapshot) error

func (f SinkFunc) Notify(ctx context.Context, snap *types.Snapshot) error {
	return f(ctx, snap)
}

// Multi 依次分发给多个消费者，汇总错误
type Multi []Sink

func (m Multi) Notify(ctx context.Context, snap *types.Snapshot) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Notify(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
