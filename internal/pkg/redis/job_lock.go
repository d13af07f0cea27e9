package redis

import (
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// JobLock 多实例部署时同一任务同一时刻只在一个实例上执行
type JobLock struct {
	key string
	ttl time.Duration
}

func NewJobLock(key string, ttl time.Duration) *JobLock {
	return &JobLock{key: key, ttl: ttl}
}

// Acquire 未抢到锁时返回 ok=false，抢到时返回的 release 必须调用
func (l *JobLock) Acquire(ctx context.Context) (release func(), ok bool, err error) {
	token := uuid.NewString()
	ok, err = TryLock(ctx, l.key, token, l.ttl, 0, 0)
	if err != nil || !ok {
		return nil, ok, err
	}
	return func() {
		if err := UnLock(context.WithoutCancel(ctx), l.key, token); err != nil {
			log.WarnContext(ctx, "release job lock failed", "key", l.key, "err", err)
		}
	}, true, nil
}
