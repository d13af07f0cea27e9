package logger

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSlowRedis = 100 * time.Millisecond

// RedisLoggerHook 记录失败与慢命令
type RedisLoggerHook struct {
	slow time.Duration
}

func NewRedisLogger(slow time.Duration) *RedisLoggerHook {
	if slow <= 0 {
		slow = defaultSlowRedis
	}
	return &RedisLoggerHook{slow: slow}
}

func (s *RedisLoggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			log.ErrorContext(ctx, "Redis Dial Error", "addr", addr, "latency", time.Since(start), "err", err)
		}
		return conn, err
	}
}

func (s *RedisLoggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		s.report(ctx, cmd.Name(), redactArgs(cmd), time.Since(start), err)
		return err
	}
}

func (s *RedisLoggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		s.report(ctx, "pipeline", fmt.Sprintf("%d cmds", len(cmds)), time.Since(start), err)
		return err
	}
}

func (s *RedisLoggerHook) report(ctx context.Context, name, args string, latency time.Duration, err error) {
	switch {
	case err != nil && !expectedRedisErr(name, err):
		log.ErrorContext(ctx, "Redis Error", "command", name, "args", args, "latency", latency, "err", err)
	case err == nil && latency > s.slow:
		log.WarnContext(ctx, "Redis Slow", "command", name, "args", args, "latency", latency)
	}
}

// expectedRedisErr 缓存未命中、重命名空集合和旧版本服务端不支持 CLIENT SETINFO 属于正常情况
func expectedRedisErr(name string, err error) bool {
	if errors.Is(err, redis.Nil) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "no such key") || (name == "client" && strings.Contains(msg, "setinfo"))
}

func redactArgs(cmd redis.Cmder) string {
	switch cmd.Name() {
	case "auth", "hello":
		return "[PROTECTED]"
	}
	return fmt.Sprint(cmd.Args())
}
