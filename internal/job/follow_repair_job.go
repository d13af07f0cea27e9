package job

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/logger"
	"Rankify/internal/pkg/metrics"
	"Rankify/internal/service"
	"context"
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

const defaultRepairConcurrency = 4

// RepairTimeout 单轮扫描的最长耗时，分布式锁的过期时间与之一致
const RepairTimeout = 2 * time.Minute

// Locker 跨实例互斥，未配置时只做进程内互斥
type Locker interface {
	Acquire(ctx context.Context) (release func(), ok bool, err error)
}

// FollowRepairJob 定时消费关注边脏集合，逐条校正 followers 一侧
type FollowRepairJob struct {
	graph       service.SocialGraphService
	queue       EdgeQueue
	concurrency int64
	lock        Locker
	running     atomic.Bool
}

func NewFollowRepairJob(graph service.SocialGraphService, queue EdgeQueue, concurrency int) *FollowRepairJob {
	if concurrency <= 0 {
		concurrency = defaultRepairConcurrency
	}
	return &FollowRepairJob{graph: graph, queue: queue, concurrency: int64(concurrency)}
}

func (s *FollowRepairJob) UseLock(lock Locker) *FollowRepairJob {
	s.lock = lock
	return s
}

// Run 实现 cron.Job，上一轮未结束或其它实例持有锁时跳过本轮
func (s *FollowRepairJob) Run() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(logger.NewJobContext("job-follow-repair"), RepairTimeout)
	defer cancel()

	if s.lock != nil {
		release, ok, err := s.lock.Acquire(ctx)
		if err != nil {
			log.ErrorContext(ctx, "acquire follow repair lock error", "err", err)
			return
		}
		if !ok {
			log.DebugContext(ctx, "follow repair running on another instance")
			return
		}
		defer release()
	}
	if _, err := s.Sweep(ctx); err != nil {
		log.ErrorContext(ctx, "follow repair sweep error", "err", err)
	}
}

type SweepResult struct {
	Claimed int
	Fixed   int
	Failed  int
}

func (s *FollowRepairJob) Sweep(ctx context.Context) (*SweepResult, error) {
	edges, err := s.queue.Claim(ctx)
	if err != nil {
		return nil, err
	}
	res := &SweepResult{Claimed: len(edges)}
	if len(edges) == 0 {
		return res, s.queue.Ack(ctx)
	}
	log.InfoContext(ctx, "FollowRepairJob processing", "edge_count", len(edges))

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		failed []model.FollowEdge
	)
	sem := semaphore.NewWeighted(s.concurrency)

	for _, e := range edges {
		if err = sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failed = append(failed, e)
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(e model.FollowEdge) {
			defer wg.Done()
			defer sem.Release(1)

			changed, err := s.graph.RepairEdge(ctx, e.FollowerID, e.TargetID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil && service.IsRetryable(err):
				log.WarnContext(ctx, "repair edge error", "follower_id", e.FollowerID, "target_id", e.TargetID, "err", err)
				failed = append(failed, e)
				metrics.RecordRepair("cron", "error")
			case err != nil:
				log.WarnContext(ctx, "drop invalid edge", "follower_id", e.FollowerID, "target_id", e.TargetID, "err", err)
				metrics.RecordRepair("cron", "dropped")
			case changed:
				res.Fixed++
				metrics.RecordRepair("cron", "fixed")
			default:
				metrics.RecordRepair("cron", "consistent")
			}
		}(e)
	}
	wg.Wait()

	// 失败的边放回脏集合，下一轮重试
	requeueCtx := context.WithoutCancel(ctx)
	for _, e := range failed {
		if err = s.queue.MarkDirty(requeueCtx, e.FollowerID, e.TargetID); err != nil {
			log.ErrorContext(ctx, "requeue edge error", "follower_id", e.FollowerID, "target_id", e.TargetID, "err", err)
		}
	}
	res.Failed = len(failed)

	if err = s.queue.Ack(requeueCtx); err != nil {
		return res, err
	}
	log.InfoContext(ctx, "FollowRepairJob done", "fixed", res.Fixed, "failed", res.Failed)
	return res, nil
}
