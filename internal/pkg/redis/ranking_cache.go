package redis

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/consts"
	"context"
	"fmt"
	log "log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultRankingTTL = 10 * time.Minute
	// 代数键需比任何一次读取的耗时都长，过期后归零
	generationTTL = 24 * time.Hour
)

// 代数未变化时才写入详情
var setIfGenerationScript = redis.NewScript(`
local gen = redis.call("GET", KEYS[2])
if (gen or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1`)

// RankingCache 榜单详情读缓存，写操作后由服务层失效
type RankingCache struct {
	ttl time.Duration
}

func NewRankingCache(ttl time.Duration) *RankingCache {
	if ttl <= 0 {
		ttl = DefaultRankingTTL
	}
	return &RankingCache{ttl: ttl}
}

func (c *RankingCache) Get(ctx context.Context, id string) (*model.Ranking, int64, bool) {
	values, err := Rdb.MGet(ctx, consts.RankingCacheKey+id, consts.RankingGenerationKey+id).Result()
	if err != nil {
		return nil, -1, false
	}
	r, generation, err := parseEntry(values)
	if err != nil {
		log.WarnContext(ctx, "drop corrupt ranking cache", "ranking_id", id, "err", err)
		c.Invalidate(ctx, id)
		return nil, -1, false
	}
	return r, generation, r != nil
}

// Set 读取期间发生过 Invalidate 时放弃写入
func (c *RankingCache) Set(ctx context.Context, r *model.Ranking, generation int64) {
	if generation < 0 {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	keys := []string{consts.RankingCacheKey + r.ID, consts.RankingGenerationKey + r.ID}
	err = setIfGenerationScript.Run(ctx, Rdb, keys, strconv.FormatInt(generation, 10), data, c.ttl.Milliseconds()).Err()
	if err != nil {
		log.WarnContext(ctx, "set ranking cache failed", "ranking_id", r.ID, "err", err)
	}
}

// Invalidate 推进代数并删除详情
func (c *RankingCache) Invalidate(ctx context.Context, id string) {
	genKey := consts.RankingGenerationKey + id
	_, err := Rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, consts.RankingCacheKey+id)
		return nil
	})
	if err != nil {
		log.WarnContext(ctx, "invalidate ranking cache failed", "ranking_id", id, "err", err)
	}
}

// parseEntry 解析 MGET 的 [详情, 代数]，详情缺失时返回 nil
func parseEntry(values []any) (*model.Ranking, int64, error) {
	if len(values) != 2 {
		return nil, -1, fmt.Errorf("unexpected reply length %d", len(values))
	}
	var generation int64
	if raw, ok := values[1].(string); ok {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, -1, fmt.Errorf("bad generation %q: %w", raw, err)
		}
		generation = n
	}
	raw, ok := values[0].(string)
	if !ok {
		return nil, generation, nil
	}
	r := &model.Ranking{}
	if err := json.Unmarshal([]byte(raw), r); err != nil {
		return nil, -1, err
	}
	return r, generation, nil
}
