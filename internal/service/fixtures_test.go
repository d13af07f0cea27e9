package service

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/docstore"
	"Rankify/internal/repository"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

var errInjected = errors.New("injected store failure")

// flakyStore 在指定文档的第 N 次更新时注入失败
type flakyStore struct {
	*docstore.MemoryStore
	mu       sync.Mutex
	failOn   map[string]bool
	queryErr error
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: docstore.NewMemoryStore(), failOn: map[string]bool{}}
}

func (s *flakyStore) failUpdatesOf(collection, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[collection+"/"+id] = true
}

func (s *flakyStore) heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = map[string]bool{}
	s.queryErr = nil
}

func (s *flakyStore) Update(ctx context.Context, collection, id string, m *docstore.Mutation) error {
	s.mu.Lock()
	fail := s.failOn[collection+"/"+id]
	s.mu.Unlock()
	if fail {
		return errInjected
	}
	return s.MemoryStore.Update(ctx, collection, id, m)
}

func (s *flakyStore) Query(ctx context.Context, collection string, q docstore.Query, out any) error {
	s.mu.Lock()
	err := s.queryErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Query(ctx, collection, q, out)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e model.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type memoryQueue struct {
	mu    sync.Mutex
	edges [][2]string
}

func (q *memoryQueue) MarkDirty(_ context.Context, followerID, targetID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.edges = append(q.edges, [2]string{followerID, targetID})
	return nil
}

// mapCache 与 Redis 实现相同的代数语义
type mapCache struct {
	mu          sync.Mutex
	data        map[string]*model.Ranking
	generations map[string]int64
	hits        int
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string]*model.Ranking{}, generations: map[string]int64{}}
}

func (c *mapCache) Get(_ context.Context, id string) (*model.Ranking, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.data[id]
	if ok {
		c.hits++
	}
	return r, c.generations[id], ok
}

func (c *mapCache) Set(_ context.Context, r *model.Ranking, generation int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[r.ID] == generation {
		c.data[r.ID] = r
	}
}

func (c *mapCache) Invalidate(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[id]++
	delete(c.data, id)
}

func (c *mapCache) cached(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[id]
	return ok
}

// pausingRepo 第一次 GetByID 读完后暂停，直到 resume 被关闭
type pausingRepo struct {
	repository.RankingRepo
	once   sync.Once
	loaded chan struct{}
	resume chan struct{}
}

func newPausingRepo(inner repository.RankingRepo) *pausingRepo {
	return &pausingRepo{RankingRepo: inner, loaded: make(chan struct{}), resume: make(chan struct{})}
}

func (r *pausingRepo) GetByID(ctx context.Context, id string) (*model.Ranking, error) {
	ranking, err := r.RankingRepo.GetByID(ctx, id)
	r.once.Do(func() {
		close(r.loaded)
		<-r.resume
	})
	return ranking, err
}

type memoryBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{objects: map[string][]byte{}}
}

func (b *memoryBlobs) Store(_ context.Context, r io.Reader, _ int64, _ string, ext string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ref := "rankings/" + time.Now().Format("150405.000000000") + ext
	b.objects[ref] = data
	return ref, nil
}

func (b *memoryBlobs) Resolve(ref string) string {
	return "http://blobs.local/" + ref
}

func (b *memoryBlobs) get(ref string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.objects[ref])
}

func items(titles ...string) []model.RankingItem {
	out := make([]model.RankingItem, 0, len(titles))
	for i, t := range titles {
		out = append(out, model.RankingItem{Title: t, Rating: float64(i % 6)})
	}
	return out
}

func seedProfiles(t *testing.T, repo repository.UserProfileRepo, ids ...string) {
	for _, id := range ids {
		err := repo.Create(context.Background(), &model.UserProfile{ID: id, Email: id + "@example.com", DisplayName: id})
		if err != nil {
			t.Fatalf("seed profile %s: %v", id, err)
		}
	}
}
