package service

import (
	"Rankify/internal/model"
	"Rankify/internal/pkg/util"
	"Rankify/internal/repository"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func newRankingFixture() (RankingService, repository.RankingRepo, *flakyStore) {
	store := newFlakyStore()
	repo := repository.NewRankingRepo(store)
	return NewRankingService(repo), repo, store
}

// seedRankings 每三条共用一个创建时间，用于验证 id 排序兜底
func seedRankings(t *testing.T, repo repository.RankingRepo, idPrefix string, n int, title func(i int) string) []*model.Ranking {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]*model.Ranking, 0, n)
	for i := 0; i < n; i++ {
		seq, err := model.NewItemSequence(items("x"))
		if err != nil {
			t.Fatal(err)
		}
		created := base.Add(time.Duration(i/3) * time.Second)
		r := &model.Ranking{
			ID:        fmt.Sprintf("%s-%03d", idPrefix, (n-i)*7%101),
			Title:     title(i),
			Category:  model.Categories[i%len(model.Categories)],
			Items:     seq,
			OwnerID:   []string{"alice", "bob"}[i%2],
			CreatedAt: created,
			UpdatedAt: created,
			Comments:  []model.Comment{},
			Version:   1,
		}
		if err = repo.Create(context.Background(), r); err != nil {
			t.Fatal(err)
		}
		out = append(out, r)
	}
	return out
}

func collectPages(svc func(PageRequest) (*Page, error), size int) ([]*model.Ranking, int, error) {
	var all []*model.Ranking
	pages := 0
	cursor := ""
	for {
		p, err := svc(PageRequest{PageSize: size, Cursor: cursor})
		if err != nil {
			return nil, pages, err
		}
		pages++
		all = append(all, p.Items...)
		if p.NextCursor == "" {
			if p.HasMore {
				return nil, pages, errors.New("HasMore without cursor")
			}
			return all, pages, nil
		}
		cursor = p.NextCursor
	}
}

func TestCreateRanking(t *testing.T) {
	convey.Convey("Given a ranking service", t, func() {
		ctx := context.Background()
		svc, repo, _ := newRankingFixture()

		convey.Convey("When creating a valid ranking", func() {
			r, err := svc.CreateRanking(ctx, "alice", RankingInput{
				Title:    "  Top 3 Movies ",
				Category: model.CategoryMovies,
				Items:    items("Alien", "Heat", "Up"),
			})

			convey.Convey("Then it is persisted with contiguous positions", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.ID, convey.ShouldNotBeEmpty)
				convey.So(r.Title, convey.ShouldEqual, "Top 3 Movies")
				convey.So(r.LikeCount, convey.ShouldEqual, 0)
				convey.So(r.Comments, convey.ShouldBeEmpty)
				convey.So(r.Version, convey.ShouldEqual, 1)
				convey.So(r.UpdatedAt, convey.ShouldEqual, r.CreatedAt)
				for i, item := range r.Items {
					convey.So(item.Position, convey.ShouldEqual, i)
				}

				stored, err := repo.GetByID(ctx, r.ID)
				convey.So(err, convey.ShouldBeNil)
				convey.So(stored.CreatedAt.Equal(r.CreatedAt), convey.ShouldBeTrue)
				convey.So(stored.Items.Validate(), convey.ShouldBeNil)
				convey.So(stored.Items[2].Title, convey.ShouldEqual, "Up")
			})
		})

		convey.Convey("When input is invalid", func() {
			cases := []RankingInput{
				{Title: "   ", Category: model.CategoryMovies, Items: items("a")},
				{Title: "t", Category: model.CategoryMovies},
				{Title: "t", Category: "Podcasts", Items: items("a")},
				{Title: "t", Category: model.CategoryBooks, Items: []model.RankingItem{{Title: "a", Rating: 6}}},
				{Title: "t", Category: model.CategoryBooks, Items: []model.RankingItem{{Title: "", Rating: 1}}},
			}
			for _, in := range cases {
				_, err := svc.CreateRanking(ctx, "alice", in)
				convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When the owner is missing", func() {
			_, err := svc.CreateRanking(ctx, "", RankingInput{Title: "t", Category: model.CategoryOther, Items: items("a")})
			convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
		})
	})
}

func TestListRecentPagination(t *testing.T) {
	convey.Convey("Given 23 rankings with shared timestamps", t, func() {
		ctx := context.Background()
		svc, repo, store := newRankingFixture()
		seeded := seedRankings(t, repo, "r", 23, func(i int) string { return fmt.Sprintf("List %d", i) })

		convey.Convey("Following cursors yields every record exactly once in order", func() {
			for _, size := range []int{1, 4, 5, 23, 50} {
				all, _, err := collectPages(func(req PageRequest) (*Page, error) {
					return svc.ListRecent(ctx, req)
				}, size)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(all), convey.ShouldEqual, len(seeded))

				seen := map[string]bool{}
				for i, r := range all {
					convey.So(seen[r.ID], convey.ShouldBeFalse)
					seen[r.ID] = true
					if i > 0 {
						prev := all[i-1]
						ordered := prev.CreatedAt.After(r.CreatedAt) ||
							(prev.CreatedAt.Equal(r.CreatedAt) && prev.ID < r.ID)
						convey.So(ordered, convey.ShouldBeTrue)
					}
				}
			}
		})

		convey.Convey("A short last page has no cursor", func() {
			p, err := svc.ListRecent(ctx, PageRequest{PageSize: 20})
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.HasMore, convey.ShouldBeTrue)
			p, err = svc.ListRecent(ctx, PageRequest{PageSize: 20, Cursor: p.NextCursor})
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(p.Items), convey.ShouldEqual, 3)
			convey.So(p.NextCursor, convey.ShouldBeEmpty)
		})

		convey.Convey("Re-using a cursor is deterministic", func() {
			first, _ := svc.ListRecent(ctx, PageRequest{PageSize: 5})
			a, _ := svc.ListRecent(ctx, PageRequest{PageSize: 5, Cursor: first.NextCursor})
			b, _ := svc.ListRecent(ctx, PageRequest{PageSize: 5, Cursor: first.NextCursor})
			convey.So(a, convey.ShouldResemble, b)
		})

		convey.Convey("Page size defaults to 10 and is capped at 50", func() {
			p, err := svc.ListRecent(ctx, PageRequest{})
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(p.Items), convey.ShouldEqual, DefaultPageSize)

			seedRankings(t, repo, "m", 60, func(i int) string { return fmt.Sprintf("More %d", i) })
			p, err = svc.ListRecent(ctx, PageRequest{PageSize: 500})
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(p.Items), convey.ShouldEqual, MaxPageSize)
		})

		convey.Convey("Malformed or foreign cursors are rejected", func() {
			_, err := svc.ListRecent(ctx, PageRequest{Cursor: "not a cursor!"})
			convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)

			p, _ := svc.SearchByTitlePrefix(ctx, "List", PageRequest{PageSize: 2})
			_, err = svc.ListRecent(ctx, PageRequest{Cursor: p.NextCursor})
			convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)

			_, err = svc.SearchByTitlePrefix(ctx, "Lis", PageRequest{Cursor: p.NextCursor})
			convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
		})

		convey.Convey("A cancelled query returns no partial page", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			p, err := svc.ListRecent(cctx, PageRequest{PageSize: 5})
			convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			convey.So(p, convey.ShouldBeNil)
		})

		convey.Convey("A store failure surfaces as retryable", func() {
			store.queryErr = errInjected
			_, err := svc.ListRecent(ctx, PageRequest{})
			convey.So(errors.Is(err, model.ErrStoreUnavailable), convey.ShouldBeTrue)
			convey.So(IsRetryable(err), convey.ShouldBeTrue)
		})
	})
}

func TestSearchByTitlePrefix(t *testing.T) {
	convey.Convey("Given titles with and without a shared prefix", t, func() {
		ctx := context.Background()
		svc, _, _ := newRankingFixture()
		for _, title := range []string{"Top 10 Movies", "Top Albums", "Best Shows", "Topaz", "top lowercase"} {
			_, err := svc.CreateRanking(ctx, "alice", RankingInput{Title: title, Category: model.CategoryOther, Items: items("a")})
			convey.So(err, convey.ShouldBeNil)
		}

		convey.Convey("Then only titles starting with the prefix match, in title order", func() {
			p, err := svc.SearchByTitlePrefix(ctx, "Top ", PageRequest{})
			convey.So(err, convey.ShouldBeNil)
			titles := make([]string, 0, len(p.Items))
			for _, r := range p.Items {
				titles = append(titles, r.Title)
			}
			convey.So(titles, convey.ShouldResemble, []string{"Top 10 Movies", "Top Albums"})
			convey.So(titles, convey.ShouldNotContain, "Topaz")

			p, err = svc.SearchByTitlePrefix(ctx, "Top", PageRequest{})
			convey.So(err, convey.ShouldBeNil)
			for _, r := range p.Items {
				convey.So(strings.HasPrefix(r.Title, "Top"), convey.ShouldBeTrue)
			}
			convey.So(len(p.Items), convey.ShouldEqual, 3)
		})

		convey.Convey("Then surrounding whitespace is part of the prefix", func() {
			p, err := svc.SearchByTitlePrefix(ctx, " Top", PageRequest{})
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Items, convey.ShouldBeEmpty)

			// 标题在写入时去除首尾空白
			padded, err := svc.CreateRanking(ctx, "alice", RankingInput{Title: "  Topaz Rings  ", Category: model.CategoryOther, Items: items("a")})
			convey.So(err, convey.ShouldBeNil)
			convey.So(padded.Title, convey.ShouldEqual, "Topaz Rings")
			p, err = svc.SearchByTitlePrefix(ctx, "Topaz R", PageRequest{})
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(p.Items), convey.ShouldEqual, 1)
		})

		convey.Convey("Then search pages are exhaustive", func() {
			all, pages, err := collectPages(func(req PageRequest) (*Page, error) {
				return svc.SearchByTitlePrefix(ctx, "Top", req)
			}, 1)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(all), convey.ShouldEqual, 3)
			convey.So(pages, convey.ShouldEqual, 3)
		})

		convey.Convey("Then an empty prefix behaves like ListRecent", func() {
			a, err := svc.SearchByTitlePrefix(ctx, "   ", PageRequest{PageSize: 3})
			convey.So(err, convey.ShouldBeNil)
			b, _ := svc.ListRecent(ctx, PageRequest{PageSize: 3})
			convey.So(a, convey.ShouldResemble, b)
		})
	})
}

func TestFilterAndOwner(t *testing.T) {
	convey.Convey("Given rankings across categories and owners", t, func() {
		ctx := context.Background()
		svc, repo, _ := newRankingFixture()
		seeded := seedRankings(t, repo, "r", 21, func(i int) string { return fmt.Sprintf("R %d", i) })

		convey.Convey("Filtering by category returns only that category, newest first", func() {
			movies := model.CategoryMovies
			all, _, err := collectPages(func(req PageRequest) (*Page, error) {
				return svc.FilterByCategory(ctx, &movies, req)
			}, 2)
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(all), convey.ShouldEqual, 3)
			for _, r := range all {
				convey.So(r.Category, convey.ShouldEqual, model.CategoryMovies)
			}
		})

		convey.Convey("Stored TV Shows values match", func() {
			tv := model.CategoryTVShows
			p, err := svc.FilterByCategory(ctx, &tv, PageRequest{})
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(p.Items), convey.ShouldEqual, 3)
		})

		convey.Convey("No category falls back to recent", func() {
			a, err := svc.FilterByCategory(ctx, nil, PageRequest{PageSize: 4})
			convey.So(err, convey.ShouldBeNil)
			b, _ := svc.ListRecent(ctx, PageRequest{PageSize: 4})
			convey.So(a, convey.ShouldResemble, b)
		})

		convey.Convey("Unknown categories are rejected", func() {
			bad := model.Category("Podcasts")
			_, err := svc.FilterByCategory(ctx, &bad, PageRequest{})
			convey.So(errors.Is(err, model.ErrValidation), convey.ShouldBeTrue)
		})

		convey.Convey("Owner listing is complete", func() {
			all, _, err := collectPages(func(req PageRequest) (*Page, error) {
				return svc.ListByOwner(ctx, "alice", req)
			}, 4)
			convey.So(err, convey.ShouldBeNil)
			want := 0
			for _, r := range seeded {
				if r.OwnerID == "alice" {
					want++
				}
			}
			convey.So(len(all), convey.ShouldEqual, want)
		})
	})
}

func TestUpdateAndItems(t *testing.T) {
	convey.Convey("Given a ranking owned by alice", t, func() {
		ctx := context.Background()
		svc, _, _ := newRankingFixture()
		r, err := svc.CreateRanking(ctx, "alice", RankingInput{Title: "Games", Category: model.CategoryGames, Items: items("a", "b", "c")})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("The owner can insert and move items", func() {
			at := 0
			updated, err := svc.InsertItem(ctx, r.ID, "alice", model.RankingItem{Title: "z", Rating: 4}, &at)
			convey.So(err, convey.ShouldBeNil)
			convey.So(updated.Items[0].Title, convey.ShouldEqual, "z")
			convey.So(updated.Version, convey.ShouldEqual, 2)

			updated, err = svc.MoveItem(ctx, r.ID, "alice", updated.Items[0].ID, 3)
			convey.So(err, convey.ShouldBeNil)
			titles := []string{}
			for _, it := range updated.Items {
				titles = append(titles, it.Title)
			}
			convey.So(titles, convey.ShouldResemble, []string{"a", "b", "c", "z"})

			stored, err := svc.GetRanking(ctx, r.ID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(stored.Items.Validate(), convey.ShouldBeNil)
			convey.So(stored.Version, convey.ShouldEqual, 3)
			convey.So(stored.UpdatedAt.Before(stored.CreatedAt), convey.ShouldBeFalse)
		})

		convey.Convey("Invalid item operations leave the record unchanged", func() {
			bad := 9
			_, err := svc.InsertItem(ctx, r.ID, "alice", model.RankingItem{Title: "z"}, &bad)
			convey.So(errors.Is(err, model.ErrInvalidPosition), convey.ShouldBeTrue)
			_, err = svc.MoveItem(ctx, r.ID, "alice", "missing", 0)
			convey.So(errors.Is(err, model.ErrItemNotFound), convey.ShouldBeTrue)

			stored, _ := svc.GetRanking(ctx, r.ID)
			convey.So(stored.Version, convey.ShouldEqual, 1)
		})

		convey.Convey("Others cannot change it", func() {
			_, err := svc.UpdateRanking(ctx, r.ID, "bob", RankingInput{Title: "x", Category: model.CategoryGames, Items: items("q")})
			convey.So(errors.Is(err, model.ErrForbidden), convey.ShouldBeTrue)
			_, err = svc.MoveItem(ctx, r.ID, "bob", r.Items[0].ID, 1)
			convey.So(errors.Is(err, model.ErrForbidden), convey.ShouldBeTrue)
		})

		convey.Convey("A stale version conflicts", func() {
			_, err := svc.UpdateRanking(ctx, r.ID, "alice", RankingInput{Title: "New", Category: model.CategoryGames, Items: items("q"), Version: 1})
			convey.So(err, convey.ShouldBeNil)
			_, err = svc.UpdateRanking(ctx, r.ID, "alice", RankingInput{Title: "Newer", Category: model.CategoryGames, Items: items("q"), Version: 1})
			convey.So(errors.Is(err, model.ErrConflict), convey.ShouldBeTrue)
		})

		convey.Convey("A custom guard can allow moderators", func() {
			store := newFlakyStore()
			repo := repository.NewRankingRepo(store)
			moderated := NewRankingService(repo, WithGuard(func(ctx context.Context, requesterID string, rk *model.Ranking) error {
				if requesterID == "mod" {
					return nil
				}
				return OwnerOnly(ctx, requesterID, rk)
			}))
			created, err := moderated.CreateRanking(ctx, "alice", RankingInput{Title: "t", Category: model.CategoryOther, Items: items("a")})
			convey.So(err, convey.ShouldBeNil)
			convey.So(moderated.DeleteRanking(ctx, created.ID, "mod"), convey.ShouldBeNil)
		})
	})
}

func TestDeleteRanking(t *testing.T) {
	convey.Convey("Given a ranking with item images", t, func() {
		ctx := context.Background()
		store := newFlakyStore()
		repo := repository.NewRankingRepo(store)
		blobs := newMemoryBlobs()
		media := NewMediaService(blobs, 1024)
		cache := newMapCache()
		pub := &recordingPublisher{}
		svc := NewRankingService(repo, WithRankingCache(cache), WithEventPublisher(pub))

		uploaded, err := media.UploadImage(ctx, "alice", bytes.NewReader(pngBytes), int64(len(pngBytes)))
		convey.So(err, convey.ShouldBeNil)
		img := uploaded.Ref
		r, err := svc.CreateRanking(ctx, "alice", RankingInput{
			Title:    "Pics",
			Category: model.CategoryOther,
			Items:    []model.RankingItem{{Title: "a", ImageRef: util.Ptr(img)}},
		})
		convey.So(err, convey.ShouldBeNil)
		_, _ = svc.GetRanking(ctx, r.ID)

		convey.Convey("A non-owner is forbidden and nothing changes", func() {
			err := svc.DeleteRanking(ctx, r.ID, "mallory")
			convey.So(errors.Is(err, model.ErrForbidden), convey.ShouldBeTrue)
			stored, err := repo.GetByID(ctx, r.ID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(stored.Title, convey.ShouldEqual, "Pics")
		})

		convey.Convey("The owner removes it permanently", func() {
			convey.So(svc.DeleteRanking(ctx, r.ID, "alice"), convey.ShouldBeNil)
			_, err := svc.GetRanking(ctx, r.ID)
			convey.So(errors.Is(err, model.ErrNotFound), convey.ShouldBeTrue)
			convey.So(pub.types(), convey.ShouldResemble, []string{model.EventRankingCreated, model.EventRankingDeleted})

			err = svc.DeleteRanking(ctx, r.ID, "alice")
			convey.So(errors.Is(err, model.ErrNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("Deleting another user's copy keeps the shared image", func() {
			copied, err := svc.CreateRanking(ctx, "mallory", RankingInput{
				Title:    "Copy",
				Category: model.CategoryOther,
				Items:    []model.RankingItem{{Title: "b", ImageRef: util.Ptr(img)}},
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.DeleteRanking(ctx, copied.ID, "mallory"), convey.ShouldBeNil)

			convey.So(blobs.get(img), convey.ShouldResemble, pngBytes)
			kept, err := svc.GetRanking(ctx, r.ID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(*kept.Items[0].ImageRef, convey.ShouldEqual, img)
		})
	})
}

func TestGetRankingCache(t *testing.T) {
	convey.Convey("Given a cached ranking service", t, func() {
		ctx := context.Background()
		repo := repository.NewRankingRepo(newFlakyStore())
		cache := newMapCache()
		svc := NewRankingService(repo, WithRankingCache(cache))
		r, _ := svc.CreateRanking(ctx, "alice", RankingInput{Title: "t", Category: model.CategoryOther, Items: items("a")})

		_, err := svc.GetRanking(ctx, r.ID)
		convey.So(err, convey.ShouldBeNil)
		_, err = svc.GetRanking(ctx, r.ID)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cache.hits, convey.ShouldEqual, 1)

		_, err = svc.GetRanking(ctx, "missing")
		convey.So(errors.Is(err, model.ErrNotFound), convey.ShouldBeTrue)
	})
}

func TestGetRankingCacheRace(t *testing.T) {
	convey.Convey("Given a reader paused between its store read and its cache fill", t, func() {
		ctx := context.Background()
		repo := repository.NewRankingRepo(newFlakyStore())
		cache := newMapCache()
		writer := NewRankingService(repo, WithRankingCache(cache))
		r, err := writer.CreateRanking(ctx, "alice", RankingInput{Title: "t", Category: model.CategoryOther, Items: items("a")})
		convey.So(err, convey.ShouldBeNil)

		paused := newPausingRepo(repo)
		reader := NewRankingService(paused, WithRankingCache(cache))
		done := make(chan error, 1)
		go func() {
			_, err := reader.GetRanking(ctx, r.ID)
			done <- err
		}()
		<-paused.loaded

		convey.Convey("A delete in between is not undone by the late fill", func() {
			convey.So(writer.DeleteRanking(ctx, r.ID, "alice"), convey.ShouldBeNil)
			close(paused.resume)
			convey.So(<-done, convey.ShouldBeNil)

			convey.So(cache.cached(r.ID), convey.ShouldBeFalse)
			_, err := reader.GetRanking(ctx, r.ID)
			convey.So(errors.Is(err, model.ErrNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("A like in between is visible to the next read", func() {
			engagement := NewEngagementService(repo, cache, NopPublisher)
			convey.So(engagement.Like(ctx, r.ID, "bob"), convey.ShouldBeNil)
			close(paused.resume)
			convey.So(<-done, convey.ShouldBeNil)

			got, err := reader.GetRanking(ctx, r.ID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.LikeCount, convey.ShouldEqual, 1)
		})
	})
}
