package model

import (
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestParseCategory(t *testing.T) {
	convey.Convey("Given raw category strings", t, func() {
		cases := map[string]Category{
			"Movies":   CategoryMovies,
			"tv shows": CategoryTVShows,
			"TVShows":  CategoryTVShows,
			" music ":  CategoryMusic,
			"OTHER":    CategoryOther,
		}
		for raw, want := range cases {
			got, err := ParseCategory(raw)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, want)
		}

		_, err := ParseCategory("Podcasts")
		convey.So(errors.Is(err, ErrValidation), convey.ShouldBeTrue)
		convey.So(Category("tv shows").Valid(), convey.ShouldBeFalse)
		convey.So(CategoryTVShows.Valid(), convey.ShouldBeTrue)
	})
}

func TestRankingHelpers(t *testing.T) {
	convey.Convey("Given a ranking", t, func() {
		created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		img := "rankings/a.jpg"
		r := &Ranking{
			OwnerID:   "u1",
			CreatedAt: created,
			UpdatedAt: created,
			Items:     ItemSequence{{ID: "a", ImageRef: &img}, {ID: "b"}},
		}

		convey.So(r.IsOwnedBy("u1"), convey.ShouldBeTrue)
		convey.So(r.IsOwnedBy("u2"), convey.ShouldBeFalse)
		convey.So(r.IsOwnedBy(""), convey.ShouldBeFalse)

		r.Touch(created.Add(-time.Hour))
		convey.So(r.UpdatedAt, convey.ShouldEqual, created)
		r.Touch(created.Add(time.Hour))
		convey.So(r.UpdatedAt, convey.ShouldEqual, created.Add(time.Hour))
	})
}

func TestUserProfileHelpers(t *testing.T) {
	convey.Convey("Given a profile", t, func() {
		p := &UserProfile{DisplayName: "Ann", Following: []string{"b"}, Followers: []string{"c"}}
		convey.So(p.IsProfileComplete(), convey.ShouldBeFalse)
		photo := "users/a.jpg"
		p.PhotoRef = &photo
		convey.So(p.IsProfileComplete(), convey.ShouldBeTrue)
		convey.So(p.IsFollowing("b"), convey.ShouldBeTrue)
		convey.So(p.HasFollower("c"), convey.ShouldBeTrue)
		convey.So(p.HasFollower("b"), convey.ShouldBeFalse)
	})
}
