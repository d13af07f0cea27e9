package model

import (
	"errors"
	"math"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func positions(seq ItemSequence) []int {
	out := make([]int, 0, seq.Len())
	for _, item := range seq {
		out = append(out, item.Position)
	}
	return out
}

func ids(seq ItemSequence) []string {
	out := make([]string, 0, seq.Len())
	for _, item := range seq {
		out = append(out, item.ID)
	}
	return out
}

func newSeq(t *testing.T, idList ...string) ItemSequence {
	items := make([]RankingItem, 0, len(idList))
	for _, id := range idList {
		items = append(items, RankingItem{ID: id, Title: "item " + id, Rating: 3})
	}
	seq, err := NewItemSequence(items)
	if err != nil {
		t.Fatalf("build sequence: %v", err)
	}
	return seq
}

func TestNewItemSequence(t *testing.T) {
	convey.Convey("Given submitted items", t, func() {
		convey.Convey("When positions are missing or bogus", func() {
			seq, err := NewItemSequence([]RankingItem{
				{Title: "a", Rating: 5, Position: 7},
				{Title: "b", Rating: 0, Position: 7},
				{Title: "  c  ", Rating: 2.5},
			})

			convey.Convey("Then positions follow submitted order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(positions(seq), convey.ShouldResemble, []int{0, 1, 2})
				convey.So(seq[2].Title, convey.ShouldEqual, "c")
				for _, item := range seq {
					convey.So(item.ID, convey.ShouldNotBeEmpty)
				}
				convey.So(seq.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When a rating is out of range", func() {
			for _, rating := range []float64{-0.1, 5.01, math.NaN()} {
				_, err := NewItemSequence([]RankingItem{{Title: "x", Rating: rating}})
				convey.So(errors.Is(err, ErrValidation), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When a title is blank", func() {
			_, err := NewItemSequence([]RankingItem{{Title: "   ", Rating: 1}})
			convey.So(errors.Is(err, ErrValidation), convey.ShouldBeTrue)
		})

		convey.Convey("When ids repeat", func() {
			_, err := NewItemSequence([]RankingItem{{ID: "x", Title: "a"}, {ID: "x", Title: "b"}})
			convey.So(errors.Is(err, ErrValidation), convey.ShouldBeTrue)
		})
	})
}

func TestItemSequenceInsert(t *testing.T) {
	convey.Convey("Given a sequence a,b,c", t, func() {
		seq := newSeq(t, "a", "b", "c")

		convey.Convey("Insert without position appends", func() {
			convey.So(seq.Insert(RankingItem{ID: "d", Title: "d"}, nil), convey.ShouldBeNil)
			convey.So(ids(seq), convey.ShouldResemble, []string{"a", "b", "c", "d"})
			convey.So(positions(seq), convey.ShouldResemble, []int{0, 1, 2, 3})
		})

		convey.Convey("Insert at 1 shifts later items", func() {
			at := 1
			convey.So(seq.Insert(RankingItem{ID: "d", Title: "d"}, &at), convey.ShouldBeNil)
			convey.So(ids(seq), convey.ShouldResemble, []string{"a", "d", "b", "c"})
			convey.So(positions(seq), convey.ShouldResemble, []int{0, 1, 2, 3})
		})

		convey.Convey("Insert at length appends", func() {
			at := 3
			convey.So(seq.Insert(RankingItem{ID: "d", Title: "d"}, &at), convey.ShouldBeNil)
			convey.So(ids(seq), convey.ShouldResemble, []string{"a", "b", "c", "d"})
		})

		convey.Convey("Insert out of bounds fails and leaves the sequence unchanged", func() {
			for _, at := range []int{-1, 4} {
				pos := at
				err := seq.Insert(RankingItem{ID: "d", Title: "d"}, &pos)
				convey.So(errors.Is(err, ErrInvalidPosition), convey.ShouldBeTrue)
			}
			convey.So(ids(seq), convey.ShouldResemble, []string{"a", "b", "c"})
		})
	})
}

func TestItemSequenceMove(t *testing.T) {
	convey.Convey("Given a sequence a,b,c,d", t, func() {
		seq := newSeq(t, "a", "b", "c", "d")

		convey.Convey("Moving forward", func() {
			convey.So(seq.Move("a", 2), convey.ShouldBeNil)
			convey.So(ids(seq), convey.ShouldResemble, []string{"b", "c", "a", "d"})
			convey.So(seq.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Moving backward", func() {
			convey.So(seq.Move("d", 0), convey.ShouldBeNil)
			convey.So(ids(seq), convey.ShouldResemble, []string{"d", "a", "b", "c"})
			convey.So(seq.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Moving to the current position is a no-op", func() {
			before := seq.Items()
			convey.So(seq.Move("b", 1), convey.ShouldBeNil)
			convey.So(seq.Items(), convey.ShouldResemble, before)
		})

		convey.Convey("Every move keeps a contiguous permutation", func() {
			for _, id := range []string{"a", "b", "c", "d"} {
				for to := 0; to < 4; to++ {
					convey.So(seq.Move(id, to), convey.ShouldBeNil)
					convey.So(positions(seq), convey.ShouldResemble, []int{0, 1, 2, 3})
				}
			}
		})

		convey.Convey("Unknown item", func() {
			err := seq.Move("zzz", 0)
			convey.So(errors.Is(err, ErrItemNotFound), convey.ShouldBeTrue)
			convey.So(errors.Is(err, ErrNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("Target out of range", func() {
			convey.So(errors.Is(seq.Move("a", 4), ErrInvalidPosition), convey.ShouldBeTrue)
			convey.So(errors.Is(seq.Move("a", -1), ErrInvalidPosition), convey.ShouldBeTrue)
		})
	})
}

func TestItemSequenceAccessors(t *testing.T) {
	convey.Convey("Given a sequence a,b,c", t, func() {
		seq := newSeq(t, "a", "b", "c")

		convey.Convey("Get finds by id", func() {
			item, ok := seq.Get("b")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(item.Position, convey.ShouldEqual, 1)
			_, ok = seq.Get("x")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Items returns a copy", func() {
			items := seq.Items()
			items[0].Title = "changed"
			convey.So(seq[0].Title, convey.ShouldEqual, "item a")
		})

		convey.Convey("Remove renumbers", func() {
			convey.So(seq.Remove("a"), convey.ShouldBeNil)
			convey.So(ids(seq), convey.ShouldResemble, []string{"b", "c"})
			convey.So(positions(seq), convey.ShouldResemble, []int{0, 1})
		})

		convey.Convey("RemoveAll empties", func() {
			seq.RemoveAll()
			convey.So(seq.Len(), convey.ShouldEqual, 0)
		})

		convey.Convey("Validate detects gaps", func() {
			seq[2].Position = 5
			convey.So(errors.Is(seq.Validate(), ErrInvalidPosition), convey.ShouldBeTrue)
		})
	})
}
