package mongo

import (
	"Rankify/internal/pkg/docstore"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocStore 基于 MongoDB 的 docstore.Store 实现
type DocStore struct {
	db *mongo.Database
}

func NewDocStore(db *mongo.Database) *DocStore {
	return &DocStore{db: db}
}

func (s *DocStore) Get(ctx context.Context, collection, id string, out any) error {
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.ErrNotFound
	}
	return errors.Wrapf(err, "mongo find %s/%s", collection, id)
}

func (s *DocStore) Put(ctx context.Context, collection, id string, doc any) error {
	_, err := s.db.Collection(collection).ReplaceOne(ctx,
		bson.M{"_id": id},
		doc,
		options.Replace().SetUpsert(true),
	)
	return errors.Wrapf(err, "mongo replace %s/%s", collection, id)
}

func (s *DocStore) Update(ctx context.Context, collection, id string, m *docstore.Mutation) error {
	if m.Empty() {
		return nil
	}
	col := s.db.Collection(collection)

	filter := bson.D{{Key: "_id", Value: id}}
	for _, pre := range m.Preconditions {
		filter = append(filter, bson.E{Key: pre.Field, Value: pre.Value})
	}
	update, err := buildUpdate(m.Ops)
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Wrapf(err, "mongo update %s/%s", collection, id)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if len(m.Preconditions) == 0 {
		return docstore.ErrNotFound
	}

	// 区分文档不存在与前置条件不满足
	n, err := col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return errors.Wrapf(err, "mongo count %s/%s", collection, id)
	}
	if n == 0 {
		return docstore.ErrNotFound
	}
	return docstore.ErrPreconditionFailed
}

func (s *DocStore) Query(ctx context.Context, collection string, q docstore.Query, out any) error {
	if err := q.Validate(); err != nil {
		return err
	}

	opts := options.Find()
	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, o := range q.OrderBy {
			sort = append(sort, bson.E{Key: o.Field, Value: direction(o)})
		}
		opts.SetSort(sort)
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.db.Collection(collection).Find(ctx, buildFilter(q), opts)
	if err != nil {
		return errors.Wrapf(err, "mongo find %s", collection)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	if err = cursor.All(ctx, out); err != nil {
		return errors.Wrapf(err, "mongo decode %s", collection)
	}
	return nil
}

func (s *DocStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "mongo delete %s/%s", collection, id)
	}
	if res.DeletedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// EnsureIndexes 创建分页查询所需的复合索引，已存在时为空操作
func (s *DocStore) EnsureIndexes(ctx context.Context, specs []docstore.IndexSpec) error {
	for _, spec := range specs {
		keys := bson.D{}
		for _, o := range spec.Keys {
			keys = append(keys, bson.E{Key: o.Field, Value: direction(o)})
		}
		model := mongo.IndexModel{Keys: keys, Options: options.Index().SetName(spec.Name)}
		if _, err := s.db.Collection(spec.Collection).Indexes().CreateOne(ctx, model); err != nil {
			return errors.Wrapf(err, "mongo create index %s.%s", spec.Collection, spec.Name)
		}
	}
	return nil
}

func buildUpdate(ops []docstore.FieldOp) (bson.M, error) {
	update := bson.M{}
	section := func(name string) bson.M {
		sec, ok := update[name].(bson.M)
		if !ok {
			sec = bson.M{}
			update[name] = sec
		}
		return sec
	}

	for _, op := range ops {
		switch op.Kind {
		case docstore.OpSet:
			section("$set")[op.Field] = op.Value
		case docstore.OpInc:
			section("$inc")[op.Field] = op.Value
		case docstore.OpAddToSet:
			section("$addToSet")[op.Field] = op.Value
		case docstore.OpPull:
			section("$pull")[op.Field] = op.Value
		case docstore.OpPush:
			section("$push")[op.Field] = op.Value
		default:
			return nil, fmt.Errorf("mongo: unsupported op %d on %s", op.Kind, op.Field)
		}
	}
	return update, nil
}

func buildFilter(q docstore.Query) bson.M {
	and := bson.A{}
	for _, f := range q.Filters {
		// 数组字段上的相等匹配即为包含
		if f.Op == docstore.Eq || f.Op == docstore.Contains {
			and = append(and, bson.M{f.Field: f.Value})
			continue
		}
		and = append(and, bson.M{f.Field: bson.M{"$" + string(f.Op): f.Value}})
	}

	// 键集游标: (k0 > v0) or (k0 = v0 and k1 > v1) ...
	if len(q.StartAfter) > 0 {
		or := bson.A{}
		for i := range q.StartAfter {
			clause := bson.M{}
			for j := 0; j < i; j++ {
				clause[q.OrderBy[j].Field] = q.StartAfter[j]
			}
			cmp := "$gt"
			if q.OrderBy[i].Desc {
				cmp = "$lt"
			}
			clause[q.OrderBy[i].Field] = bson.M{cmp: q.StartAfter[i]}
			or = append(or, clause)
		}
		and = append(and, bson.M{"$or": or})
	}

	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

func direction(o docstore.Order) int {
	if o.Desc {
		return -1
	}
	return 1
}
