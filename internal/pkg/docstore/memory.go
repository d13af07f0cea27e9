package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore 进程内文档存储，用于开发模式与测试
// 文档经 bson 编解码归一化，取值与比较规则与 MongoDB 保持一致
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	raw, ok := s.collections[collection][id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return bson.Unmarshal(raw, out)
}

func (s *MemoryStore) Put(ctx context.Context, collection, id string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := toDocument(doc)
	if err != nil {
		return err
	}
	m["_id"] = id
	raw, err := bson.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "docstore: marshal document")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string][]byte)
		s.collections[collection] = col
	}
	col[id] = raw
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, m *Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.Empty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return errors.Wrap(err, "docstore: decode stored document")
	}

	for _, pre := range m.Preconditions {
		want, err := normalize(pre.Value)
		if err != nil {
			return err
		}
		if !valuesEqual(doc[pre.Field], want) {
			return ErrPreconditionFailed
		}
	}
	for _, op := range m.Ops {
		if err := applyOp(doc, op); err != nil {
			return err
		}
	}

	updated, err := bson.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "docstore: marshal document")
	}
	s.collections[collection][id] = updated
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, q Query, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := q.Validate(); err != nil {
		return err
	}
	filters, err := normalizeFilters(q.Filters)
	if err != nil {
		return err
	}
	startAfter := make([]any, len(q.StartAfter))
	for i, v := range q.StartAfter {
		if startAfter[i], err = normalize(v); err != nil {
			return err
		}
	}

	s.mu.RLock()
	raws := make([][]byte, 0, len(s.collections[collection]))
	for _, raw := range s.collections[collection] {
		raws = append(raws, raw)
	}
	s.mu.RUnlock()

	type entry struct {
		raw []byte
		doc bson.M
	}
	matched := make([]entry, 0, len(raws))
	for _, raw := range raws {
		var doc bson.M
		if err = bson.Unmarshal(raw, &doc); err != nil {
			return errors.Wrap(err, "docstore: decode stored document")
		}
		if matchAll(doc, filters) {
			matched = append(matched, entry{raw: raw, doc: doc})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return compareKeys(matched[i].doc, keyOf(matched[j].doc, q.OrderBy), q.OrderBy) < 0
	})

	page := make([][]byte, 0, len(matched))
	for _, e := range matched {
		if len(startAfter) > 0 && compareKeys(e.doc, startAfter, q.OrderBy) <= 0 {
			continue
		}
		page = append(page, e.raw)
		if q.Limit > 0 && len(page) == q.Limit {
			break
		}
	}

	// 取消时不返回部分结果
	if err = ctx.Err(); err != nil {
		return err
	}
	return decodeAll(page, out)
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

// EnsureIndexes 内存实现无需索引
func (s *MemoryStore) EnsureIndexes(context.Context, []IndexSpec) error {
	return nil
}

func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func applyOp(doc bson.M, op FieldOp) error {
	switch op.Kind {
	case OpInc:
		delta, ok := op.Value.(int64)
		if !ok {
			return fmt.Errorf("docstore: $inc on %s needs int64, got %T", op.Field, op.Value)
		}
		switch cur := doc[op.Field].(type) {
		case nil:
			doc[op.Field] = delta
		case int32:
			doc[op.Field] = int64(cur) + delta
		case int64:
			doc[op.Field] = cur + delta
		case float64:
			doc[op.Field] = cur + float64(delta)
		default:
			return fmt.Errorf("docstore: $inc on non-numeric field %s", op.Field)
		}
		return nil
	}

	val, err := normalize(op.Value)
	if err != nil {
		return err
	}
	if op.Kind == OpSet {
		doc[op.Field] = val
		return nil
	}

	arr, err := arrayField(doc, op.Field)
	if err != nil {
		return err
	}
	switch op.Kind {
	case OpAddToSet:
		for _, v := range arr {
			if valuesEqual(v, val) {
				return nil
			}
		}
		arr = append(arr, val)
	case OpPull:
		kept := make(bson.A, 0, len(arr))
		for _, v := range arr {
			if !valuesEqual(v, val) {
				kept = append(kept, v)
			}
		}
		arr = kept
	case OpPush:
		arr = append(arr, val)
	default:
		return fmt.Errorf("docstore: unknown op %d", op.Kind)
	}
	doc[op.Field] = arr
	return nil
}

func arrayField(doc bson.M, field string) (bson.A, error) {
	switch v := doc[field].(type) {
	case nil:
		return bson.A{}, nil
	case bson.A:
		return v, nil
	default:
		return nil, fmt.Errorf("docstore: field %s is not an array", field)
	}
}

func toDocument(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "docstore: marshal document")
	}
	var m bson.M
	if err = bson.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, "docstore: decode document")
	}
	return m, nil
}

// normalize 将 Go 值转换为其 bson 解码后的形态，例如 time.Time 转为 primitive.DateTime
func normalize(v any) (any, error) {
	raw, err := bson.Marshal(bson.M{"v": v})
	if err != nil {
		return nil, errors.Wrapf(err, "docstore: unsupported value %T", v)
	}
	var m bson.M
	if err = bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m["v"], nil
}

func normalizeFilters(filters []Filter) ([]Filter, error) {
	out := make([]Filter, len(filters))
	for i, f := range filters {
		v, err := normalize(f.Value)
		if err != nil {
			return nil, err
		}
		out[i] = Filter{Field: f.Field, Op: f.Op, Value: v}
	}
	return out, nil
}

func matchAll(doc bson.M, filters []Filter) bool {
	for _, f := range filters {
		cur, ok := doc[f.Field]
		if f.Op == Contains {
			if !arrayContains(cur, f.Value) {
				return false
			}
			continue
		}
		if !ok || typeRank(cur) != typeRank(f.Value) {
			return false
		}
		c := compareValues(cur, f.Value)
		switch f.Op {
		case Eq:
			if c != 0 {
				return false
			}
		case Gt:
			if c <= 0 {
				return false
			}
		case Gte:
			if c < 0 {
				return false
			}
		case Lt:
			if c >= 0 {
				return false
			}
		case Lte:
			if c > 0 {
				return false
			}
		}
	}
	return true
}

func arrayContains(arr, v any) bool {
	a, ok := arr.(bson.A)
	if !ok {
		return false
	}
	for _, e := range a {
		if valuesEqual(e, v) {
			return true
		}
	}
	return false
}

func keyOf(doc bson.M, orderBy []Order) []any {
	key := make([]any, len(orderBy))
	for i, o := range orderBy {
		key[i] = doc[o.Field]
	}
	return key
}

// compareKeys 按排序方向比较文档与键，只比较 key 覆盖到的字段
func compareKeys(doc bson.M, key []any, orderBy []Order) int {
	for i := range key {
		c := compareValues(doc[orderBy[i].Field], key[i])
		if orderBy[i].Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// typeRank 跨类型比较时的顺序，与 BSON 比较顺序一致
func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 1
	case int32, int64, float64:
		return 2
	case string:
		return 3
	case bson.M, bson.D:
		return 4
	case bson.A:
		return 5
	case bool:
		return 8
	case primitive.DateTime:
		return 9
	default:
		return 10
	}
}

func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case int32, int64, float64:
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case primitive.DateTime:
		bv := b.(primitive.DateTime)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	}
	if reflect.DeepEqual(a, b) {
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func valuesEqual(a, b any) bool {
	if typeRank(a) != typeRank(b) {
		return false
	}
	switch a.(type) {
	case string, int32, int64, float64, primitive.DateTime, bool:
		return compareValues(a, b) == 0
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func decodeAll(raws [][]byte, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("docstore: out must be a pointer to a slice, got %T", out)
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()
	isPtr := elemType.Kind() == reflect.Pointer
	base := elemType
	if isPtr {
		base = elemType.Elem()
	}

	result := reflect.MakeSlice(slice.Type(), 0, len(raws))
	for _, raw := range raws {
		ptr := reflect.New(base)
		if err := bson.Unmarshal(raw, ptr.Interface()); err != nil {
			return errors.Wrap(err, "docstore: decode result")
		}
		if isPtr {
			result = reflect.Append(result, ptr)
		} else {
			result = reflect.Append(result, ptr.Elem())
		}
	}
	slice.Set(result)
	return nil
}
