package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound           = errors.New("docstore: document not found")
	ErrPreconditionFailed = errors.New("docstore: precondition failed")
)

// Store 文档存储抽象，业务层只依赖该接口
// 除 ErrNotFound 与 ErrPreconditionFailed 外的错误均视为存储不可用
type Store interface {
	// Get 按 id 读取文档并解码到 out
	Get(ctx context.Context, collection, id string, out any) error
	// Put 创建或整体替换
	Put(ctx context.Context, collection, id string, doc any) error
	// Update 对单个文档原子地应用一组字段操作
	Update(ctx context.Context, collection, id string, m *Mutation) error
	// Query 按条件、排序与游标查询，结果解码到 out 指向的切片
	Query(ctx context.Context, collection string, q Query, out any) error
	Delete(ctx context.Context, collection, id string) error
}

// Indexer 可选能力，支持建索引的实现会在启动时被调用
type Indexer interface {
	EnsureIndexes(ctx context.Context, specs []IndexSpec) error
}

type IndexSpec struct {
	Collection string
	Name       string
	Keys       []Order
}
