package docstore

import (
	"fmt"
)

type Op string

const (
	Eq  Op = "eq"
	Gt  Op = "gt"
	Gte Op = "gte"
	Lt  Op = "lt"
	Lte Op = "lte"
	// Contains 数组字段包含该元素
	Contains Op = "contains"
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

type Order struct {
	Field string
	Desc  bool
}

// Query 键集分页查询
// StartAfter 与 OrderBy 一一对应，返回严格排在该键之后的文档
// OrderBy 的最后一个字段需唯一，否则分页不稳定
type Query struct {
	Filters    []Filter
	OrderBy    []Order
	Limit      int
	StartAfter []any
}

func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

func (q Query) Validate() error {
	if len(q.StartAfter) > len(q.OrderBy) {
		return fmt.Errorf("docstore: %d cursor values for %d order fields", len(q.StartAfter), len(q.OrderBy))
	}
	if q.Limit < 0 {
		return fmt.Errorf("docstore: negative limit %d", q.Limit)
	}
	for _, f := range q.Filters {
		switch f.Op {
		case Eq, Gt, Gte, Lt, Lte, Contains:
		default:
			return fmt.Errorf("docstore: unsupported operator %q", f.Op)
		}
	}
	return nil
}
