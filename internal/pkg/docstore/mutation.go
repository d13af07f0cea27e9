package docstore

type OpKind int

const (
	OpSet OpKind = iota
	OpInc
	OpAddToSet
	OpPull
	OpPush
)

type FieldOp struct {
	Kind  OpKind
	Field string
	Value any
}

// Mutation 单文档的部分更新，所有操作与前置条件在一次写入内生效
type Mutation struct {
	Ops           []FieldOp
	Preconditions []FieldOp
}

func NewMutation() *Mutation {
	return &Mutation{}
}

func (m *Mutation) Set(field string, value any) *Mutation {
	m.Ops = append(m.Ops, FieldOp{Kind: OpSet, Field: field, Value: value})
	return m
}

func (m *Mutation) Inc(field string, delta int64) *Mutation {
	m.Ops = append(m.Ops, FieldOp{Kind: OpInc, Field: field, Value: delta})
	return m
}

// AddToSet 集合添加，已存在时不变
func (m *Mutation) AddToSet(field string, value any) *Mutation {
	m.Ops = append(m.Ops, FieldOp{Kind: OpAddToSet, Field: field, Value: value})
	return m
}

// Pull 移除数组中所有等于 value 的元素
func (m *Mutation) Pull(field string, value any) *Mutation {
	m.Ops = append(m.Ops, FieldOp{Kind: OpPull, Field: field, Value: value})
	return m
}

// Push 追加到数组末尾
func (m *Mutation) Push(field string, value any) *Mutation {
	m.Ops = append(m.Ops, FieldOp{Kind: OpPush, Field: field, Value: value})
	return m
}

// Require 仅当字段当前值等于 value 时才写入，否则返回 ErrPreconditionFailed
func (m *Mutation) Require(field string, value any) *Mutation {
	m.Preconditions = append(m.Preconditions, FieldOp{Kind: OpSet, Field: field, Value: value})
	return m
}

func (m *Mutation) Empty() bool {
	return m == nil || len(m.Ops) == 0
}
