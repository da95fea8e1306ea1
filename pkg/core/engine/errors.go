package engine

import "errors"

var (
	// ErrTreeNotFound 树不存在
	ErrTreeNotFound = errors.New("tree not found")
	// ErrNodeNotFound 节点不存在
	ErrNodeNotFound = errors.New("node not found")
	// ErrTreeExists 创建时ID已被占用
	ErrTreeExists = errors.New("tree already exists")
	// ErrImmutableID 试图通过更新修改ID
	ErrImmutableID = errors.New("id cannot be changed")
	// ErrInvalidDocument 文档无法解析（语法层面，区别于校验错误）
	ErrInvalidDocument = errors.New("invalid tree document")
)
