package dao

import (
	"time"
)

// TreeDAO capability_tree表的数据访问对象（内部使用）
type TreeDAO struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Document   string    `db:"document"` // YAML格式存储
	Revision   string    `db:"revision"`
	NodeCount  int       `db:"node_count"`
	CreateTime time.Time `db:"create_time"`
	UpdateTime time.Time `db:"update_time"`
}

// TreeSummaryDAO 列表查询结果，不含文档正文
type TreeSummaryDAO struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Revision   string    `db:"revision"`
	NodeCount  int       `db:"node_count"`
	UpdateTime time.Time `db:"update_time"`
}
