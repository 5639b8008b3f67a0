package core

import (
	"context"
	"time"
)

// EntityAttributes 是目录中一个实体的属性快照。
type EntityAttributes struct {
	ID         string     `json:"id"`
	EntityType EntityType `json:"entity_type"`
	Category   string     `json:"category"`
	Tags       []string   `json:"tags"`
	Price      float64    `json:"price"`
	StoreID    string     `json:"store_id"`
	Name       string     `json:"name"`
	ImageURL   string     `json:"image_url"`
	Popularity float64    `json:"popularity"` // 累计购买/交互量
	CreatedAt  time.Time  `json:"created_at"`
}

// MetaSnapshot 生成候选的元信息快照。快照在整条链路上只取一次，
// 各信号源不重复回源。
func (a *EntityAttributes) MetaSnapshot() map[string]any {
	return map[string]any{
		"name":        a.Name,
		"price":       a.Price,
		"image":       a.ImageURL,
		"store_id":    a.StoreID,
		"category":    a.Category,
		"entity_type": string(a.EntityType),
		"popularity":  a.Popularity,
	}
}

// CandidateQuery 是候选池查询条件。
// Category 与 Tags 是"或"的关系：同类目或有标签交集的实体入池；
// Types 为空表示不限类型；StoreID 非空时只取同店铺。
type CandidateQuery struct {
	Category  string
	Tags      []string
	Types     []EntityType
	StoreID   string
	ExcludeID string
	Max       int
}

// CatalogStore 是商品目录协作方的领域接口。
// 目录不可达对整个请求是致命的：实体属性是打分的必需输入。
type CatalogStore interface {
	// FetchEntityAttributes 取单个实体的属性
	FetchEntityAttributes(ctx context.Context, id string) (*EntityAttributes, error)

	// FetchCandidatePool 按条件取一个有界候选池
	FetchCandidatePool(ctx context.Context, q CandidateQuery) ([]*EntityAttributes, error)
}
