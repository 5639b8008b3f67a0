// Package storeadapter 用 core.KeyValueStore 实现目录与行为协作方的
// 领域接口，作为参考实现：测试、示例与中小规模部署直接可用，
// 生产可替换为数据库/检索服务的适配器。
package storeadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopkit/recommend/core"
)

const catalogHashKey = "catalog:attrs"

// CatalogAdapter 用 KeyValueStore 实现 core.CatalogStore。
//
// 数据布局：
//
//	catalog:attrs (hash)  field=entityID  value=JSON EntityAttributes
//
// FetchCandidatePool 做全量扫描后按条件过滤，适合中小目录；
// 结果按热度降序、同热度按 ID 升序，保证确定性。
type CatalogAdapter struct {
	Store core.KeyValueStore
}

func NewCatalogAdapter(s core.KeyValueStore) *CatalogAdapter {
	return &CatalogAdapter{Store: s}
}

var _ core.CatalogStore = (*CatalogAdapter)(nil)

// PutEntity 写入/覆盖一个实体的属性，灌数据用。
func (a *CatalogAdapter) PutEntity(ctx context.Context, attrs *core.EntityAttributes) error {
	if attrs == nil || attrs.ID == "" {
		return fmt.Errorf("storeadapter: entity id required")
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("storeadapter: marshal entity: %w", err)
	}
	return a.Store.HSet(ctx, catalogHashKey, attrs.ID, data)
}

func (a *CatalogAdapter) FetchEntityAttributes(ctx context.Context, id string) (*core.EntityAttributes, error) {
	data, err := a.Store.HGet(ctx, catalogHashKey, id)
	if err != nil {
		return nil, err
	}
	var attrs core.EntityAttributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("storeadapter: unmarshal entity %s: %w", id, err)
	}
	return &attrs, nil
}

func (a *CatalogAdapter) FetchCandidatePool(ctx context.Context, q core.CandidateQuery) ([]*core.EntityAttributes, error) {
	all, err := a.Store.HGetAll(ctx, catalogHashKey)
	if err != nil {
		return nil, err
	}

	out := make([]*core.EntityAttributes, 0, len(all))
	for id, data := range all {
		if id == q.ExcludeID {
			continue
		}
		var attrs core.EntityAttributes
		if json.Unmarshal(data, &attrs) != nil {
			continue
		}
		if !matches(&attrs, q) {
			continue
		}
		out = append(out, &attrs)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Popularity != out[j].Popularity {
			return out[i].Popularity > out[j].Popularity
		}
		return out[i].ID < out[j].ID
	})
	if q.Max > 0 && len(out) > q.Max {
		out = out[:q.Max]
	}
	return out, nil
}

// matches 判断实体是否满足查询条件。
// 类目与标签是"或"：同类目或有标签交集即可；类型、店铺是"且"。
func matches(attrs *core.EntityAttributes, q core.CandidateQuery) bool {
	if len(q.Types) > 0 {
		ok := false
		for _, t := range q.Types {
			if attrs.EntityType == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if q.StoreID != "" && attrs.StoreID != q.StoreID {
		return false
	}
	if q.Category == "" && len(q.Tags) == 0 {
		return true
	}
	if q.Category != "" && attrs.Category == q.Category {
		return true
	}
	for _, want := range q.Tags {
		for _, have := range attrs.Tags {
			if want == have {
				return true
			}
		}
	}
	return false
}
