package filter

import (
	"context"
	"encoding/json"

	"github.com/shopkit/recommend/core"
)

// Blacklist 是黑名单过滤器：剔除运营下架/屏蔽的实体。
// 黑名单可以是内存列表，也可以从 Store 里的 JSON 数组读取。
type Blacklist struct {
	// EntityIDs 内存黑名单
	EntityIDs []string

	// Store + Key 从存储读取黑名单（可选）
	Store core.Store
	Key   string
}

func (f *Blacklist) Name() string { return "filter.blacklist" }

func (f *Blacklist) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.EntityIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		data, err := f.Store.Get(ctx, f.Key)
		if err != nil {
			if core.IsStoreNotFound(err) {
				return false, nil
			}
			return false, err
		}
		var ids []string
		if json.Unmarshal(data, &ids) == nil {
			for _, id := range ids {
				if item.ID == id {
					return true, nil
				}
			}
		}
	}
	return false, nil
}
