package filter

import (
	"context"

	"github.com/shopkit/recommend/core"
	"github.com/shopkit/recommend/pkg/utils"
)

// Filter 是过滤器的抽象接口，用于判断一个候选是否应该被剔除。
// 返回 true 表示剔除，false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断候选是否应该被剔除
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Apply 依次用多个过滤器过滤候选列表。
// 过滤器自身出错时跳过该过滤器（宁可多推荐也不让请求失败）；
// 被剔除的候选打上 filtered 标签便于调试与观测。
func Apply(
	ctx context.Context,
	rctx *core.RecommendContext,
	filters []Filter,
	items []*core.Item,
) []*core.Item {
	if len(filters) == 0 || len(items) == 0 {
		return items
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		drop := false
		for _, f := range filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				continue
			}
			if ok {
				drop = true
				item.PutLabel("filtered", utils.Label{Value: "true", Source: f.Name()})
				break
			}
		}
		if !drop {
			out = append(out, item)
		}
	}
	return out
}
