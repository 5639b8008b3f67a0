package fallback

import (
	"context"

	"github.com/shopkit/recommend/core"
)

// 四个内置补位级的名字，同时作为候选的 fallback_stage 标签值。
const (
	StageTrending = "trending"
	StagePopular  = "popular"
	StageCategory = "category"
	StageStore    = "store"
)

// TrendingStage 从近期热度榜补位。
type TrendingStage struct {
	Behavior core.BehaviorStore
	Scope    string
}

func (s *TrendingStage) Name() string { return StageTrending }

func (s *TrendingStage) Fetch(
	ctx context.Context,
	rctx *core.RecommendContext,
	need int,
	exclude map[string]bool,
) ([]*core.Item, error) {
	scope := s.Scope
	if scope == "" {
		scope = core.ScopeGlobal
	}
	// 多取一些，排除后还够
	entries, err := s.Behavior.FetchTrending(ctx, scope, need+len(exclude))
	if err != nil {
		return nil, err
	}
	return itemsFromEntries(entries, need, exclude), nil
}

// PopularStage 从累计热销榜补位。
type PopularStage struct {
	Behavior core.BehaviorStore
	Scope    string
}

func (s *PopularStage) Name() string { return StagePopular }

func (s *PopularStage) Fetch(
	ctx context.Context,
	rctx *core.RecommendContext,
	need int,
	exclude map[string]bool,
) ([]*core.Item, error) {
	scope := s.Scope
	if scope == "" {
		scope = core.ScopeGlobal
	}
	entries, err := s.Behavior.FetchPopular(ctx, scope, need+len(exclude))
	if err != nil {
		return nil, err
	}
	return itemsFromEntries(entries, need, exclude), nil
}

// CategoryStage 从目标的同类目候选池补位（无权重，按目录热度序）。
type CategoryStage struct {
	Catalog core.CatalogStore
}

func (s *CategoryStage) Name() string { return StageCategory }

func (s *CategoryStage) Fetch(
	ctx context.Context,
	rctx *core.RecommendContext,
	need int,
	exclude map[string]bool,
) ([]*core.Item, error) {
	if rctx.TargetAttrs == nil || rctx.TargetAttrs.Category == "" {
		return nil, nil
	}
	pool, err := s.Catalog.FetchCandidatePool(ctx, core.CandidateQuery{
		Category:  rctx.TargetAttrs.Category,
		ExcludeID: rctx.Target.EntityID,
		Max:       need + len(exclude),
	})
	if err != nil {
		return nil, err
	}
	return itemsFromPool(pool, need, exclude), nil
}

// StoreStage 从目标的同店铺候选池补位。
type StoreStage struct {
	Catalog core.CatalogStore
}

func (s *StoreStage) Name() string { return StageStore }

func (s *StoreStage) Fetch(
	ctx context.Context,
	rctx *core.RecommendContext,
	need int,
	exclude map[string]bool,
) ([]*core.Item, error) {
	if rctx.TargetAttrs == nil || rctx.TargetAttrs.StoreID == "" {
		return nil, nil
	}
	pool, err := s.Catalog.FetchCandidatePool(ctx, core.CandidateQuery{
		StoreID:   rctx.TargetAttrs.StoreID,
		ExcludeID: rctx.Target.EntityID,
		Max:       need + len(exclude),
	})
	if err != nil {
		return nil, err
	}
	return itemsFromPool(pool, need, exclude), nil
}

// itemsFromEntries 把榜单条目转成补位候选，保留协作方的原始热度。
// 补位候选不参与权重融合，综合分记 0，排序只靠入列顺序。
func itemsFromEntries(entries []core.TrendingEntry, need int, exclude map[string]bool) []*core.Item {
	out := make([]*core.Item, 0, need)
	for _, e := range entries {
		if len(out) >= need {
			break
		}
		if e.EntityID == "" || exclude[e.EntityID] {
			continue
		}
		it := core.NewItem(e.EntityID)
		it.Meta["popularity"] = e.Score
		out = append(out, it)
	}
	return out
}

func itemsFromPool(pool []*core.EntityAttributes, need int, exclude map[string]bool) []*core.Item {
	out := make([]*core.Item, 0, need)
	for _, attrs := range pool {
		if len(out) >= need {
			break
		}
		if attrs == nil || attrs.ID == "" || exclude[attrs.ID] {
			continue
		}
		it := core.NewItem(attrs.ID)
		it.Meta = attrs.MetaSnapshot()
		out = append(out, it)
	}
	return out
}
