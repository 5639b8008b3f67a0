package provider

import (
	"context"

	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
	"github.com/shopkit/recommend/pkg/utils"
)

// Trending 是热度信号源：近期交互量的归一化排名，与目标实体无关。
// 热度分由协作方预计算（已含时间衰减），这里只做 TopN 读取与归一化。
type Trending struct {
	Behavior core.BehaviorStore

	// Scope 热度榜范围，空串取全局榜
	Scope string

	// MaxCandidates 候选上限，默认 50
	MaxCandidates int
}

func (p *Trending) Name() string { return config.AlgoTrending }

func (p *Trending) Score(
	ctx context.Context,
	rctx *core.RecommendContext,
	cfg *config.AlgorithmConfig,
) ([]*core.Item, error) {
	if p.Behavior == nil || rctx == nil || rctx.Target == nil {
		return nil, nil
	}

	scope := p.Scope
	if scope == "" {
		scope = core.ScopeGlobal
	}
	max := p.MaxCandidates
	if max <= 0 {
		max = 50
	}

	entries, err := p.Behavior.FetchTrending(ctx, scope, max)
	if err != nil {
		return nil, err
	}
	return itemsFromEntries(entries, rctx.Target.EntityID, p.Name()), nil
}

// itemsFromEntries 把榜单条目转成按最大分归一化的候选。
func itemsFromEntries(entries []core.TrendingEntry, excludeID, source string) []*core.Item {
	if len(entries) == 0 {
		return nil
	}
	scores := make([]float64, 0, len(entries))
	for _, e := range entries {
		scores = append(scores, e.Score)
	}
	maxScore := normalizeMax(scores)
	if maxScore <= 0 {
		return nil
	}

	out := make([]*core.Item, 0, len(entries))
	for _, e := range entries {
		if e.EntityID == "" || e.EntityID == excludeID || e.Score <= 0 {
			continue
		}
		it := core.NewItem(e.EntityID)
		it.PutRawScore(source, e.Score/maxScore)
		it.Meta["popularity"] = e.Score
		it.PutLabel("recall_source", utils.Label{Value: source, Source: "provider"})
		out = append(out, it)
	}
	return out
}
