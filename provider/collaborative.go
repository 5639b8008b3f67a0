package provider

import (
	"context"

	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
	"github.com/shopkit/recommend/pkg/utils"
)

// Collaborative 是协同过滤信号源："看过/买过 X 的用户也看过/买过 Y"。
// 共现表由行为协作方离线产出，这里只做读取与归一化，不做在线学习。
//
// 个性化前提：请求必须带用户身份且个性化总开关开启，
// 否则返回空列表（不是错误）。
type Collaborative struct {
	Behavior core.BehaviorStore

	// MaxCandidates 共现候选上限，默认 100
	MaxCandidates int
}

func (p *Collaborative) Name() string { return config.AlgoCollaborative }

func (p *Collaborative) Score(
	ctx context.Context,
	rctx *core.RecommendContext,
	cfg *config.AlgorithmConfig,
) ([]*core.Item, error) {
	if p.Behavior == nil || rctx == nil || rctx.Target == nil {
		return nil, nil
	}
	if !personalized(rctx, cfg) {
		return nil, nil
	}

	max := p.MaxCandidates
	if max <= 0 {
		max = 100
	}

	cooc, err := p.Behavior.FetchCoOccurrence(ctx, rctx.Target.EntityID, max)
	if err != nil {
		return nil, err
	}
	if len(cooc) == 0 {
		return nil, nil
	}

	// 归一化：分数 = 共现次数 / 最大共现次数
	counts := make([]float64, 0, len(cooc))
	for _, c := range cooc {
		counts = append(counts, float64(c.Count))
	}
	maxCount := normalizeMax(counts)
	if maxCount <= 0 {
		return nil, nil
	}

	out := make([]*core.Item, 0, len(cooc))
	for _, c := range cooc {
		if c.EntityID == "" || c.EntityID == rctx.Target.EntityID || c.Count <= 0 {
			continue
		}
		it := core.NewItem(c.EntityID)
		it.PutRawScore(p.Name(), float64(c.Count)/maxCount)
		it.Meta["popularity"] = float64(c.Count)
		it.PutLabel("recall_source", utils.Label{Value: p.Name(), Source: "provider"})
		out = append(out, it)
	}
	return out, nil
}
