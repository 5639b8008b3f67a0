package provider

import (
	"context"

	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
)

// CrossType 是跨类型扩展信号源：与 Content 同一套相似度打分，
// 但刻意只在其他实体类型里找候选（课程 → 周边、实体商品 → 服务）。
// 类型维度必然得 0 分，整体精度偏低，默认关闭。
type CrossType struct {
	Catalog core.CatalogStore

	// PoolSize 候选池上限，默认 100
	PoolSize int
}

func (p *CrossType) Name() string { return config.AlgoCrossType }

func (p *CrossType) Score(
	ctx context.Context,
	rctx *core.RecommendContext,
	cfg *config.AlgorithmConfig,
) ([]*core.Item, error) {
	if p.Catalog == nil || rctx == nil || rctx.TargetAttrs == nil {
		return nil, nil
	}
	attrs := rctx.TargetAttrs

	others := make([]core.EntityType, 0, len(core.EntityTypes)-1)
	for _, t := range core.EntityTypes {
		if t != attrs.EntityType {
			others = append(others, t)
		}
	}

	poolSize := p.PoolSize
	if poolSize <= 0 {
		poolSize = 100
	}

	pool, err := p.Catalog.FetchCandidatePool(ctx, core.CandidateQuery{
		Category:  attrs.Category,
		Tags:      attrs.Tags,
		Types:     others,
		ExcludeID: attrs.ID,
		Max:       poolSize,
	})
	if err != nil {
		return nil, err
	}

	return scorePool(attrs, pool, cfg.Similarity, p.Name()), nil
}
