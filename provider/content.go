package provider

import (
	"context"

	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
	"github.com/shopkit/recommend/pkg/utils"
	"github.com/shopkit/recommend/similarity"
)

// Content 是基于内容的信号源（Content-Based）。
//
// 核心思想："看的是什么，就推和它长得像的"：从目录取一个有界候选池
// （同类目或有标签交集），逐个用相似度函数打分。
type Content struct {
	Catalog core.CatalogStore

	// PoolSize 候选池上限，默认 200
	PoolSize int
}

func (p *Content) Name() string { return config.AlgoContent }

func (p *Content) Score(
	ctx context.Context,
	rctx *core.RecommendContext,
	cfg *config.AlgorithmConfig,
) ([]*core.Item, error) {
	if p.Catalog == nil || rctx == nil || rctx.TargetAttrs == nil {
		return nil, nil
	}
	attrs := rctx.TargetAttrs

	poolSize := p.PoolSize
	if poolSize <= 0 {
		poolSize = 200
	}

	pool, err := p.Catalog.FetchCandidatePool(ctx, core.CandidateQuery{
		Category:  attrs.Category,
		Tags:      attrs.Tags,
		Types:     []core.EntityType{attrs.EntityType},
		ExcludeID: attrs.ID,
		Max:       poolSize,
	})
	if err != nil {
		return nil, err
	}

	return scorePool(attrs, pool, cfg.Similarity, p.Name()), nil
}

// scorePool 用相似度函数给候选池打分，0 分候选不入列。
// 内容类信号顺手带上元信息快照（候选池里已经有完整属性，
// 其他信号源的快照由引擎在终点统一补齐）。
func scorePool(target *core.EntityAttributes, pool []*core.EntityAttributes, w config.SimilarityWeights, source string) []*core.Item {
	out := make([]*core.Item, 0, len(pool))
	for _, cand := range pool {
		if cand == nil || cand.ID == target.ID {
			continue
		}
		s := similarity.Score(target, cand, w)
		if s <= 0 {
			continue
		}
		it := core.NewItem(cand.ID)
		it.PutRawScore(source, s)
		it.Meta = cand.MetaSnapshot()
		it.PutLabel("recall_source", utils.Label{Value: source, Source: "provider"})
		out = append(out, it)
	}
	return out
}
