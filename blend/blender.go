// Package blend 实现多信号融合排序：按算法权重加权求和、
// 对"本次真正响应的算法"做权重归一化、确定性排序、双重下限过滤与截断。
package blend

import (
	"sort"

	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
)

// EffectiveWeights 只对本次返回了结果的算法做权重归一化，
// 返回 算法名 -> 权重占比（和为 1）。没响应的算法既不贡献分数
// 也不占分母。全部权重为 0 时退化为均分。
func EffectiveWeights(cfg *config.AlgorithmConfig, responded []string) map[string]float64 {
	if len(responded) == 0 {
		return nil
	}
	total := 0
	for _, name := range responded {
		total += cfg.Weights[name]
	}

	out := make(map[string]float64, len(responded))
	if total <= 0 {
		// 响应算法的静态权重全是 0：均分，避免整轮信号作废
		equal := 1.0 / float64(len(responded))
		for _, name := range responded {
			out[name] = equal
		}
		return out
	}
	for _, name := range responded {
		out[name] = float64(cfg.Weights[name]) / float64(total)
	}
	return out
}

// Blend 融合一轮 fan-out 的合并候选，产出最终有序列表：
//
//  1. 综合分 = Σ 原始分 × 归一化权重，落在 [0,1]
//  2. 排序：综合分降序 → 热度降序 → 实体 ID 升序（可复现）
//  3. 剔除目标自身与用户已拥有的实体
//  4. 双重下限：类型相似度下限与全局置信度下限取其严
//  5. 截断到 min(limit, 类型结果上限)
func Blend(
	items []*core.Item,
	responded []string,
	cfg *config.AlgorithmConfig,
	rctx *core.RecommendContext,
) []*core.Item {
	if len(items) == 0 || len(responded) == 0 {
		return nil
	}
	weights := EffectiveWeights(cfg, responded)
	target := rctx.Target

	scored := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil || it.ID == "" || it.ID == target.EntityID {
			continue
		}
		if rctx.Owned != nil && rctx.Owned[it.ID] {
			continue
		}
		composite := 0.0
		for algo, raw := range it.RawScores {
			composite += raw * weights[algo]
		}
		if composite > 1 {
			composite = 1
		}
		it.Score = composite
		it.Sources = it.ContributingAlgorithms()
		scored = append(scored, it)
	}

	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if pa, pb := a.Popularity(), b.Popularity(); pa != pb {
			return pa > pb
		}
		return a.ID < b.ID
	})

	policy := cfg.PolicyFor(target.EntityType)
	floor := policy.SimilarityThreshold
	if cfg.Limits.MinConfidenceThreshold > floor {
		floor = cfg.Limits.MinConfidenceThreshold
	}

	kept := make([]*core.Item, 0, len(scored))
	for _, it := range scored {
		if it.Score < floor {
			continue
		}
		kept = append(kept, it)
	}

	n := rctx.Limit
	if policy.MaxRecommendations > 0 && policy.MaxRecommendations < n {
		n = policy.MaxRecommendations
	}
	if n > 0 && len(kept) > n {
		kept = kept[:n]
	}
	return kept
}
