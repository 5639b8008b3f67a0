// Package similarity 实现内容相似度打分：类目、标签、价格、类型
// 四个维度按配置权重加权，综合分落在 [0,1]。
package similarity

import (
	"math"

	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
)

// Score 计算两个实体的加权相似度。
// 四个子权重之和为 100（配置不变式），所以综合分必然在 [0,1]；
// 自身与自身的相似度恒为 1。
func Score(a, b *core.EntityAttributes, w config.SimilarityWeights) float64 {
	if a == nil || b == nil {
		return 0
	}

	category := 0.0
	if a.Category == b.Category {
		category = 1.0
	}

	tags := Jaccard(a.Tags, b.Tags)
	price := PriceProximity(a.Price, b.Price, w.PriceTolerance)

	typ := 0.0
	if a.EntityType == b.EntityType {
		typ = 1.0
	}

	composite := (category*float64(w.CategoryWeight) +
		tags*float64(w.TagsWeight) +
		price*float64(w.PriceWeight) +
		typ*float64(w.TypeWeight)) / 100.0
	return clamp01(composite)
}

// Jaccard 计算两个标签集合的 Jaccard 系数：|交集| / |并集|。
// 两个空集视为相同（1.0），恰有一方为空记 0。
func Jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	union := make(map[string]bool, len(a)+len(b))
	for t := range setA {
		union[t] = true
	}
	intersection := 0
	for _, t := range b {
		if !union[t] {
			union[t] = true
			continue
		}
		if setA[t] {
			setA[t] = false // 同一标签只计一次交集
			intersection++
		}
	}
	return float64(intersection) / float64(len(union))
}

// PriceProximity 按容差带打价格接近分：
//
//	score = max(0, 1 − |a−b| / (a × tolerance/100))
//
// 价差超出容差带记 0，完全相同记 1。基准价为 0 时无法构成
// 容差带，只有价格完全相同得 1 分。
func PriceProximity(a, b float64, tolerancePercent int) float64 {
	if a == b {
		return 1.0
	}
	if a <= 0 || tolerancePercent <= 0 {
		return 0
	}
	band := a * float64(tolerancePercent) / 100.0
	score := 1.0 - math.Abs(a-b)/band
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
