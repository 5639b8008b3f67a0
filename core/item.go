package core

import (
	"sort"

	"github.com/shopkit/recommend/pkg/conv"
	"github.com/shopkit/recommend/pkg/utils"
)

// Item 是推荐链路中的统一承载结构：候选实体、各信号源的原始分、
// 混合后的综合分、元信息快照与标签。
// RawScores 按算法名记录原始分 [0,1]，供 Blender 按权重归一化融合；
// Labels 用于解释与观测（例如 UI 上的"猜你喜欢"角标）。
type Item struct {
	ID        string                 `json:"id"`
	Score     float64                `json:"score"`      // 综合分 [0,1]
	RawScores map[string]float64     `json:"raw_scores"` // 算法名 -> 原始分
	Sources   []string               `json:"sources"`    // 参与打分的算法（有序）
	Meta      map[string]any         `json:"meta"`       // 元信息快照（name/price/image/store 等，只取一次）
	Labels    map[string]utils.Label `json:"labels"`
}

func NewItem(id string) *Item {
	return &Item{
		ID:        id,
		RawScores: make(map[string]float64),
		Meta:      make(map[string]any),
		Labels:    make(map[string]utils.Label),
	}
}

// PutRawScore 记录某个算法给出的原始分；同名算法覆盖写。
func (it *Item) PutRawScore(algo string, score float64) {
	if it.RawScores == nil {
		it.RawScores = make(map[string]float64)
	}
	it.RawScores[algo] = score
}

// ContributingAlgorithms 返回对该候选实际贡献过原始分的算法名（排序后）。
func (it *Item) ContributingAlgorithms() []string {
	out := make([]string, 0, len(it.RawScores))
	for algo := range it.RawScores {
		out = append(out, algo)
	}
	sort.Strings(out)
	return out
}

// Popularity 从元信息读取热度/购买量，没有则为 0。用于同分时的确定性排序。
func (it *Item) Popularity() float64 {
	if it.Meta == nil {
		return 0
	}
	if v, ok := conv.ToFloat64(it.Meta["popularity"]); ok {
		return v
	}
	return 0
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Absorb 合并另一个信号源产出的同 ID 候选：累积 RawScores 与 Labels，
// 元信息以先到者为准（快照只取一次），热度取较大值。
func (it *Item) Absorb(other *Item) {
	if other == nil || other.ID != it.ID {
		return
	}
	for algo, s := range other.RawScores {
		it.PutRawScore(algo, s)
	}
	for k, v := range other.Labels {
		it.PutLabel(k, v)
	}
	if len(it.Meta) == 0 && len(other.Meta) > 0 {
		it.Meta = other.Meta
	} else if other.Popularity() > it.Popularity() {
		it.Meta["popularity"] = other.Popularity()
	}
}
