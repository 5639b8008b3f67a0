package config

import (
	"sort"

	"github.com/shopkit/recommend/core"
)

// 内置算法名。Weights/Algorithms 的 key 必须取自这里。
const (
	AlgoContent       = "content"       // 基于内容：同类目/标签相似
	AlgoCollaborative = "collaborative" // 协同：共现表
	AlgoTrending      = "trending"      // 热度：近期交互
	AlgoBehavioral    = "behavioral"    // 行为：用户自身历史
	AlgoCrossType     = "crosstype"     // 跨类型扩展：精度低，默认关闭
)

// KnownAlgorithms 返回全部内置算法名（固定顺序）。
func KnownAlgorithms() []string {
	return []string{AlgoContent, AlgoCollaborative, AlgoTrending, AlgoBehavioral, AlgoCrossType}
}

// AlgorithmConfig 是引擎的全量可调配置。
//
// 不可变值对象：修改 = 构造新配置 → 校验 → 原子替换，绝不原地改字段，
// 在途请求永远看到一份完整一致的快照。
//
// 两条权重不变式：
//   - Similarity 的四个子权重之和必须恰好为 100（构造即校验）
//   - Weights 的各算法权重各自在 [0,100]，静态之和可以不是 100：
//     混合时只对"本次真正返回了结果的算法"做归一化
type AlgorithmConfig struct {
	// Algorithms 按算法名开关。一个都没开时引擎直接走补位链。
	Algorithms map[string]bool `yaml:"algorithms" json:"algorithms"`

	// Weights 算法名 -> 整数权重百分比 [0,100]
	Weights map[string]int `yaml:"weights" json:"weights"`

	Similarity   SimilarityWeights              `yaml:"similarity" json:"similarity"`
	ProductTypes map[core.EntityType]TypePolicy `yaml:"product_types" json:"product_types"`
	Limits       Limits                         `yaml:"limits" json:"limits"`
	Fallbacks    Fallbacks                      `yaml:"fallbacks" json:"fallbacks"`
}

// SimilarityWeights 是相似度函数的四个子权重与价格容差。
// 四个子权重之和必须恰好为 100，保证综合相似度落在 [0,1]。
type SimilarityWeights struct {
	CategoryWeight int `yaml:"category_weight" json:"category_weight" validate:"min=0,max=100"`
	TagsWeight     int `yaml:"tags_weight" json:"tags_weight" validate:"min=0,max=100"`
	PriceWeight    int `yaml:"price_weight" json:"price_weight" validate:"min=0,max=100"`
	TypeWeight     int `yaml:"type_weight" json:"type_weight" validate:"min=0,max=100"`

	// PriceTolerance 价格容差带（百分比）：价差超出 a.price×tolerance/100 记 0 分
	PriceTolerance int `yaml:"price_tolerance" json:"price_tolerance" validate:"gt=0"`
}

// Sum 返回四个子权重之和。
func (w SimilarityWeights) Sum() int {
	return w.CategoryWeight + w.TagsWeight + w.PriceWeight + w.TypeWeight
}

// TypePolicy 是单个实体类型的推荐策略。
type TypePolicy struct {
	Enabled             bool    `yaml:"enabled" json:"enabled"`
	MaxRecommendations  int     `yaml:"max_recommendations" json:"max_recommendations" validate:"gt=0"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold" validate:"gte=0,lte=1"`
}

// Limits 是全局限制。
type Limits struct {
	MaxRecommendationsPerPage int     `yaml:"max_recommendations_per_page" json:"max_recommendations_per_page" validate:"gte=1"`
	MinConfidenceThreshold    float64 `yaml:"min_confidence_threshold" json:"min_confidence_threshold" validate:"gte=0,lte=1"`
	CacheExpiryMinutes        int     `yaml:"cache_expiry_minutes" json:"cache_expiry_minutes" validate:"gte=1"`

	// EnablePersonalization 为 false 时，个性化信号（协同/行为）即使单独开启也不跑
	EnablePersonalization bool `yaml:"enable_personalization" json:"enable_personalization"`

	// ProviderTimeoutMillis 单个信号源的超时（毫秒），0 取默认 300
	ProviderTimeoutMillis int `yaml:"provider_timeout_millis" json:"provider_timeout_millis" validate:"gte=0"`
}

// Fallbacks 是补位链各级的开关。
// 评估顺序固定为 trending → popular → category → store，与声明顺序无关。
type Fallbacks struct {
	Trending bool `yaml:"trending" json:"trending"`
	Popular  bool `yaml:"popular" json:"popular"`
	Category bool `yaml:"category" json:"category"`
	Store    bool `yaml:"store" json:"store"`
}

// EnabledAlgorithms 返回开启的算法名（排序后，保证确定性）。
func (c *AlgorithmConfig) EnabledAlgorithms() []string {
	out := make([]string, 0, len(c.Algorithms))
	for name, on := range c.Algorithms {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// AnyEnabled 返回是否至少有一个算法开启。
func (c *AlgorithmConfig) AnyEnabled() bool {
	for _, on := range c.Algorithms {
		if on {
			return true
		}
	}
	return false
}

// PolicyFor 返回某实体类型的策略。未配置的类型按"开启、不设相似度下限、
// 上限取每页最大值"处理。
func (c *AlgorithmConfig) PolicyFor(t core.EntityType) TypePolicy {
	if p, ok := c.ProductTypes[t]; ok {
		return p
	}
	return TypePolicy{
		Enabled:             true,
		MaxRecommendations:  c.Limits.MaxRecommendationsPerPage,
		SimilarityThreshold: 0,
	}
}

// DefaultConfig 返回一份可直接生效的默认配置：
// 内容/协同/热度/行为开启，跨类型默认关闭。
func DefaultConfig() *AlgorithmConfig {
	typePolicy := TypePolicy{Enabled: true, MaxRecommendations: 12, SimilarityThreshold: 0.1}
	return &AlgorithmConfig{
		Algorithms: map[string]bool{
			AlgoContent:       true,
			AlgoCollaborative: true,
			AlgoTrending:      true,
			AlgoBehavioral:    true,
			AlgoCrossType:     false,
		},
		Weights: map[string]int{
			AlgoContent:       40,
			AlgoCollaborative: 25,
			AlgoTrending:      15,
			AlgoBehavioral:    20,
			AlgoCrossType:     0,
		},
		Similarity: SimilarityWeights{
			CategoryWeight: 40,
			TagsWeight:     30,
			PriceWeight:    20,
			TypeWeight:     10,
			PriceTolerance: 20,
		},
		ProductTypes: map[core.EntityType]TypePolicy{
			core.EntityDigital:  typePolicy,
			core.EntityPhysical: typePolicy,
			core.EntityService:  typePolicy,
			core.EntityCourse:   typePolicy,
			core.EntityArtist:   {Enabled: true, MaxRecommendations: 8, SimilarityThreshold: 0.05},
		},
		Limits: Limits{
			MaxRecommendationsPerPage: 24,
			MinConfidenceThreshold:    0.1,
			CacheExpiryMinutes:        30,
			EnablePersonalization:     true,
			ProviderTimeoutMillis:     300,
		},
		Fallbacks: Fallbacks{
			Trending: true,
			Popular:  true,
			Category: true,
			Store:    false,
		},
	}
}
