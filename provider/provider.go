// Package provider 实现五个相互独立的信号源（内容/协同/热度/行为/跨类型）。
// 每个信号源产出零或多个带原始分的候选；单个信号源的失败只会
// 降级为空贡献，绝不中断整个请求。
package provider

import (
	"context"

	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
)

// Provider 是信号源的统一契约。
// 返回的候选原始分必须落在 [0,1]；"没有数据"返回空列表而不是错误
// （例如匿名用户请求个性化信号）。
type Provider interface {
	// Name 返回算法名，必须与 config 中的算法名一致
	Name() string

	// Score 对目标产出候选。实现方应尊重 ctx 的超时/取消。
	Score(ctx context.Context, rctx *core.RecommendContext, cfg *config.AlgorithmConfig) ([]*core.Item, error)
}

// personalized 返回该请求是否允许个性化信号：
// 配置总开关开启且请求带用户身份。
func personalized(rctx *core.RecommendContext, cfg *config.AlgorithmConfig) bool {
	return cfg.Limits.EnablePersonalization && rctx.Target.Personalized()
}

// normalizeMax 返回一组数里的最大值，用于把原始计数归一化到 [0,1]。
func normalizeMax(values []float64) float64 {
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}
