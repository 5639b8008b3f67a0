package core

import "github.com/shopkit/recommend/pkg/utils"

// RecommendContext 承载一次请求的目标与上下文信息，贯穿整个推荐链路透传。
type RecommendContext struct {
	// Target 是本次推荐的目标，构造后不可变
	Target *RecommendTarget

	// TargetAttrs 是目标实体在目录中的完整属性，由引擎在入口处取一次
	TargetAttrs *EntityAttributes

	// Limit 是钳制后的请求数量
	Limit int

	// Owned 是请求用户已拥有/已购买的实体，混合阶段剔除
	Owned map[string]bool

	// Labels 是请求级标签，可驱动过滤/解释
	Labels map[string]utils.Label

	// Params 请求级上下文参数（scene、device 等，按需透传）
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
