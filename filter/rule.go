package filter

import (
	"context"

	"github.com/shopkit/recommend/core"
	"github.com/shopkit/recommend/pkg/dsl"
)

// Rule 是表达式过滤器：CEL 表达式命中的候选被剔除。
// 供运营用规则做兜底治理，例如压掉低分的跨类型候选：
//
//	filter.NewRule(`label.recall_source == "crosstype" && item.score < 0.3`)
type Rule struct {
	eval *dsl.Eval
}

// NewRule 编译一条剔除规则，表达式非法立即报错。
func NewRule(expr string) (*Rule, error) {
	eval, err := dsl.NewEval(expr)
	if err != nil {
		return nil, err
	}
	return &Rule{eval: eval}, nil
}

func (f *Rule) Name() string { return "filter.rule" }

func (f *Rule) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.eval.Match(item, rctx)
}
