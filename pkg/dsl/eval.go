package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/shopkit/recommend/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量和函数
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	if celEnv == nil && err == nil {
		err = fmt.Errorf("cel env not initialized")
	}
	return celEnv, err
}

// Eval 是规则表达式解释器，使用 CEL (Common Expression Language) 实现。
// 表达式在构造时编译一次，之后可对任意候选重复求值，线程安全。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "trending" / label.fallback_stage != "store"
//   - 数值：item.score > 0.7 / item.meta.price >= 100.0
//   - 逻辑：label.recall_source == "crosstype" && item.score < 0.3
//   - 包含：label.recall_source.contains("content")
//
// 注意：CEL 访问不存在的 key 会报错，用 label.key != null 检查存在性。
type Eval struct {
	expr string
	prg  cel.Program
}

// NewEval 编译一条规则表达式。编译失败立即返回错误，
// 避免把坏表达式带到请求路径上。
func NewEval(expr string) (*Eval, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Eval{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式文本。
func (e *Eval) Expr() string { return e.expr }

// Match 对一个候选求值，返回布尔结果。
func (e *Eval) Match(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := e.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", e.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression %q must return boolean, got %T", e.expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	// label.xxx 直接取 Label 的 value，表达式里最常用
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	itemInput := map[string]any{
		"id":         item.ID,
		"score":      item.Score,
		"raw_scores": item.RawScores,
		"sources":    item.Sources,
		"meta":       item.Meta,
	}

	rctxInput := map[string]any{}
	if rctx != nil && rctx.Target != nil {
		rctxInput["user_id"] = rctx.Target.UserID
		rctxInput["entity_id"] = rctx.Target.EntityID
		rctxInput["entity_type"] = string(rctx.Target.EntityType)
	}
	if rctx != nil && rctx.Params != nil {
		rctxInput["params"] = rctx.Params
	}

	return map[string]any{
		"item":  itemInput,
		"label": labels,
		"rctx":  rctxInput,
	}
}
