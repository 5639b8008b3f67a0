// Package fallback 实现补位链：主信号产出不足时，按固定顺序
// trending → popular → category → store 逐级补齐候选。
package fallback

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
	"github.com/shopkit/recommend/pkg/utils"
)

// Stage 是一级简化的无权重补位来源。
// need 是还缺多少个；exclude 是已占位的实体（含目标自身与已拥有）。
type Stage interface {
	Name() string
	Fetch(ctx context.Context, rctx *core.RecommendContext, need int, exclude map[string]bool) ([]*core.Item, error)
}

// Chain 按固定顺序走补位链。
//
// 与 fan-out 相反，各级串行执行：上一级补了多少决定下一级还要不要跑。
// 每级的开关来自配置，但评估顺序与声明顺序无关，永远是
// trending → popular → category → store。
// 补位候选始终排在主信号候选之后，不参与权重融合。
type Chain struct {
	Trending Stage
	Popular  Stage
	Category Stage
	Store    Stage
	Logger   zerolog.Logger
}

// Fill 把 have 补到至少 minViable 个。返回补位后的列表和是否达标。
// 某一级失败只记录并跳过，补位链自身永不报错。
func (c *Chain) Fill(
	ctx context.Context,
	rctx *core.RecommendContext,
	cfg *config.AlgorithmConfig,
	have []*core.Item,
	minViable int,
) ([]*core.Item, bool) {
	exclude := make(map[string]bool, len(have)+2)
	if rctx.Target != nil {
		exclude[rctx.Target.EntityID] = true
	}
	for id := range rctx.Owned {
		exclude[id] = true
	}
	for _, it := range have {
		exclude[it.ID] = true
	}

	out := have
	for _, entry := range c.stages(cfg) {
		if len(out) >= minViable {
			break
		}
		if !entry.enabled || entry.stage == nil {
			continue
		}
		need := minViable - len(out)
		items, err := entry.stage.Fetch(ctx, rctx, need, exclude)
		if err != nil {
			c.Logger.Warn().
				Str("stage", entry.stage.Name()).
				Err(err).
				Msg("fallback stage failed")
			continue
		}
		for _, it := range items {
			if it == nil || it.ID == "" || exclude[it.ID] {
				continue
			}
			exclude[it.ID] = true
			it.PutLabel("fallback_stage", utils.Label{Value: entry.stage.Name(), Source: "fallback"})
			out = append(out, it)
			if len(out) >= minViable {
				break
			}
		}
	}
	return out, len(out) >= minViable
}

type stageEntry struct {
	enabled bool
	stage   Stage
}

// stages 返回固定评估顺序。开关声明顺序在这里被刻意忽略。
func (c *Chain) stages(cfg *config.AlgorithmConfig) []stageEntry {
	return []stageEntry{
		{cfg.Fallbacks.Trending, c.Trending},
		{cfg.Fallbacks.Popular, c.Popular},
		{cfg.Fallbacks.Category, c.Category},
		{cfg.Fallbacks.Store, c.Store},
	}
}
