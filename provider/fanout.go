package provider

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
)

// DefaultProviderTimeout 是单个信号源的默认超时。
const DefaultProviderTimeout = 300 * time.Millisecond

// Degradation 记录一次被吸收的信号源失败，供观测与状态判定。
type Degradation struct {
	Provider string
	Reason   string
	Timeout  bool
}

// Result 是一次 fan-out 的汇总：按实体 ID 合并后的候选、
// 实际返回了数据的信号源、以及被吸收的失败。
type Result struct {
	Items     []*core.Item
	Responded []string
	Degraded  []Degradation
}

// Fanout 并发执行所有开启的信号源并合并结果。
//
// 并发模型（整条链路唯一的强制汇合点）：
//   - 每个信号源独立超时，互不阻塞、互不取消
//   - 任何信号源失败都降级为空贡献并记录，绝不让请求失败
//   - 全部返回或超时后立即进入混合阶段，用拿到的子集继续
type Fanout struct {
	Providers []Provider
	Logger    zerolog.Logger
}

// Collect 跑一轮 fan-out。关闭的算法直接跳过；
// 同一实体出现在多个信号源时按 ID 合并原始分。
func (f *Fanout) Collect(
	ctx context.Context,
	rctx *core.RecommendContext,
	cfg *config.AlgorithmConfig,
) *Result {
	res := &Result{}
	if len(f.Providers) == 0 {
		return res
	}

	timeout := DefaultProviderTimeout
	if cfg.Limits.ProviderTimeoutMillis > 0 {
		timeout = time.Duration(cfg.Limits.ProviderTimeoutMillis) * time.Millisecond
	}

	var (
		mu     sync.Mutex
		merged = make(map[string]*core.Item)
		order  []string // 首次出现顺序，合并结果保持稳定
		eg     errgroup.Group
	)

	for _, p := range f.Providers {
		if !cfg.Algorithms[p.Name()] {
			continue
		}
		p := p
		eg.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			items, err := p.Score(pctx, rctx, cfg)
			if err != nil {
				// 超时或数据错误：吸收并记录，不中断其他信号源
				deg := Degradation{
					Provider: p.Name(),
					Reason:   err.Error(),
					Timeout:  errors.Is(err, context.DeadlineExceeded),
				}
				f.Logger.Warn().
					Str("provider", p.Name()).
					Bool("timeout", deg.Timeout).
					Err(err).
					Msg("provider degraded")
				mu.Lock()
				res.Degraded = append(res.Degraded, deg)
				mu.Unlock()
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if len(items) > 0 {
				res.Responded = append(res.Responded, p.Name())
			}
			for _, it := range items {
				if it == nil || it.ID == "" {
					continue
				}
				if old, ok := merged[it.ID]; ok {
					old.Absorb(it)
					continue
				}
				merged[it.ID] = it
				order = append(order, it.ID)
			}
			return nil
		})
	}

	_ = eg.Wait() // 信号源错误都已就地吸收

	sort.Strings(res.Responded)
	res.Items = make([]*core.Item, 0, len(order))
	for _, id := range order {
		res.Items = append(res.Items, merged[id])
	}
	return res
}
