// Package engine 是推荐引擎的门面：一次 Recommend 调用走完
// 配置快照 → 并发信号源 → 融合排序 → 过滤 → 补位链 → 缓存 的完整链路。
package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopkit/recommend/blend"
	"github.com/shopkit/recommend/cache"
	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
	"github.com/shopkit/recommend/fallback"
	"github.com/shopkit/recommend/filter"
	"github.com/shopkit/recommend/provider"
	"github.com/shopkit/recommend/store"
)

// Status 是一次推荐请求的终态。
// 推荐是增强功能不是关键路径：除目录不可用外，一切失败都收敛成
// 更弱的状态而不是错误。
type Status string

const (
	// StatusOK 正常产出（列表可能为空）
	StatusOK Status = "ok"

	// StatusDegraded 有信号源失败/超时，但仍产出了可用结果
	StatusDegraded Status = "degraded"

	// StatusFallbackExhausted 补位链走完也没凑够最小可用数
	// （列表可能非空，只是比请求的少）
	StatusFallbackExhausted Status = "fallback_exhausted"
)

// Engine 持有全部依赖，安全并发使用。
// 配置通过注入的 Holder 获取，没有进程级单例。
type Engine struct {
	holder   *config.Holder
	catalog  core.CatalogStore
	behavior core.BehaviorStore
	fanout   *provider.Fanout
	chain    *fallback.Chain
	cache    *cache.Cache
	filters  []filter.Filter
	log      zerolog.Logger

	// 观测计数
	requests       atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	providerErrors atomic.Int64
	fallbackRuns   atomic.Int64
}

// Option 配置 Engine。
type Option func(*Engine)

// WithLogger 注入日志器，默认 Nop。
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithCacheStore 指定结果缓存的后端，默认内存 Store。
func WithCacheStore(s core.Store) Option {
	return func(e *Engine) { e.cache = cache.New(s) }
}

// WithFilters 追加融合之后、补位之前执行的过滤器（黑名单/规则等）。
func WithFilters(fs ...filter.Filter) Option {
	return func(e *Engine) { e.filters = append(e.filters, fs...) }
}

// WithProviders 覆盖内置的五个信号源，测试注入用。
func WithProviders(ps ...provider.Provider) Option {
	return func(e *Engine) { e.fanout.Providers = ps }
}

// New 构造引擎。默认装配五个内置信号源与四级补位链。
func New(holder *config.Holder, catalog core.CatalogStore, behavior core.BehaviorStore, opts ...Option) (*Engine, error) {
	if holder == nil {
		return nil, fmt.Errorf("engine: config holder required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("engine: catalog store required")
	}
	if behavior == nil {
		return nil, fmt.Errorf("engine: behavior store required")
	}

	e := &Engine{
		holder:   holder,
		catalog:  catalog,
		behavior: behavior,
		log:      zerolog.Nop(),
		fanout: &provider.Fanout{
			Providers: []provider.Provider{
				&provider.Content{Catalog: catalog},
				&provider.Collaborative{Behavior: behavior},
				&provider.Trending{Behavior: behavior},
				&provider.Behavioral{Behavior: behavior, Catalog: catalog},
				&provider.CrossType{Catalog: catalog},
			},
		},
		chain: &fallback.Chain{
			Trending: &fallback.TrendingStage{Behavior: behavior},
			Popular:  &fallback.PopularStage{Behavior: behavior},
			Category: &fallback.CategoryStage{Catalog: catalog},
			Store:    &fallback.StoreStage{Catalog: catalog},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = cache.New(store.NewMemoryStore())
	}
	e.log = e.log.With().Str("component", "engine").Logger()
	e.fanout.Logger = e.log
	e.chain.Logger = e.log
	return e, nil
}

// Recommend 为目标产出至多 limit 条推荐。
//
// limit 被钳制到 [1, limits.max_recommendations_per_page]。
// 单个信号源的失败绝不上抛；只有目录不可达这类全局失败返回 error。
// 成功时（含 degraded / fallback_exhausted）写缓存。
func (e *Engine) Recommend(ctx context.Context, target *core.RecommendTarget, limit int) ([]*core.Item, Status, error) {
	e.requests.Add(1)

	if target == nil || target.EntityID == "" {
		return nil, StatusOK, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: target entity required")
	}
	if !target.EntityType.Valid() {
		return nil, StatusOK, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			fmt.Sprintf("engine: unknown entity type %q", target.EntityType))
	}

	// 整条链路只用这一份配置快照
	snap := e.holder.Snapshot()
	cfg := snap.Config

	if limit < 1 {
		limit = 1
	}
	if limit > cfg.Limits.MaxRecommendationsPerPage {
		limit = cfg.Limits.MaxRecommendationsPerPage
	}

	policy := cfg.PolicyFor(target.EntityType)
	if !policy.Enabled {
		// 该类型的推荐被策略关闭：空结果不是错误
		return nil, StatusOK, nil
	}

	sig := cache.Signature(target, limit, snap.Version)
	if items, hit := e.cache.Get(ctx, sig); hit {
		e.cacheHits.Add(1)
		return items, StatusOK, nil
	}
	e.cacheMisses.Add(1)

	// 目标实体属性是打分的必需输入，取不到整个请求失败
	attrs, err := e.catalog.FetchEntityAttributes(ctx, target.EntityID)
	if err != nil {
		e.log.Error().Str("entity", target.EntityID).Err(err).Msg("catalog unavailable")
		return nil, StatusOK, fmt.Errorf("%w: fetch target %s: %w", core.ErrCatalogUnavailable, target.EntityID, err)
	}

	rctx := &core.RecommendContext{
		Target:      target,
		TargetAttrs: mergeTargetAttrs(target, attrs),
		Limit:       limit,
		Owned:       e.fetchOwned(ctx, target),
	}

	res := e.fanout.Collect(ctx, rctx, cfg)
	e.providerErrors.Add(int64(len(res.Degraded)))

	items := blend.Blend(res.Items, res.Responded, cfg, rctx)
	items = filter.Apply(ctx, rctx, e.filters, items)

	status := StatusOK
	if len(res.Degraded) > 0 {
		status = StatusDegraded
	}

	// 最小可用数：请求量的一半向上取整
	minViable := (limit + 1) / 2
	if len(items) < minViable {
		e.fallbackRuns.Add(1)
		var met bool
		items, met = e.chain.Fill(ctx, rctx, cfg, items, minViable)
		if !met {
			status = StatusFallbackExhausted
		}
	}

	e.enrich(ctx, items)

	ttl := time.Duration(cfg.Limits.CacheExpiryMinutes) * time.Minute
	if err := e.cache.Put(ctx, sig, items, ttl); err != nil {
		e.log.Warn().Err(err).Msg("cache put failed")
	}

	e.log.Debug().
		Str("entity", target.EntityID).
		Str("status", string(status)).
		Int("count", len(items)).
		Strs("responded", res.Responded).
		Msg("recommend")
	return items, status, nil
}

// fetchOwned 取用户已拥有集合；失败只降级为空集。
func (e *Engine) fetchOwned(ctx context.Context, target *core.RecommendTarget) map[string]bool {
	if target.UserID == "" {
		return nil
	}
	ids, err := e.behavior.FetchOwned(ctx, target.UserID)
	if err != nil {
		e.log.Warn().Str("user", target.UserID).Err(err).Msg("fetch owned failed")
		return nil
	}
	owned := make(map[string]bool, len(ids))
	for _, id := range ids {
		owned[id] = true
	}
	return owned
}

// enrich 给还没有元信息快照的候选补齐一次（整条链路只取一次）。
// 取不到就保持空元信息，不影响返回。
func (e *Engine) enrich(ctx context.Context, items []*core.Item) {
	for _, it := range items {
		if it == nil {
			continue
		}
		if _, done := it.Meta["name"]; done {
			continue
		}
		attrs, err := e.catalog.FetchEntityAttributes(ctx, it.ID)
		if err != nil || attrs == nil {
			continue
		}
		pop := it.Popularity()
		it.Meta = attrs.MetaSnapshot()
		if pop > it.Popularity() {
			it.Meta["popularity"] = pop
		}
	}
}

// mergeTargetAttrs 以目录属性为底，调用方显式传入的上下文属性优先。
func mergeTargetAttrs(target *core.RecommendTarget, attrs *core.EntityAttributes) *core.EntityAttributes {
	merged := *attrs
	merged.ID = target.EntityID
	if target.EntityType != "" {
		merged.EntityType = target.EntityType
	}
	if target.Category != "" {
		merged.Category = target.Category
	}
	if len(target.Tags) > 0 {
		merged.Tags = target.Tags
	}
	if target.Price > 0 {
		merged.Price = target.Price
	}
	if target.StoreID != "" {
		merged.StoreID = target.StoreID
	}
	return &merged
}

// Metrics 是观测计数的一次性快照。
type Metrics struct {
	Requests       int64
	CacheHits      int64
	CacheMisses    int64
	ProviderErrors int64
	FallbackRuns   int64
}

// Stats 返回当前计数快照。
func (e *Engine) Stats() Metrics {
	return Metrics{
		Requests:       e.requests.Load(),
		CacheHits:      e.cacheHits.Load(),
		CacheMisses:    e.cacheMisses.Load(),
		ProviderErrors: e.providerErrors.Load(),
		FallbackRuns:   e.fallbackRuns.Load(),
	}
}
