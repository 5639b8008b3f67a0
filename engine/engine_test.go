package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
	"github.com/shopkit/recommend/provider"
	"github.com/shopkit/recommend/store"
	"github.com/shopkit/recommend/storeadapter"
)

// fixture 搭一套完整的内存环境：目录 + 行为数据 + 引擎。
type fixture struct {
	store    *store.MemoryStore
	catalog  *storeadapter.CatalogAdapter
	behavior *storeadapter.BehaviorAdapter
	holder   *config.Holder
}

func newFixture(t *testing.T, cfg *config.AlgorithmConfig) *fixture {
	t.Helper()
	ms := store.NewMemoryStore()
	t.Cleanup(func() { ms.Close() })

	holder, err := config.NewHolder(cfg)
	if err != nil {
		t.Fatalf("NewHolder: %v", err)
	}
	return &fixture{
		store:    ms,
		catalog:  storeadapter.NewCatalogAdapter(ms),
		behavior: storeadapter.NewBehaviorAdapter(ms),
		holder:   holder,
	}
}

func (f *fixture) engine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(f.holder, f.catalog, f.behavior, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func (f *fixture) seedEntity(t *testing.T, attrs *core.EntityAttributes) {
	t.Helper()
	if err := f.catalog.PutEntity(context.Background(), attrs); err != nil {
		t.Fatalf("PutEntity(%s): %v", attrs.ID, err)
	}
}

// seedGamesCatalog 灌一个小目录：目标 + 三个同类目候选 + 一个无关候选。
func (f *fixture) seedGamesCatalog(t *testing.T) {
	t.Helper()
	f.seedEntity(t, &core.EntityAttributes{
		ID: "target", EntityType: core.EntityDigital, Category: "games",
		Tags: []string{"rpg", "fantasy"}, Price: 60, Name: "Target Quest",
	})
	f.seedEntity(t, &core.EntityAttributes{
		ID: "close", EntityType: core.EntityDigital, Category: "games",
		Tags: []string{"rpg", "fantasy"}, Price: 60, Name: "Close Quest", Popularity: 10,
	})
	f.seedEntity(t, &core.EntityAttributes{
		ID: "near", EntityType: core.EntityDigital, Category: "games",
		Tags: []string{"rpg"}, Price: 65, Name: "Near Quest", Popularity: 20,
	})
	f.seedEntity(t, &core.EntityAttributes{
		ID: "far", EntityType: core.EntityDigital, Category: "games",
		Tags: []string{"puzzle"}, Price: 200, Name: "Far Quest",
	})
	f.seedEntity(t, &core.EntityAttributes{
		ID: "unrelated", EntityType: core.EntityPhysical, Category: "office",
		Tags: []string{"desk"}, Price: 900, Name: "Desk",
	})
}

func target() *core.RecommendTarget {
	return &core.RecommendTarget{EntityID: "target", EntityType: core.EntityDigital}
}

func TestRecommend_ContentHappyPath(t *testing.T) {
	cfg := config.DefaultConfig()
	f := newFixture(t, cfg)
	f.seedGamesCatalog(t)
	e := f.engine(t)

	items, status, err := e.Recommend(context.Background(), target(), 6)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if status != StatusOK {
		t.Errorf("status = %s, want ok", status)
	}
	if len(items) == 0 {
		t.Fatal("want similar candidates")
	}
	for _, it := range items {
		if it.ID == "target" {
			t.Error("target itself leaked into results")
		}
		if it.ID == "unrelated" {
			t.Error("cross-type candidate leaked with crosstype disabled")
		}
		if it.Score < 0 || it.Score > 1 {
			t.Errorf("score %v out of [0,1]", it.Score)
		}
		if it.Meta["name"] == nil {
			t.Errorf("candidate %s missing metadata snapshot", it.ID)
		}
	}
	// 最相似的排最前
	if items[0].ID != "close" {
		t.Errorf("top = %s, want close", items[0].ID)
	}
}

func TestRecommend_InvalidTarget(t *testing.T) {
	f := newFixture(t, config.DefaultConfig())
	e := f.engine(t)
	ctx := context.Background()

	if _, _, err := e.Recommend(ctx, nil, 10); err == nil {
		t.Error("nil target must fail")
	}
	if _, _, err := e.Recommend(ctx, &core.RecommendTarget{EntityType: core.EntityDigital}, 10); err == nil {
		t.Error("empty entity id must fail")
	}
	_, _, err := e.Recommend(ctx, &core.RecommendTarget{EntityID: "x", EntityType: "furniture"}, 10)
	de := core.GetDomainError(err)
	if de == nil || de.Code != core.ErrorCodeInvalidInput {
		t.Errorf("unknown type err = %v, want INVALID_INPUT", err)
	}
}

func TestRecommend_CatalogUnavailableIsFatal(t *testing.T) {
	f := newFixture(t, config.DefaultConfig())
	e := f.engine(t)

	// 目标实体不在目录里
	_, _, err := e.Recommend(context.Background(), target(), 10)
	if err == nil || !errors.Is(err, core.ErrCatalogUnavailable) {
		t.Errorf("err = %v, want catalog unavailable", err)
	}
}

func TestRecommend_TypeDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	p := cfg.ProductTypes[core.EntityDigital]
	p.Enabled = false
	cfg.ProductTypes[core.EntityDigital] = p

	f := newFixture(t, cfg)
	f.seedGamesCatalog(t)
	e := f.engine(t)

	items, status, err := e.Recommend(context.Background(), target(), 10)
	if err != nil || status != StatusOK || len(items) != 0 {
		t.Errorf("disabled type: got (%d items, %s, %v), want empty ok", len(items), status, err)
	}
}

func TestRecommend_LimitClamped(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Limits.MaxRecommendationsPerPage = 2
	f := newFixture(t, cfg)
	f.seedGamesCatalog(t)
	e := f.engine(t)

	items, _, err := e.Recommend(context.Background(), target(), 100)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) > 2 {
		t.Errorf("len = %d, want clamped to 2", len(items))
	}
}

func TestRecommend_CacheHit(t *testing.T) {
	f := newFixture(t, config.DefaultConfig())
	f.seedGamesCatalog(t)
	e := f.engine(t)
	ctx := context.Background()

	first, _, err := e.Recommend(ctx, target(), 10)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, _, err := e.Recommend(ctx, target(), 10)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if len(first) != len(second) {
		t.Errorf("cache changed result size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("cache changed order at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}

	stats := e.Stats()
	if stats.CacheHits != 1 || stats.CacheMisses != 1 || stats.Requests != 2 {
		t.Errorf("stats = %+v, want 1 hit / 1 miss / 2 requests", stats)
	}
}

func TestRecommend_ConfigSwapInvalidatesCache(t *testing.T) {
	f := newFixture(t, config.DefaultConfig())
	f.seedGamesCatalog(t)
	e := f.engine(t)
	ctx := context.Background()

	if _, _, err := e.Recommend(ctx, target(), 10); err != nil {
		t.Fatalf("first: %v", err)
	}
	// 配置热替换后版本号变化，旧缓存键失效
	if err := f.holder.Swap(config.DefaultConfig()); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if _, _, err := e.Recommend(ctx, target(), 10); err != nil {
		t.Fatalf("second: %v", err)
	}
	if stats := e.Stats(); stats.CacheHits != 0 || stats.CacheMisses != 2 {
		t.Errorf("stats = %+v, want 0 hits / 2 misses after swap", stats)
	}
}

// failingProvider 模拟出故障的信号源。
type failingProvider struct{ name string }

func (p *failingProvider) Name() string { return p.name }

func (p *failingProvider) Score(context.Context, *core.RecommendContext, *config.AlgorithmConfig) ([]*core.Item, error) {
	return nil, errors.New("signal store down")
}

func TestRecommend_DegradedStatus(t *testing.T) {
	f := newFixture(t, config.DefaultConfig())
	f.seedGamesCatalog(t)
	e := f.engine(t, WithProviders(
		&provider.Content{Catalog: f.catalog},
		&failingProvider{name: config.AlgoTrending},
	))

	items, status, err := e.Recommend(context.Background(), target(), 4)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if status != StatusDegraded {
		t.Errorf("status = %s, want degraded", status)
	}
	// 挂掉的信号源不出现在贡献算法里
	for _, it := range items {
		for _, src := range it.Sources {
			if src == config.AlgoTrending {
				t.Errorf("failed provider listed as contributor on %s", it.ID)
			}
		}
	}
	if e.Stats().ProviderErrors != 1 {
		t.Errorf("provider errors = %d, want 1", e.Stats().ProviderErrors)
	}
}

func TestRecommend_FallbackWhenNoSignals(t *testing.T) {
	// 只开协同过滤：匿名请求没有任何主信号，补位链接管
	cfg := config.DefaultConfig()
	cfg.Algorithms = map[string]bool{config.AlgoCollaborative: true}
	cfg.Weights = map[string]int{config.AlgoCollaborative: 100}

	f := newFixture(t, cfg)
	f.seedGamesCatalog(t)
	ctx := context.Background()
	f.behavior.SetTrending(ctx, core.ScopeGlobal, "close", 100)
	f.behavior.SetTrending(ctx, core.ScopeGlobal, "near", 80)
	e := f.engine(t)

	items, status, err := e.Recommend(ctx, target(), 4)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if status != StatusOK {
		t.Errorf("status = %s, want ok when fallback meets minViable", status)
	}
	// minViable = ceil(4/2) = 2，热度榜补了两个
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2 from the trending board", len(items))
	}
	if items[0].ID != "close" || items[1].ID != "near" {
		t.Errorf("order = [%s %s], want board order", items[0].ID, items[1].ID)
	}
	for _, it := range items {
		if it.Score != 0 {
			t.Errorf("fallback candidate %s has score %v, want 0", it.ID, it.Score)
		}
		if lbl, ok := it.Labels["fallback_stage"]; !ok || lbl.Value != "trending" {
			t.Errorf("candidate %s missing fallback_stage label: %+v", it.ID, it.Labels)
		}
		// 补位候选也要有元信息快照
		if it.Meta["name"] == nil {
			t.Errorf("candidate %s missing metadata", it.ID)
		}
	}
	if e.Stats().FallbackRuns != 1 {
		t.Errorf("fallback runs = %d, want 1", e.Stats().FallbackRuns)
	}
}

func TestRecommend_FallbackExhausted(t *testing.T) {
	// 目录里只有目标自己，行为数据全空：补位链走完也凑不够
	cfg := config.DefaultConfig()
	f := newFixture(t, cfg)
	f.seedEntity(t, &core.EntityAttributes{
		ID: "target", EntityType: core.EntityDigital, Category: "games", Name: "Lonely",
	})
	e := f.engine(t)

	items, status, err := e.Recommend(context.Background(), target(), 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if status != StatusFallbackExhausted {
		t.Errorf("status = %s, want fallback_exhausted", status)
	}
	if len(items) != 0 {
		t.Errorf("len = %d, want 0", len(items))
	}
}

func TestRecommend_OwnedExcluded(t *testing.T) {
	f := newFixture(t, config.DefaultConfig())
	f.seedGamesCatalog(t)
	ctx := context.Background()
	f.behavior.PutOwned(ctx, "u1", []string{"close"})
	e := f.engine(t)

	tgt := target()
	tgt.UserID = "u1"
	items, _, err := e.Recommend(ctx, tgt, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, it := range items {
		if it.ID == "close" {
			t.Error("owned entity leaked into results")
		}
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	f := newFixture(t, config.DefaultConfig())
	if _, err := New(nil, f.catalog, f.behavior); err == nil {
		t.Error("nil holder must fail")
	}
	if _, err := New(f.holder, nil, f.behavior); err == nil {
		t.Error("nil catalog must fail")
	}
	if _, err := New(f.holder, f.catalog, nil); err == nil {
		t.Error("nil behavior must fail")
	}
}
