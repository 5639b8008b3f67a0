package blend

import (
	"math"
	"testing"

	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
)

func testConfig() *config.AlgorithmConfig {
	cfg := config.DefaultConfig()
	cfg.Limits.MinConfidenceThreshold = 0
	for t, p := range cfg.ProductTypes {
		p.SimilarityThreshold = 0
		cfg.ProductTypes[t] = p
	}
	return cfg
}

func testContext(limit int) *core.RecommendContext {
	return &core.RecommendContext{
		Target: &core.RecommendTarget{EntityID: "target", EntityType: core.EntityDigital},
		Limit:  limit,
	}
}

func item(id string, raw map[string]float64) *core.Item {
	it := core.NewItem(id)
	for algo, s := range raw {
		it.PutRawScore(algo, s)
	}
	return it
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEffectiveWeights_RenormalizeOverResponding(t *testing.T) {
	cfg := testConfig()
	// 配置权重 content=40 collaborative=25 trending=15；只有 content 和 trending 响应
	w := EffectiveWeights(cfg, []string{config.AlgoContent, config.AlgoTrending})
	if !almostEqual(w[config.AlgoContent], 40.0/55.0) {
		t.Errorf("content weight = %v, want %v", w[config.AlgoContent], 40.0/55.0)
	}
	if !almostEqual(w[config.AlgoTrending], 15.0/55.0) {
		t.Errorf("trending weight = %v, want %v", w[config.AlgoTrending], 15.0/55.0)
	}

	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if !almostEqual(sum, 1.0) {
		t.Errorf("renormalized weights sum = %v, want 1.0", sum)
	}
}

func TestEffectiveWeights_NoResponders(t *testing.T) {
	if w := EffectiveWeights(testConfig(), nil); w != nil {
		t.Errorf("EffectiveWeights(none) = %v, want nil", w)
	}
}

func TestEffectiveWeights_AllZeroFallsBackToEqual(t *testing.T) {
	cfg := testConfig()
	cfg.Weights[config.AlgoContent] = 0
	cfg.Weights[config.AlgoTrending] = 0
	w := EffectiveWeights(cfg, []string{config.AlgoContent, config.AlgoTrending})
	if !almostEqual(w[config.AlgoContent], 0.5) || !almostEqual(w[config.AlgoTrending], 0.5) {
		t.Errorf("zero raw weights must split equally, got %v", w)
	}
}

func TestBlend_CompositeScore(t *testing.T) {
	cfg := testConfig()
	// content=40, trending=15 → 归一化 40/55, 15/55
	items := []*core.Item{
		item("a", map[string]float64{config.AlgoContent: 0.8, config.AlgoTrending: 0.4}),
		item("b", map[string]float64{config.AlgoContent: 0.5}),
	}
	out := Blend(items, []string{config.AlgoContent, config.AlgoTrending}, cfg, testContext(10))
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	wantA := 0.8*(40.0/55.0) + 0.4*(15.0/55.0)
	if !almostEqual(out[0].Score, wantA) {
		t.Errorf("composite(a) = %v, want %v", out[0].Score, wantA)
	}
	// 未响应的算法不贡献分数也不占分母：b 只有 content 的贡献
	wantB := 0.5 * (40.0 / 55.0)
	if !almostEqual(out[1].Score, wantB) {
		t.Errorf("composite(b) = %v, want %v", out[1].Score, wantB)
	}
}

func TestBlend_TieBreakDeterministic(t *testing.T) {
	cfg := testConfig()
	popular := item("zzz", map[string]float64{config.AlgoContent: 0.6})
	popular.Meta["popularity"] = 100.0
	plain1 := item("bbb", map[string]float64{config.AlgoContent: 0.6})
	plain2 := item("aaa", map[string]float64{config.AlgoContent: 0.6})

	out := Blend([]*core.Item{plain1, popular, plain2}, []string{config.AlgoContent}, cfg, testContext(10))
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	// 同分：热度高者在前；热度相同按 ID 升序
	if out[0].ID != "zzz" || out[1].ID != "aaa" || out[2].ID != "bbb" {
		t.Errorf("order = [%s %s %s], want [zzz aaa bbb]", out[0].ID, out[1].ID, out[2].ID)
	}
}

func TestBlend_ExcludesTargetAndOwned(t *testing.T) {
	cfg := testConfig()
	rctx := testContext(10)
	rctx.Owned = map[string]bool{"owned1": true}
	items := []*core.Item{
		item("target", map[string]float64{config.AlgoContent: 0.9}),
		item("owned1", map[string]float64{config.AlgoContent: 0.8}),
		item("keep", map[string]float64{config.AlgoContent: 0.7}),
	}
	out := Blend(items, []string{config.AlgoContent}, cfg, rctx)
	if len(out) != 1 || out[0].ID != "keep" {
		t.Fatalf("out = %v, want only [keep]", ids(out))
	}
}

func TestBlend_ThresholdFloors(t *testing.T) {
	cfg := testConfig()
	cfg.Limits.MinConfidenceThreshold = 0.3
	p := cfg.ProductTypes[core.EntityDigital]
	p.SimilarityThreshold = 0.5 // 更严的那个生效
	cfg.ProductTypes[core.EntityDigital] = p

	items := []*core.Item{
		item("high", map[string]float64{config.AlgoContent: 0.9}),
		item("mid", map[string]float64{config.AlgoContent: 0.4}),
		item("low", map[string]float64{config.AlgoContent: 0.1}),
	}
	out := Blend(items, []string{config.AlgoContent}, cfg, testContext(10))
	if len(out) != 1 || out[0].ID != "high" {
		t.Fatalf("out = %v, want only [high]", ids(out))
	}
	for _, it := range out {
		if it.Score < 0.5 || it.Score > 1 {
			t.Errorf("score %v escaped the [0.5, 1] floor window", it.Score)
		}
	}
}

func TestBlend_TruncatesToTypeCap(t *testing.T) {
	cfg := testConfig()
	p := cfg.ProductTypes[core.EntityDigital]
	p.MaxRecommendations = 2
	cfg.ProductTypes[core.EntityDigital] = p

	items := []*core.Item{
		item("a", map[string]float64{config.AlgoContent: 0.9}),
		item("b", map[string]float64{config.AlgoContent: 0.8}),
		item("c", map[string]float64{config.AlgoContent: 0.7}),
	}
	// limit=10，但类型上限 2 更严
	out := Blend(items, []string{config.AlgoContent}, cfg, testContext(10))
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2 (type cap)", len(out))
	}

	// limit=1 比类型上限更严
	out = Blend(items, []string{config.AlgoContent}, cfg, testContext(1))
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1 (request limit)", len(out))
	}
}

func TestBlend_SourcesRecorded(t *testing.T) {
	cfg := testConfig()
	it := item("a", map[string]float64{config.AlgoTrending: 0.5, config.AlgoContent: 0.5})
	out := Blend([]*core.Item{it}, []string{config.AlgoContent, config.AlgoTrending}, cfg, testContext(10))
	if len(out) != 1 {
		t.Fatal("expected one item")
	}
	src := out[0].Sources
	if len(src) != 2 || src[0] != config.AlgoContent || src[1] != config.AlgoTrending {
		t.Errorf("Sources = %v, want sorted [content trending]", src)
	}
}

func TestBlend_Empty(t *testing.T) {
	cfg := testConfig()
	if out := Blend(nil, nil, cfg, testContext(5)); out != nil {
		t.Errorf("Blend(empty) = %v, want nil", out)
	}
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
