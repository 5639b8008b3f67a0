package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/shopkit/recommend/core"
	"github.com/shopkit/recommend/pkg/utils"
	"github.com/shopkit/recommend/store"
)

func testRctx() *core.RecommendContext {
	return &core.RecommendContext{
		Target: &core.RecommendTarget{EntityID: "t1", EntityType: core.EntityDigital},
	}
}

func TestBlacklist_MemoryList(t *testing.T) {
	f := &Blacklist{EntityIDs: []string{"bad1", "bad2"}}

	out := Apply(context.Background(), testRctx(), []Filter{f}, []*core.Item{
		core.NewItem("keep"),
		core.NewItem("bad1"),
		core.NewItem("bad2"),
	})
	if len(out) != 1 || out[0].ID != "keep" {
		t.Fatalf("out = %v, want [keep]", itemIDs(out))
	}
}

func TestBlacklist_FromStore(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()
	ms.Set(ctx, "ops:blacklist", []byte(`["banned"]`))

	f := &Blacklist{Store: ms, Key: "ops:blacklist"}
	out := Apply(ctx, testRctx(), []Filter{f}, []*core.Item{
		core.NewItem("banned"),
		core.NewItem("fine"),
	})
	if len(out) != 1 || out[0].ID != "fine" {
		t.Fatalf("out = %v, want [fine]", itemIDs(out))
	}

	// 黑名单键不存在时全放行
	f2 := &Blacklist{Store: ms, Key: "ops:missing"}
	out = Apply(ctx, testRctx(), []Filter{f2}, []*core.Item{core.NewItem("a")})
	if len(out) != 1 {
		t.Errorf("missing blacklist key must pass everything, got %v", itemIDs(out))
	}
}

func TestRule_Expression(t *testing.T) {
	// 压掉低分的跨类型候选
	f, err := NewRule(`label.recall_source == "crosstype" && item.score < 0.3`)
	if err != nil {
		t.Fatalf("NewRule: %v", err)
	}

	low := core.NewItem("low")
	low.Score = 0.2
	low.PutLabel("recall_source", utils.Label{Value: "crosstype", Source: "provider"})

	high := core.NewItem("high")
	high.Score = 0.8
	high.PutLabel("recall_source", utils.Label{Value: "crosstype", Source: "provider"})

	out := Apply(context.Background(), testRctx(), []Filter{f}, []*core.Item{low, high})
	if len(out) != 1 || out[0].ID != "high" {
		t.Fatalf("out = %v, want [high]", itemIDs(out))
	}
	if lbl, ok := low.Labels["filtered"]; !ok || lbl.Source != "filter.rule" {
		t.Errorf("dropped item should carry the filtered label, got %+v", low.Labels)
	}
}

func TestRule_BadExpression(t *testing.T) {
	if _, err := NewRule("item.score >"); err == nil {
		t.Error("invalid expression must fail at construction")
	}
	if _, err := NewRule(""); err == nil {
		t.Error("empty expression must fail at construction")
	}
}

type failingFilter struct{}

func (failingFilter) Name() string { return "filter.broken" }

func (failingFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return true, errors.New("boom")
}

func TestApply_FilterErrorSkipped(t *testing.T) {
	out := Apply(context.Background(), testRctx(), []Filter{failingFilter{}}, []*core.Item{
		core.NewItem("a"),
	})
	// 过滤器报错时放行候选，宁可多推荐也不让请求失败
	if len(out) != 1 {
		t.Fatalf("out = %v, want the candidate kept", itemIDs(out))
	}
}

func itemIDs(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
