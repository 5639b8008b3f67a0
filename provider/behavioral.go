package provider

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
	"github.com/shopkit/recommend/pkg/utils"
)

// Behavioral 是基于用户自身历史的信号源：
// 从最近浏览/购买构建一份带时间衰减的偏好画像（类目、标签），
// 再按画像亲和度给候选池打分。越近的行为权重越高，购买重于浏览。
type Behavioral struct {
	Behavior core.BehaviorStore
	Catalog  core.CatalogStore

	// MaxHistory 最多回看的历史条数，默认 20
	MaxHistory int

	// PoolSize 候选池上限，默认 200
	PoolSize int

	// HalfLife 衰减半衰期，默认 7 天：一周前的行为权重减半
	HalfLife time.Duration

	// now 可注入，测试用
	now func() time.Time
}

func (p *Behavioral) Name() string { return config.AlgoBehavioral }

func (p *Behavioral) Score(
	ctx context.Context,
	rctx *core.RecommendContext,
	cfg *config.AlgorithmConfig,
) ([]*core.Item, error) {
	if p.Behavior == nil || p.Catalog == nil || rctx == nil || rctx.Target == nil {
		return nil, nil
	}
	if !personalized(rctx, cfg) {
		return nil, nil
	}

	maxHistory := p.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 20
	}
	history, err := p.Behavior.FetchUserHistory(ctx, rctx.Target.UserID, maxHistory)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}

	prefCats, prefTags := p.buildProfile(ctx, history)
	if len(prefCats) == 0 && len(prefTags) == 0 {
		return nil, nil
	}

	pool, err := p.Catalog.FetchCandidatePool(ctx, core.CandidateQuery{
		Category:  topKey(prefCats),
		Tags:      topKeys(prefTags, 10),
		Types:     []core.EntityType{rctx.Target.EntityType},
		ExcludeID: rctx.Target.EntityID,
		Max:       p.poolSize(),
	})
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(pool))
	for _, cand := range pool {
		if cand == nil || cand.ID == rctx.Target.EntityID {
			continue
		}
		s := affinity(cand, prefCats, prefTags)
		if s <= 0 {
			continue
		}
		it := core.NewItem(cand.ID)
		it.PutRawScore(p.Name(), s)
		it.Meta = cand.MetaSnapshot()
		it.PutLabel("recall_source", utils.Label{Value: p.Name(), Source: "provider"})
		out = append(out, it)
	}
	return out, nil
}

func (p *Behavioral) poolSize() int {
	if p.PoolSize > 0 {
		return p.PoolSize
	}
	return 200
}

// buildProfile 把历史行为折算成类目/标签偏好，按行为时间做指数衰减。
// 取不到属性的历史条目直接跳过（目录里已下架等）。
func (p *Behavioral) buildProfile(ctx context.Context, history []core.HistoryEvent) (map[string]float64, map[string]float64) {
	halfLife := p.HalfLife
	if halfLife <= 0 {
		halfLife = 7 * 24 * time.Hour
	}
	nowFn := p.now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn()

	prefCats := make(map[string]float64)
	prefTags := make(map[string]float64)
	for _, ev := range history {
		age := now.Sub(ev.At)
		if age < 0 {
			age = 0
		}
		w := math.Pow(0.5, age.Hours()/halfLife.Hours())
		if ev.Kind == core.BehaviorPurchase {
			w *= 2 // 购买是比浏览强得多的偏好信号
		}
		attrs, err := p.Catalog.FetchEntityAttributes(ctx, ev.EntityID)
		if err != nil || attrs == nil {
			continue
		}
		if attrs.Category != "" {
			prefCats[attrs.Category] += w
		}
		for _, tag := range attrs.Tags {
			prefTags[tag] += w
		}
	}

	normalizeProfile(prefCats)
	normalizeProfile(prefTags)
	return prefCats, prefTags
}

// affinity 按画像给候选打分：类目偏好与标签偏好各占一半。
func affinity(cand *core.EntityAttributes, prefCats, prefTags map[string]float64) float64 {
	catScore := prefCats[cand.Category]

	tagScore := 0.0
	if len(cand.Tags) > 0 {
		sum := 0.0
		for _, tag := range cand.Tags {
			sum += prefTags[tag]
		}
		tagScore = sum / float64(len(cand.Tags))
	}

	s := 0.5*catScore + 0.5*tagScore
	if s > 1 {
		s = 1
	}
	return s
}

// normalizeProfile 把偏好值归一化到 [0,1]（除以最大值）。
func normalizeProfile(m map[string]float64) {
	max := 0.0
	for _, v := range m {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return
	}
	for k := range m {
		m[k] /= max
	}
}

// topKey 返回偏好最强的 key。
func topKey(m map[string]float64) string {
	keys := topKeys(m, 1)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

// topKeys 返回偏好最强的前 k 个 key，同分按字典序，保证确定性。
func topKeys(m map[string]float64, k int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > k {
		keys = keys[:k]
	}
	return keys
}
