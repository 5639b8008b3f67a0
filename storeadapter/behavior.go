package storeadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopkit/recommend/core"
)

// BehaviorAdapter 用 KeyValueStore 实现 core.BehaviorStore。
//
// 数据布局：
//
//	cooc:{entityID}    zset  member=entityID  score=共现次数
//	trending:{scope}   zset  member=entityID  score=近期热度（协作方预计算）
//	popular:{scope}    zset  member=entityID  score=累计量
//	history:{userID}   JSON  []core.HistoryEvent（时间倒序）
//	owned:{userID}     JSON  []string
//
// 共现表与榜单由协作方离线产出后灌入；引擎侧只读。
type BehaviorAdapter struct {
	Store core.KeyValueStore
}

func NewBehaviorAdapter(s core.KeyValueStore) *BehaviorAdapter {
	return &BehaviorAdapter{Store: s}
}

var _ core.BehaviorStore = (*BehaviorAdapter)(nil)

func coocKey(entityID string) string  { return "cooc:" + entityID }
func trendKey(scope string) string    { return "trending:" + scope }
func popularKey(scope string) string  { return "popular:" + scope }
func historyKey(userID string) string { return "history:" + userID }
func ownedKey(userID string) string   { return "owned:" + userID }

func (a *BehaviorAdapter) FetchCoOccurrence(ctx context.Context, entityID string, max int) ([]core.CoOccurrence, error) {
	members, err := a.Store.ZRangeWithScores(ctx, coocKey(entityID), 0, int64(max)-1)
	if err != nil {
		return nil, err
	}
	out := make([]core.CoOccurrence, 0, len(members))
	for _, m := range members {
		out = append(out, core.CoOccurrence{EntityID: m.Member, Count: int64(m.Score)})
	}
	return out, nil
}

func (a *BehaviorAdapter) FetchUserHistory(ctx context.Context, userID string, max int) ([]core.HistoryEvent, error) {
	data, err := a.Store.Get(ctx, historyKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var events []core.HistoryEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("storeadapter: unmarshal history %s: %w", userID, err)
	}
	if max > 0 && len(events) > max {
		events = events[:max]
	}
	return events, nil
}

func (a *BehaviorAdapter) FetchTrending(ctx context.Context, scope string, max int) ([]core.TrendingEntry, error) {
	return a.fetchBoard(ctx, trendKey(scope), max)
}

func (a *BehaviorAdapter) FetchPopular(ctx context.Context, scope string, max int) ([]core.TrendingEntry, error) {
	return a.fetchBoard(ctx, popularKey(scope), max)
}

func (a *BehaviorAdapter) fetchBoard(ctx context.Context, key string, max int) ([]core.TrendingEntry, error) {
	members, err := a.Store.ZRangeWithScores(ctx, key, 0, int64(max)-1)
	if err != nil {
		return nil, err
	}
	out := make([]core.TrendingEntry, 0, len(members))
	for _, m := range members {
		out = append(out, core.TrendingEntry{EntityID: m.Member, Score: m.Score})
	}
	return out, nil
}

func (a *BehaviorAdapter) FetchOwned(ctx context.Context, userID string) ([]string, error) {
	data, err := a.Store.Get(ctx, ownedKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("storeadapter: unmarshal owned %s: %w", userID, err)
	}
	return ids, nil
}

// 以下为灌数据的辅助方法，示例与测试使用。

// SetCoOccurrence 写入一条共现记录。
func (a *BehaviorAdapter) SetCoOccurrence(ctx context.Context, entityID, otherID string, count int64) error {
	return a.Store.ZAdd(ctx, coocKey(entityID), float64(count), otherID)
}

// SetTrending 写入热度榜一条记录。
func (a *BehaviorAdapter) SetTrending(ctx context.Context, scope, entityID string, score float64) error {
	return a.Store.ZAdd(ctx, trendKey(scope), score, entityID)
}

// SetPopular 写入热销榜一条记录。
func (a *BehaviorAdapter) SetPopular(ctx context.Context, scope, entityID string, score float64) error {
	return a.Store.ZAdd(ctx, popularKey(scope), score, entityID)
}

// PutHistory 覆盖写用户历史（调用方保证时间倒序）。
func (a *BehaviorAdapter) PutHistory(ctx context.Context, userID string, events []core.HistoryEvent) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("storeadapter: marshal history: %w", err)
	}
	return a.Store.Set(ctx, historyKey(userID), data)
}

// PutOwned 覆盖写用户已拥有集合。
func (a *BehaviorAdapter) PutOwned(ctx context.Context, userID string, entityIDs []string) error {
	data, err := json.Marshal(entityIDs)
	if err != nil {
		return fmt.Errorf("storeadapter: marshal owned: %w", err)
	}
	return a.Store.Set(ctx, ownedKey(userID), data)
}
