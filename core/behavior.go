package core

import (
	"context"
	"time"
)

// 行为事件类型。
const (
	BehaviorView     = "view"
	BehaviorPurchase = "purchase"
)

// CoOccurrence 是"看过/买过 X 的用户也看过/买过 Y"的一条共现记录。
// 共现表由协作方离线产出，引擎只读。
type CoOccurrence struct {
	EntityID string `json:"entity_id"`
	Count    int64  `json:"count"`
}

// HistoryEvent 是用户的一条历史行为。
type HistoryEvent struct {
	EntityID string    `json:"entity_id"`
	At       time.Time `json:"at"`
	Kind     string    `json:"kind"` // view / purchase
}

// TrendingEntry 是热度榜上的一条记录，Score 为协作方预计算的
// 近期热度（已含时间衰减）。
type TrendingEntry struct {
	EntityID string  `json:"entity_id"`
	Score    float64 `json:"score"`
}

// BehaviorStore 是行为事件协作方的领域接口。
// 任何方法失败都只会让对应信号降级为空贡献，不会中断请求。
type BehaviorStore interface {
	// FetchCoOccurrence 取与 entityID 共现次数最高的前 max 个实体
	FetchCoOccurrence(ctx context.Context, entityID string, max int) ([]CoOccurrence, error)

	// FetchUserHistory 取用户最近的行为历史（按时间倒序）
	FetchUserHistory(ctx context.Context, userID string, max int) ([]HistoryEvent, error)

	// FetchTrending 取某个范围内的热度榜（近期交互，带时间衰减）
	FetchTrending(ctx context.Context, scope string, max int) ([]TrendingEntry, error)

	// FetchPopular 取某个范围内的累计热销榜（不带时间衰减）
	FetchPopular(ctx context.Context, scope string, max int) ([]TrendingEntry, error)

	// FetchOwned 取用户已拥有/已购买的实体 ID 集合
	FetchOwned(ctx context.Context, userID string) ([]string, error)
}

// ScopeGlobal 是热度/热销榜的默认范围。
const ScopeGlobal = "global"
