// Package recommend 是一个商品推荐打分与排序引擎。
//
// 设计要点：
//   - 多信号融合：内容/协同/热度/行为/跨类型五个独立信号源并发打分，
//     按配置权重对"本次真正响应的信号源"归一化混合
//   - 优雅降级：单个信号源失败只降级为空贡献；产出不足时按固定顺序
//     走补位链（trending → popular → category → store）
//   - 配置热替换：不可变配置快照 + 原子替换，在途请求永不读到半份配置
//   - 结果缓存：按请求签名（含配置版本）做 TTL 缓存
package recommend

import (
	"github.com/shopkit/recommend/config"
	"github.com/shopkit/recommend/core"
	"github.com/shopkit/recommend/engine"
)

// 轻量 facade：便于用户直接 import 根包使用核心抽象。
type (
	Engine          = engine.Engine
	Status          = engine.Status
	Item            = core.Item
	RecommendTarget = core.RecommendTarget
	AlgorithmConfig = config.AlgorithmConfig
)

const (
	StatusOK                = engine.StatusOK
	StatusDegraded          = engine.StatusDegraded
	StatusFallbackExhausted = engine.StatusFallbackExhausted
)

// Option 配置 Engine。
type Option = engine.Option

// New 构造引擎，等价于 engine.New。
var New = engine.New

// 常用 Option 的再导出。
var (
	WithLogger     = engine.WithLogger
	WithCacheStore = engine.WithCacheStore
	WithFilters    = engine.WithFilters
	WithProviders  = engine.WithProviders
)

// DefaultConfig 返回默认配置，等价于 config.DefaultConfig。
var DefaultConfig = config.DefaultConfig
