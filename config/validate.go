package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/shopkit/recommend/core"
)

// validate 做字段级范围校验（min/max 等 tag），全局共享一个实例。
var validate = validator.New()

// Validate 校验整份配置。返回的 error 聚合了全部问题
// （errors.Join），调用方可以一次性展示校验失败列表。
//
// 校验失败的配置绝不生效：Holder.Swap 会拒绝并保留上一份合法配置。
func (c *AlgorithmConfig) Validate() error {
	var errs []error

	// 字段范围（validator tag）
	if err := validate.Struct(c.Similarity); err != nil {
		errs = append(errs, fmt.Errorf("similarity: %w", err))
	}
	if err := validate.Struct(c.Limits); err != nil {
		errs = append(errs, fmt.Errorf("limits: %w", err))
	}
	for t, p := range c.ProductTypes {
		if !t.Valid() {
			errs = append(errs, fmt.Errorf("product_types: unknown entity type %q", t))
		}
		if err := validate.Struct(p); err != nil {
			errs = append(errs, fmt.Errorf("product_types[%s]: %w", t, err))
		}
	}

	// 不变式一：相似度四个子权重之和必须恰好为 100
	if sum := c.Similarity.Sum(); sum != 100 {
		errs = append(errs, fmt.Errorf("similarity: sub-weights must sum to 100, got %d", sum))
	}

	// 不变式二：各算法权重各自在 [0,100]；静态之和不要求 100，
	// 混合时按"本次响应的算法"归一化
	for name, w := range c.Weights {
		if !knownAlgorithm(name) {
			errs = append(errs, fmt.Errorf("weights: unknown algorithm %q", name))
			continue
		}
		if w < 0 || w > 100 {
			errs = append(errs, fmt.Errorf("weights[%s]: must be in [0,100], got %d", name, w))
		}
	}
	for name := range c.Algorithms {
		if !knownAlgorithm(name) {
			errs = append(errs, fmt.Errorf("algorithms: unknown algorithm %q", name))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	joined := errors.Join(errs...)
	return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidConfig, joined.Error())
}

func knownAlgorithm(name string) bool {
	for _, known := range KnownAlgorithms() {
		if name == known {
			return true
		}
	}
	return false
}
