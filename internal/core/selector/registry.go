package selector

import (
	"fmt"
	"sort"

	"strategy-lab/internal/config"
)

// Factory 由配置创建选股策略
type Factory func(cfg config.SelectorConfig) Selector

var factories = map[string]Factory{
	"atr": func(c config.SelectorConfig) Selector {
		return NewATRSelector(c.TopN, c.Params.Int("lookback", 100))
	},
	"volume_decline": func(c config.SelectorConfig) Selector {
		return NewVolumeDeclineSelector(c.TopN,
			c.Params.Int("lookback", 30),
			c.Params.Int("min_decline_days", 3),
			c.Params.Float("min_volume_drop", 0.1),
			c.Params.Int("price_period", 20))
	},
	"breakthrough": func(c config.SelectorConfig) Selector {
		return NewBreakthroughSelector(c.TopN,
			c.Params.Int("lookback", 10),
			c.Params.Float("min_breakthrough", 0.05),
			c.Params.Float("max_pullback", 0.05),
			c.Params.Float("volume_ratio", 0.7))
	},
	"rsi": func(c config.SelectorConfig) Selector {
		return NewRSISelector(c.TopN, c.Params.Int("period", 14), c.Params.Float("oversold", 30))
	},
	"macd": func(c config.SelectorConfig) Selector {
		return NewMACDSelector(c.TopN)
	},
}

// New 根据配置创建选股策略
func New(cfg config.SelectorConfig) (Selector, error) {
	f, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("未知的选股策略: %s，可用: %v", cfg.Type, Types())
	}
	return f(cfg), nil
}

// NewAll 批量创建选股策略，保持配置顺序
func NewAll(cfgs []config.SelectorConfig) ([]Selector, error) {
	out := make([]Selector, 0, len(cfgs))
	for i, c := range cfgs {
		s, err := New(c)
		if err != nil {
			return nil, fmt.Errorf("selectors[%d]: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Types 已注册的策略类型
func Types() []string {
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
