package entry

import (
	"fmt"
	"sort"

	"strategy-lab/internal/config"
)

// Factory 由配置创建入场规则
type Factory func(cfg config.SignalConfig) Rule

var factories = map[string]Factory{
	"close": func(config.SignalConfig) Rule { return NextClose{} },
	"open":  func(config.SignalConfig) Rule { return NextOpen{} },
	"limit": func(c config.SignalConfig) Rule {
		return Limit{Ratio: c.Params.Float("ratio", 0.98)}
	},
	"bottom_reverse": func(c config.SignalConfig) Rule {
		return BottomReverse{Buffer: c.Params.Float("buffer", 0.01)}
	},
	"volume_surge": func(c config.SignalConfig) Rule {
		return VolumeSurge{Ratio: c.Params.Float("ratio", 2.0), PriceFilter: c.Params.Float("price_filter", 1) != 0}
	},
	"volume_decline": func(c config.SignalConfig) Rule {
		return VolumeDecline{
			Days:        c.Params.Int("days", 3),
			Ratio:       c.Params.Float("ratio", 0.8),
			PriceFilter: c.Params.Float("price_filter", 1) != 0,
		}
	},
}

// New 根据配置创建入场规则
func New(cfg config.SignalConfig) (Rule, error) {
	f, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("未知的入场信号: %s，可用: %v", cfg.Type, Types())
	}
	return f(cfg), nil
}

// NewAll 批量创建入场规则，保持配置顺序
func NewAll(cfgs []config.SignalConfig) ([]Rule, error) {
	out := make([]Rule, 0, len(cfgs))
	for i, c := range cfgs {
		r, err := New(c)
		if err != nil {
			return nil, fmt.Errorf("signals[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Types 已注册的信号类型
func Types() []string {
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
