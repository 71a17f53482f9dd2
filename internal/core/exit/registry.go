package exit

import (
	"fmt"

	"strategy-lab/internal/config"
)

// New 根据配置创建退出策略
func New(cfg config.TargetConfig) (Policy, error) {
	switch cfg.Type {
	case "", "return":
		return NewReturnPolicy(cfg.Name, Params{
			TargetReturn: cfg.TargetReturn,
			StopLossPct:  cfg.StopLoss,
			HorizonDays:  cfg.InDays,
		}), nil
	case "guard":
		return NewGuardPolicy(cfg.Name, cfg.StopLoss, cfg.InDays), nil
	default:
		return nil, fmt.Errorf("未知的目标类型: %s", cfg.Type)
	}
}

// NewAll 批量创建退出策略，保持配置顺序
func NewAll(cfgs []config.TargetConfig) ([]Policy, error) {
	out := make([]Policy, 0, len(cfgs))
	for i, c := range cfgs {
		p, err := New(c)
		if err != nil {
			return nil, fmt.Errorf("targets[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}
