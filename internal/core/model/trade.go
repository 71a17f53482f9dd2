package model

// ExitReason 退出原因
type ExitReason string

const (
	// ExitTargetReached 达到目标收益，按当日收盘价卖出
	ExitTargetReached ExitReason = "target_reached"
	// ExitStopLoss 盘中触及止损价，按止损价卖出
	ExitStopLoss ExitReason = "stop_loss"
	// ExitStopLossFailed 开盘跳空低于止损价，只能按开盘价卖出
	ExitStopLossFailed ExitReason = "stop_loss_failed"
	// ExitTimeExpired 持有期满，按最后一日收盘价卖出
	ExitTimeExpired ExitReason = "time_expired"
)

// IsWin 是否计为盈利交易
func (r ExitReason) IsWin() bool {
	return r == ExitTargetReached
}

// TradeOutcome 单笔模拟交易结果
type TradeOutcome struct {
	// Symbol 标的代码
	Symbol string `json:"symbol"`
	// EntryDate 决策日日期
	EntryDate int `json:"entry_date"`
	// EntryPrice 买入价
	EntryPrice float64 `json:"entry_price"`
	// ExitDate 卖出日日期
	ExitDate int `json:"exit_date"`
	// ExitPrice 卖出价
	ExitPrice float64 `json:"exit_price"`
	// ReturnPct 收益率
	// 止损退出时严格等于 -stop_loss_pct，其余为 (exit - entry) / entry
	ReturnPct float64 `json:"return_pct"`
	// HoldDays 持有天数（1..horizon）
	HoldDays int `json:"hold_days"`
	// ExitReason 退出原因
	ExitReason ExitReason `json:"exit_reason"`
	// PeakReturn 持有期内观察到的最高收盘收益率（仅供参考）
	PeakReturn float64 `json:"peak_return"`
}

// IsWin 判断是否盈利
func (t *TradeOutcome) IsWin() bool {
	return t.ExitReason.IsWin()
}

// Recommendation 最新交易日的推荐标的
type Recommendation struct {
	// Symbol 标的代码
	Symbol string `json:"symbol"`
	// BuyPrice 建议买入价
	BuyPrice float64 `json:"buy_price"`
	// TargetPrice 目标价 = buy × (1 + target_return)
	TargetPrice float64 `json:"target_price"`
	// StopLossPrice 止损价 = buy × (1 - stop_loss_pct)
	StopLossPrice float64 `json:"stop_loss_price"`
	// PrevClose 前一交易日收盘价
	PrevClose float64 `json:"prev_close"`
}
