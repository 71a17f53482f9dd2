package perf

import (
	"fmt"
	"strings"
)

// Report 生成文本格式的统计报告
func (r Result) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "总交易次数: %d\n", r.TotalTrades)
	fmt.Fprintf(&b, "胜率: %.2f%%\n", r.WinRate*100)
	fmt.Fprintf(&b, "止损率: %.2f%%\n", r.StopLossRate*100)
	fmt.Fprintf(&b, "止损失败率: %.2f%%\n", r.StopLossFailRate*100)
	fmt.Fprintf(&b, "平均收益率: %.2f%%\n", r.AvgReturn*100)
	fmt.Fprintf(&b, "最大收益率: %.2f%%\n", r.MaxReturn*100)
	fmt.Fprintf(&b, "最大亏损率: %.2f%%\n", r.MaxLoss*100)
	fmt.Fprintf(&b, "平均持有天数: %.1f天\n", r.AvgHoldDays)
	fmt.Fprintf(&b, "夏普比率: %.2f\n", r.SharpeRatio)
	fmt.Fprintf(&b, "最大回撤: %.2f%%\n", r.MaxDrawdown*100)
	fmt.Fprintf(&b, "盈亏比: %.2f\n", r.ProfitFactor)
	fmt.Fprintf(&b, "盈亏比(总盈利/总亏损): %.2f\n", r.ProfitFactorGross)
	fmt.Fprintf(&b, "索提诺比率: %.2f\n", r.SortinoRatio)
	return b.String()
}
