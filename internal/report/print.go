// Package report 输出评分卡结果：终端文本与 JSON 导出。
package report

import (
	"fmt"
	"io"
	"strings"

	"strategy-lab/internal/scorecard"
	"strategy-lab/internal/stats/perf"
)

const rule = "==========================================================="

// Names 评分矩阵各维度的名称
type Names struct {
	Targets   []string
	Selectors []string
	Signals   []string
}

// NamesOf 从评分卡提取名称
func NamesOf(sc *scorecard.Scorecard) Names {
	var n Names
	for _, p := range sc.Policies() {
		n.Targets = append(n.Targets, p.Name())
	}
	for _, s := range sc.Selectors() {
		n.Selectors = append(n.Selectors, s.Name())
	}
	for _, r := range sc.Rules() {
		n.Signals = append(n.Signals, r.Name())
	}
	return n
}

// Label 组合的可读名称: 策略-信号-目标
func (n Names) Label(b scorecard.Best) string {
	return fmt.Sprintf("%s-%s-%s", n.at(n.Selectors, b.Selector), n.at(n.Signals, b.Signal), n.at(n.Targets, b.Target))
}

func (n Names) at(names []string, i int) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("#%d", i)
}

// PrintMatrix 按 目标 / 策略 / 信号 三级打印全部得分
func PrintMatrix(w io.Writer, n Names, m scorecard.Matrix) {
	fmt.Fprintln(w, "评分卡结果:")
	fmt.Fprintln(w, rule)
	for t := range m {
		fmt.Fprintf(w, "\n目标: %s\n", n.at(n.Targets, t))
		for sel := range m[t] {
			fmt.Fprintf(w, "  策略: %s\n", n.at(n.Selectors, sel))
			for sig, score := range m[t][sel] {
				fmt.Fprintf(w, "    信号: %s, 得分: %.2f%%\n", n.at(n.Signals, sig), score*100)
			}
		}
	}
	fmt.Fprintln(w, rule)
}

// PrintBest 打印最佳组合
func PrintBest(w io.Writer, n Names, b scorecard.Best) {
	fmt.Fprintln(w, "\n最佳组合:")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "策略: %s\n", n.at(n.Selectors, b.Selector))
	fmt.Fprintf(w, "信号: %s\n", n.at(n.Signals, b.Signal))
	fmt.Fprintf(w, "目标: %s\n", n.at(n.Targets, b.Target))
	fmt.Fprintf(w, "得分: %.2f%%\n", b.Score*100)
	fmt.Fprintln(w, rule)
}

// PrintDetail 打印单个组合的统计与推荐
func PrintDetail(w io.Writer, n Names, d scorecard.Detail) {
	fmt.Fprintf(w, "\n%s (得分 %.2f%%)\n", n.Label(d.Best), d.Score*100)
	PrintResult(w, d.Result)
	if len(d.Recommendations) == 0 {
		fmt.Fprintln(w, "  今日无推荐")
		return
	}
	fmt.Fprintln(w, "  今日推荐:")
	for _, r := range d.Recommendations {
		fmt.Fprintf(w, "    %s 买入 %.2f 目标 %.2f 止损 %.2f 昨收 %.2f\n",
			r.Symbol, r.BuyPrice, r.TargetPrice, r.StopLossPrice, r.PrevClose)
	}
}

// PrintResult 缩进打印统计结果
func PrintResult(w io.Writer, r perf.Result) {
	for _, line := range strings.Split(strings.TrimRight(r.Report(), "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}
