// Package timeutil 提供交易日期相关的工具函数。
// 行情日期统一使用 YYYYMMDD 整数表示，如 20240105。
package timeutil

import (
	"fmt"
	"strings"
	"time"

	"strategy-lab/internal/util/fastparse"
)

// dateLayouts 支持的日期文本格式
var dateLayouts = []string{"20060102", "2006-01-02", "2006/01/02"}

// ParseDate 解析日期文本为 YYYYMMDD 整数
// 参数 s: 日期文本，支持 20240105、2024-01-05、2024/01/05
// 返回: YYYYMMDD 整数和可能的错误
func ParseDate(s string) (int, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if len(s) != len(layout) {
			continue
		}
		t, err := time.Parse(layout, s)
		if err == nil {
			return FromTime(t), nil
		}
	}
	return 0, fmt.Errorf("无法解析日期: %q", s)
}

// FromTime 将 time.Time 转换为 YYYYMMDD 整数
func FromTime(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// ToTime 将 YYYYMMDD 整数转换为 time.Time（UTC 零点）
func ToTime(date int) time.Time {
	return time.Date(date/10000, time.Month(date/100%100), date%100, 0, 0, 0, 0, time.UTC)
}

// Format 将 YYYYMMDD 整数格式化为 2024-01-05
func Format(date int) string {
	return ToTime(date).Format("2006-01-02")
}

// Today 当天日期（本地时区）的 YYYYMMDD 整数
func Today() int {
	return FromTime(time.Now())
}

// Valid 判断 YYYYMMDD 整数是否为合法日期
func Valid(date int) bool {
	if date < 19000101 || date > 99991231 {
		return false
	}
	return FromTime(ToTime(date)) == date
}

// ParseIntDate 解析纯数字日期（数据库中可能以整数存储）
func ParseIntDate(s string) (int, error) {
	v, err := fastparse.ParseInt(strings.TrimSpace(s))
	if err != nil || !Valid(int(v)) {
		return 0, fmt.Errorf("无效的日期: %q", s)
	}
	return int(v), nil
}
