// Package fastparse 提供行情文件字段的解析函数。
// 使用 strconv 直接转换，容忍首尾空白与千分位逗号。
package fastparse

import (
	"math"
	"strconv"
	"strings"
)

// clean 去除首尾空白与千分位逗号
func clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.IndexByte(s, ',') >= 0 {
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

// ParseFloat 解析浮点数字符串
// 参数 s: 待解析的字符串，如 "12345.67" 或 "12,345.67"
// 返回: 解析后的浮点数和可能的错误；NaN 与 Inf 视为错误
func ParseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(clean(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

// ParseInt 解析整数字符串
// 参数 s: 待解析的字符串，如 "12345"
func ParseInt(s string) (int64, error) {
	return strconv.ParseInt(clean(s), 10, 64)
}

// ParseQuantity 解析成交量 / 成交额
// 部分数据源以浮点形式导出（如 "1234.0"），按四舍五入取整
// 空字符串视为 0
func ParseQuantity(s string) (int64, error) {
	s = clean(s)
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := ParseFloat(s)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f)), nil
}
