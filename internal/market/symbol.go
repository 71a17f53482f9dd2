package market

import "strings"

// NormalizeSymbol 将不同格式的股票代码统一为纯数字代码
// 例如 sh600000、SH.600000、600000.SH、600000_SH 均转换为 600000
func NormalizeSymbol(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "", "_", "", "/", "", ".", "").Replace(s)
	for _, ex := range []string{"SH", "SZ", "BJ"} {
		if strings.HasPrefix(s, ex) {
			s = s[len(ex):]
			break
		}
		if strings.HasSuffix(s, ex) {
			s = s[:len(s)-len(ex)]
			break
		}
	}
	return s
}

// FilterSymbols 排除代码前缀命中 excludePrefixes 的标的（如科创板 688、创业板 300）
// 保持输入顺序并去除重复
func FilterSymbols(symbols []string, excludePrefixes []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		if excluded(NormalizeSymbol(sym), excludePrefixes) {
			continue
		}
		out = append(out, sym)
	}
	return out
}

func excluded(code string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}
