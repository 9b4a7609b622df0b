package util

import (
	"strings"
	"unicode/utf8"
)

// PtrInt 用于将 int 转换为 *int
func PtrInt(i int) *int {
	return &i
}

// TruncateRunes 按字符数截断，超出部分以省略号结尾
func TruncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit == 1 {
		return string(runes[:1])
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}

// ContainsAnyFold 忽略大小写判断文本是否包含任意一个词
func ContainsAnyFold(text string, terms []string) bool {
	if len(terms) == 0 || text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// UniqueStrings 去重并去掉空白项，保持顺序
func UniqueStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
