// Package textutil 文本归一化与分词，供 TF-IDF 与属性过滤使用。
package textutil

import (
	"strings"
	"unicode"
)

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Normalize 小写化，并把非单词、非空白字符替换为空格。
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if isWord(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, strings.ToLower(s))
}

// Words 按非单词字符切分，保留所有非空词。
func Words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return !isWord(r) })
}

// Tokenize 小写化后切词，丢弃单字符词与英文停用词。
func Tokenize(s string) []string {
	words := Words(strings.ToLower(s))
	out := words[:0]
	for _, w := range words {
		if len([]rune(w)) < 2 || IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// ContainsWord 判断 text 中是否出现完整单词 word（均按小写比较）。
func ContainsWord(text, word string) bool {
	word = strings.ToLower(word)
	for _, w := range Words(strings.ToLower(text)) {
		if w == word {
			return true
		}
	}
	return false
}
