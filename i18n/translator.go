// Package i18n renders issue messages in the configured language.
package i18n

import (
	"strings"
	"sync/atomic"

	"golang.org/x/text/language"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional values to embed in the message (for example,
// "min" or "values").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalog = map[string]map[string]string{
	"en": {
		"invalid_type":     "invalid type",
		"required":         "required property missing",
		"unknown_key":      "unknown key",
		"duplicate_key":    "duplicate key",
		"too_small":        "must be at least {min}",
		"too_big":          "must be at most {max}",
		"too_short":        "must be at least {min} characters",
		"too_long":         "must be at most {max} characters",
		"exact_digits":     "must be exactly {n} digits",
		"non_numeric":      "must contain only numbers",
		"pattern":          "does not match {pattern}",
		"invalid_enum":     "must be one of {values}",
		"invalid_format":   "invalid {format}",
		"empty_after_trim": "must not be empty",
		"not_integer":      "must be an integer",
		"parse_error":      "parse error",
		"truncated":        "truncated",
		"sum_mismatch":     "{field} does not equal the sum of its parts",
		"page_mismatch":    "pagination metadata is inconsistent",
		"count_mismatch":   "bulk counters are inconsistent",
		"domain_range":     "{min} must not exceed {max}",
		"uniqueness":       "duplicate value",
		"business_rule":    "business rule violated",
	},
	"ja": {
		"invalid_type":     "型が不正です",
		"required":         "必須プロパティが不足しています",
		"unknown_key":      "未知のキーです",
		"duplicate_key":    "キーが重複しています",
		"too_small":        "{min}以上である必要があります",
		"too_big":          "{max}以下である必要があります",
		"too_short":        "{min}文字以上である必要があります",
		"too_long":         "{max}文字以下である必要があります",
		"exact_digits":     "{n}桁の数字である必要があります",
		"non_numeric":      "数字のみを含む必要があります",
		"pattern":          "{pattern}に一致しません",
		"invalid_enum":     "{values}のいずれかである必要があります",
		"invalid_format":   "{format}の形式が不正です",
		"empty_after_trim": "空にできません",
		"not_integer":      "整数である必要があります",
		"parse_error":      "解析エラー",
		"truncated":        "打ち切られました",
		"sum_mismatch":     "{field}が内訳の合計と一致しません",
		"page_mismatch":    "ページ情報が矛盾しています",
		"count_mismatch":   "一括処理の件数が矛盾しています",
		"domain_range":     "{min}は{max}以下である必要があります",
		"uniqueness":       "値が重複しています",
		"business_rule":    "業務ルールに違反しています",
	},
}

var supported = []language.Tag{language.English, language.Japanese}

var matcher = language.NewMatcher(supported)

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalog[t.lang][code]
	if !ok {
		if msg, ok = catalog["en"][code]; !ok {
			return code
		}
	}
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// Match resolves a BCP 47 tag or Accept-Language style value to a supported
// language ("en" or "ja").
func Match(lang string) string {
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		return "en"
	}
	_, idx, _ := matcher.Match(tags...)
	base, _ := supported[idx].Base()
	return base.String()
}

// SetLanguage switches the built-in Translator language. Unsupported
// languages fall back to English.
func SetLanguage(lang string) {
	current.Store(&holder{tr: dictTranslator{lang: Match(lang)}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return current.Load().tr.Message(code, data) }
