package models

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is the UI language used to project bilingual fields.
type Language string

const (
	LanguageEn Language = "en"
	LanguageZh Language = "zh"
)

// Tag returns the BCP 47 tag used for collation.
func (l Language) Tag() language.Tag {
	if l == LanguageZh {
		return language.TraditionalChinese
	}
	return language.English
}

// ParseLanguage maps a query value such as "en", "zh" or "zh-TW" to a
// Language. The boolean is false for unsupported values.
func ParseLanguage(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	return fromTag(tag)
}

// NegotiateLanguage picks the first supported language from an
// Accept-Language header, defaulting to English.
func NegotiateLanguage(acceptLanguage string) Language {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil {
		return LanguageEn
	}
	for _, tag := range tags {
		if lang, ok := fromTag(tag); ok {
			return lang
		}
	}
	return LanguageEn
}

func fromTag(tag language.Tag) (Language, bool) {
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return LanguageEn, true
	case "zh":
		return LanguageZh, true
	}
	return "", false
}
