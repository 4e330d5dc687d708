package models

// NormalizeField coerces any stored shape of a bilingual attribute into a
// Bilingual. Strings become the English half; objects contribute their "en"
// and "zh" members when those are strings; everything else is empty.
func NormalizeField(raw any) Bilingual {
	switch v := raw.(type) {
	case string:
		return Bilingual{En: v}
	case *string:
		if v == nil {
			return Bilingual{}
		}
		return Bilingual{En: *v}
	case Bilingual:
		return v
	case *Bilingual:
		if v == nil {
			return Bilingual{}
		}
		return *v
	case map[string]any:
		en, _ := v["en"].(string)
		zh, _ := v["zh"].(string)
		return Bilingual{En: en, Zh: zh}
	case map[string]string:
		return Bilingual{En: v["en"], Zh: v["zh"]}
	default:
		return Bilingual{}
	}
}

// Localize projects a field into one language, falling back to English and
// then Chinese so a single-language card still renders under either UI
// language.
func Localize(f Bilingual, lang Language) string {
	switch lang {
	case LanguageZh:
		if f.Zh != "" {
			return f.Zh
		}
	case LanguageEn:
		if f.En != "" {
			return f.En
		}
	}
	if f.En != "" {
		return f.En
	}
	return f.Zh
}
