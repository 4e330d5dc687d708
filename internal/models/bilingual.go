package models

import (
	"encoding/json"
	"strings"
)

// Bilingual holds a contact attribute read from an English and/or a
// Traditional Chinese card face. Either half may be empty.
type Bilingual struct {
	En string `json:"en"`
	Zh string `json:"zh"`
}

// Plain builds a Bilingual from a legacy plain-string value.
func Plain(s string) Bilingual {
	return Bilingual{En: s}
}

// IsEmpty reports whether both halves are blank.
func (b Bilingual) IsEmpty() bool {
	return strings.TrimSpace(b.En) == "" && strings.TrimSpace(b.Zh) == ""
}

// Trim returns a copy with surrounding whitespace removed from both halves.
func (b Bilingual) Trim() Bilingual {
	return Bilingual{En: strings.TrimSpace(b.En), Zh: strings.TrimSpace(b.Zh)}
}

// UnmarshalJSON accepts both the bilingual object and the legacy plain string.
// Any other shape decodes to an empty value instead of failing.
func (b *Bilingual) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		*b = Bilingual{}
		return nil
	}
	*b = NormalizeField(raw)
	return nil
}
