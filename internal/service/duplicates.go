package service

import (
	"sort"
	"strings"
	"unicode"

	"bizcard/internal/models"
)

// FindDuplicates returns the ids of existing cards that share an email or a
// phone number with candidate, oldest first. Emails compare case-insensitively
// and phones by their digits only.
func FindDuplicates(existing []models.Card, candidate models.Card) []string {
	email := normalizeEmail(candidate.Email)
	phone := normalizePhone(candidate.Phone)
	if email == "" && phone == "" {
		return []string{}
	}

	linked := make(map[string]models.Card)

	// Match by email
	if email != "" {
		for _, c := range existing {
			if c.ID != candidate.ID && normalizeEmail(c.Email) == email {
				linked[c.ID] = c
			}
		}
	}

	// Match by phone number
	if phone != "" {
		for _, c := range existing {
			if c.ID != candidate.ID && normalizePhone(c.Phone) == phone {
				linked[c.ID] = c
			}
		}
	}

	matches := make([]models.Card, 0, len(linked))
	for _, c := range linked {
		matches = append(matches, c)
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i].CreatedAt.Instant(), matches[j].CreatedAt.Instant()
		if a.Equal(b) {
			return matches[i].ID < matches[j].ID
		}
		return a.Before(b)
	})

	ids := make([]string, 0, len(matches))
	for _, c := range matches {
		ids = append(ids, c.ID)
	}
	return ids
}

// normalizeEmail lowercases and trims an email address
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizePhone keeps only the digits of a phone number. Numbers too short
// to identify anyone are ignored.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	if b.Len() < 6 {
		return ""
	}
	return b.String()
}
