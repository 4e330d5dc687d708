package listing

import (
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/collate"

	"bizcard/internal/models"
)

// Uncategorized is the group label for cards without a company name.
const Uncategorized = "Uncategorized"

// SortOption selects the ordering of the listing.
type SortOption string

const (
	SortNewest  SortOption = "newest"
	SortOldest  SortOption = "oldest"
	SortCompany SortOption = "company"
)

// ParseSort maps a query value to a SortOption, defaulting to newest first.
func ParseSort(s string) SortOption {
	switch SortOption(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortCompany:
		return SortCompany
	default:
		return SortNewest
	}
}

// Query holds every input of the listing pipeline besides the cards.
type Query struct {
	Search   string
	Sort     SortOption
	Region   string
	Language models.Language
}

// Group is one company bucket of the listing.
type Group struct {
	Company string        `json:"company"`
	Cards   []models.Card `json:"cards"`
}

// View is the display-ready projection of a user's cards.
type View struct {
	Groups  []Group       `json:"groups"`
	Regions []RegionGroup `json:"regions"`
	Total   int           `json:"total"`
	Matched int           `json:"matched"`
}

// Build runs filter, region filter, sort and grouping over cards. It is a
// pure function of its arguments and does not modify cards.
func Build(cards []models.Card, q Query) View {
	if q.Language == "" {
		q.Language = models.LanguageEn
	}
	filtered := FilterText(cards, q.Search, q.Language)
	filtered = FilterRegion(filtered, q.Region, q.Language)
	sorted := Sort(filtered, q.Sort, q.Language)

	return View{
		Groups:  GroupByCompany(sorted, q.Language),
		Regions: AvailableRegions(cards, q.Language),
		Total:   len(cards),
		Matched: len(sorted),
	}
}

// FilterText keeps cards whose localized name, title or company, or raw
// notes, contain term case-insensitively. An empty term keeps everything.
func FilterText(cards []models.Card, term string, lang models.Language) []models.Card {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		if term == "" || matchesText(c, term, lang) {
			out = append(out, c)
		}
	}
	return out
}

func matchesText(c models.Card, term string, lang models.Language) bool {
	fields := []string{
		models.Localize(c.Name, lang),
		models.Localize(c.Title, lang),
		models.Localize(c.CompanyName, lang),
		c.Notes,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// FilterRegion keeps cards whose localized address mentions region. An empty
// region keeps everything.
func FilterRegion(cards []models.Card, region string, lang models.Language) []models.Card {
	if strings.TrimSpace(region) == "" {
		return slices.Clone(cards)
	}
	district := LookupDistrict(region)
	out := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		if district.Matches(models.Localize(c.Address, lang)) {
			out = append(out, c)
		}
	}
	return out
}

type keyedCard struct {
	key  string
	card models.Card
}

// Sort returns a stably sorted copy of cards.
func Sort(cards []models.Card, opt SortOption, lang models.Language) []models.Card {
	out := slices.Clone(cards)
	switch opt {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b models.Card) int {
			return a.CreatedAt.Instant().Compare(b.CreatedAt.Instant())
		})
	case SortCompany:
		col := collate.New(lang.Tag())
		keyed := make([]keyedCard, len(out))
		for i, c := range out {
			keyed[i] = keyedCard{key: CompanyKey(c, lang), card: c}
		}
		slices.SortStableFunc(keyed, func(a, b keyedCard) int {
			return col.CompareString(a.key, b.key)
		})
		for i := range keyed {
			out[i] = keyed[i].card
		}
	default:
		slices.SortStableFunc(out, func(a, b models.Card) int {
			return b.CreatedAt.Instant().Compare(a.CreatedAt.Instant())
		})
	}
	return out
}

// CompanyKey is the localized company name of a card, or Uncategorized.
func CompanyKey(c models.Card, lang models.Language) string {
	if name := strings.TrimSpace(models.Localize(c.CompanyName, lang)); name != "" {
		return name
	}
	return Uncategorized
}

// GroupByCompany buckets cards by CompanyKey. Group keys are sorted
// lexicographically; members keep their input order.
func GroupByCompany(cards []models.Card, lang models.Language) []Group {
	buckets := make(map[string][]models.Card)
	for _, c := range cards {
		key := CompanyKey(c, lang)
		buckets[key] = append(buckets[key], c)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, Group{Company: k, Cards: buckets[k]})
	}
	return groups
}
