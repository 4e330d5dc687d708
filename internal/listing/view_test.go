package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizcard/internal/models"
)

func card(id, company string, created int64) models.Card {
	return models.Card{
		ID:          id,
		CompanyName: models.Plain(company),
		CreatedAt:   models.NewTimestamp(time.Unix(created, 0)),
	}
}

func ids(cards []models.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

func TestBuildGroupsNewestFirst(t *testing.T) {
	cards := []models.Card{
		card("t1", "Acme", 100),
		card("t2", "Acme", 200),
		card("t3", "Beta", 150),
	}

	view := Build(cards, Query{Sort: SortNewest, Language: models.LanguageEn})

	require.Len(t, view.Groups, 2)
	assert.Equal(t, "Acme", view.Groups[0].Company)
	assert.Equal(t, []string{"t2", "t1"}, ids(view.Groups[0].Cards))
	assert.Equal(t, "Beta", view.Groups[1].Company)
	assert.Equal(t, []string{"t3"}, ids(view.Groups[1].Cards))
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, 3, view.Matched)
}

func TestEmptyCompanyIsUncategorized(t *testing.T) {
	view := Build([]models.Card{card("a", "", 1), card("b", "  ", 2)}, Query{})
	require.Len(t, view.Groups, 1)
	assert.Equal(t, Uncategorized, view.Groups[0].Company)
	assert.Len(t, view.Groups[0].Cards, 2)
}

func TestBuildIsIdempotent(t *testing.T) {
	cards := []models.Card{
		card("1", "Gamma", 3), card("2", "Acme", 1), card("3", "", 2), card("4", "Acme", 1),
	}
	cards[0].Address = models.Bilingual{En: "No. 7, Xinyi Rd, Taipei", Zh: "台北市信義區信義路7號"}
	q := Query{Search: "", Sort: SortCompany, Region: "", Language: models.LanguageZh}

	first := Build(cards, q)
	second := Build(cards, q)
	assert.Equal(t, first, second)
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	cards := []models.Card{card("old", "A", 1), card("new", "A", 2)}
	_ = Build(cards, Query{Sort: SortNewest})
	assert.Equal(t, []string{"old", "new"}, ids(cards))
}

func TestSortOldestAndStableTies(t *testing.T) {
	cards := []models.Card{card("a", "X", 5), card("b", "X", 1), card("c", "X", 5), card("d", "X", 1)}

	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(Sort(cards, SortOldest, models.LanguageEn)))
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(Sort(cards, SortNewest, models.LanguageEn)))
}

func TestSortUnparsableTimestampIsOldest(t *testing.T) {
	broken := models.Card{ID: "broken"}
	cards := []models.Card{broken, card("fresh", "", time.Now().Unix())}
	assert.Equal(t, []string{"fresh", "broken"}, ids(Sort(cards, SortNewest, models.LanguageEn)))
}

func TestSortByLocalizedCompany(t *testing.T) {
	cards := []models.Card{
		{ID: "z", CompanyName: models.Bilingual{En: "zeta"}},
		{ID: "b", CompanyName: models.Bilingual{En: "Beta", Zh: "貝塔"}},
		{ID: "a", CompanyName: models.Bilingual{En: "alpha"}},
	}
	assert.Equal(t, []string{"a", "b", "z"}, ids(Sort(cards, SortCompany, models.LanguageEn)))
}

func TestFilterText(t *testing.T) {
	cards := []models.Card{
		{ID: "1", Name: models.Bilingual{En: "Alice Chen", Zh: "陳愛麗"}},
		{ID: "2", Title: models.Bilingual{En: "CTO"}},
		{ID: "3", Notes: "Met at COMPUTEX"},
		{ID: "4", CompanyName: models.Bilingual{Zh: "台積電"}},
	}

	assert.Equal(t, []string{"1"}, ids(FilterText(cards, "alice", models.LanguageEn)))
	assert.Equal(t, []string{"2"}, ids(FilterText(cards, "cto", models.LanguageEn)))
	assert.Equal(t, []string{"3"}, ids(FilterText(cards, "computex", models.LanguageZh)))
	assert.Equal(t, []string{"4"}, ids(FilterText(cards, "台積", models.LanguageEn)))
	assert.Equal(t, []string{"1"}, ids(FilterText(cards, "陳", models.LanguageZh)))
	assert.Empty(t, FilterText(cards, "陳", models.LanguageEn))
	assert.Len(t, FilterText(cards, "  ", models.LanguageEn), 4)
}

func TestFilterRegion(t *testing.T) {
	cards := []models.Card{
		{ID: "en", Address: models.Plain("5F, No. 100, Xinyi Rd, XINYI District, Taipei")},
		{ID: "zh", Address: models.Bilingual{Zh: "台北市信義區松仁路"}},
		{ID: "other", Address: models.Plain("Banqiao, New Taipei")},
	}

	assert.Equal(t, []string{"en", "zh"}, ids(FilterRegion(cards, "Xinyi", models.LanguageEn)))
	assert.Equal(t, []string{"en", "zh"}, ids(FilterRegion(cards, "信義區", models.LanguageZh)))
	assert.Equal(t, []string{"other"}, ids(FilterRegion(cards, "banqiao", models.LanguageEn)))
	assert.Len(t, FilterRegion(cards, "", models.LanguageEn), 3)
}
