package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizcard/internal/models"
)

func TestAvailableRegionsOnlyPresentDistricts(t *testing.T) {
	cards := []models.Card{
		{Address: models.Plain("No. 1, Neihu Rd, Taipei")},
		{Address: models.Bilingual{Zh: "高雄市前鎮區成功二路"}},
		{Address: models.Plain("Somewhere without district")},
	}

	groups := AvailableRegions(cards, models.LanguageEn)
	require.Len(t, groups, 2)
	assert.Equal(t, "Taipei City", groups[0].En)
	assert.Equal(t, []District{{En: "Neihu", Zh: "內湖區"}}, groups[0].Districts)
	assert.Equal(t, "Kaohsiung City", groups[1].En)
	assert.Equal(t, "前鎮區", groups[1].Districts[0].Zh)
}

func TestAvailableRegionsNeverOfferEmptyDistrict(t *testing.T) {
	cards := []models.Card{
		{Address: models.Bilingual{En: "Da-an District, Taipei", Zh: "台北市大安區"}},
		{Address: models.Plain("Zhubei City, Hsinchu")},
		{Address: models.Bilingual{Zh: "台中市西屯區"}},
	}
	for _, lang := range []models.Language{models.LanguageEn, models.LanguageZh} {
		for _, group := range AvailableRegions(cards, lang) {
			for _, d := range group.Districts {
				assert.NotEmpty(t, FilterRegion(cards, d.En, lang), "%s offered without cards", d.En)
			}
		}
	}
}

func TestAvailableRegionsEmpty(t *testing.T) {
	assert.Empty(t, AvailableRegions(nil, models.LanguageEn))
}

func TestLookupDistrict(t *testing.T) {
	assert.Equal(t, "大安區", LookupDistrict("daan").Zh)
	assert.Equal(t, "Xinyi", LookupDistrict("信義區").En)
	assert.Equal(t, District{En: "Paris", Zh: "Paris"}, LookupDistrict(" Paris "))
}

func TestDistrictMatchesScripts(t *testing.T) {
	d := District{En: "Xinyi", Zh: "信義區"}
	assert.True(t, d.Matches("xinyi dist."))
	assert.True(t, d.Matches("台北市信義區"))
	assert.False(t, d.Matches("台北市信义区"))
	assert.False(t, d.Matches(""))
}
