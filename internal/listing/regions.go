package listing

import (
	"strings"

	"bizcard/internal/models"
)

// District is one filterable region token in both scripts.
type District struct {
	En      string   `json:"en"`
	Zh      string   `json:"zh"`
	Aliases []string `json:"-"`
}

// RegionGroup is a top-level region and its districts.
type RegionGroup struct {
	En        string     `json:"en"`
	Zh        string     `json:"zh"`
	Districts []District `json:"districts"`
}

// Catalog is the fixed two-level region list offered by the region filter.
var Catalog = []RegionGroup{
	{En: "Taipei City", Zh: "台北市", Districts: []District{
		{En: "Zhongzheng", Zh: "中正區"},
		{En: "Datong", Zh: "大同區"},
		{En: "Zhongshan", Zh: "中山區"},
		{En: "Songshan", Zh: "松山區"},
		{En: "Da'an", Zh: "大安區", Aliases: []string{"Daan", "Da-an"}},
		{En: "Wanhua", Zh: "萬華區"},
		{En: "Xinyi", Zh: "信義區", Aliases: []string{"Hsinyi"}},
		{En: "Shilin", Zh: "士林區"},
		{En: "Beitou", Zh: "北投區"},
		{En: "Neihu", Zh: "內湖區"},
		{En: "Nangang", Zh: "南港區"},
		{En: "Wenshan", Zh: "文山區"},
	}},
	{En: "New Taipei City", Zh: "新北市", Districts: []District{
		{En: "Banqiao", Zh: "板橋區", Aliases: []string{"Banciao"}},
		{En: "Sanchong", Zh: "三重區"},
		{En: "Zhonghe", Zh: "中和區"},
		{En: "Yonghe", Zh: "永和區"},
		{En: "Xinzhuang", Zh: "新莊區", Aliases: []string{"Sinjhuang"}},
		{En: "Xindian", Zh: "新店區", Aliases: []string{"Sindian"}},
		{En: "Tucheng", Zh: "土城區"},
		{En: "Luzhou", Zh: "蘆洲區"},
		{En: "Xizhi", Zh: "汐止區", Aliases: []string{"Sijhih"}},
		{En: "Linkou", Zh: "林口區"},
	}},
	{En: "Taoyuan City", Zh: "桃園市", Districts: []District{
		{En: "Taoyuan District", Zh: "桃園區"},
		{En: "Zhongli", Zh: "中壢區", Aliases: []string{"Jhongli"}},
		{En: "Guishan", Zh: "龜山區"},
		{En: "Luzhu", Zh: "蘆竹區"},
	}},
	{En: "Hsinchu", Zh: "新竹", Districts: []District{
		{En: "Zhubei", Zh: "竹北市", Aliases: []string{"Jhubei"}},
		{En: "Hsinchu Science Park", Zh: "新竹科學園區"},
	}},
	{En: "Taichung City", Zh: "台中市", Districts: []District{
		{En: "Xitun", Zh: "西屯區", Aliases: []string{"Situn"}},
		{En: "Nantun", Zh: "南屯區"},
		{En: "Beitun", Zh: "北屯區"},
		{En: "Wuri", Zh: "烏日區"},
	}},
	{En: "Tainan City", Zh: "台南市", Districts: []District{
		{En: "Anping", Zh: "安平區"},
		{En: "Yongkang", Zh: "永康區"},
		{En: "Annan", Zh: "安南區"},
	}},
	{En: "Kaohsiung City", Zh: "高雄市", Districts: []District{
		{En: "Qianzhen", Zh: "前鎮區", Aliases: []string{"Cianjhen"}},
		{En: "Lingya", Zh: "苓雅區"},
		{En: "Zuoying", Zh: "左營區"},
		{En: "Gushan", Zh: "鼓山區"},
		{En: "Sanmin", Zh: "三民區"},
	}},
}

// Matches reports whether an address mentions the district. Latin forms are
// compared case-insensitively; the CJK form is an exact substring.
func (d District) Matches(address string) bool {
	if address == "" {
		return false
	}
	if d.Zh != "" && strings.Contains(address, d.Zh) {
		return true
	}
	lower := strings.ToLower(address)
	if d.En != "" && strings.Contains(lower, strings.ToLower(d.En)) {
		return true
	}
	for _, alias := range d.Aliases {
		if strings.Contains(lower, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

// LookupDistrict resolves a region filter value against the catalog by either
// script. Unknown tokens are returned as an ad-hoc district matching the raw
// token in both scripts.
func LookupDistrict(token string) District {
	token = strings.TrimSpace(token)
	for _, group := range Catalog {
		for _, d := range group.Districts {
			if strings.EqualFold(d.En, token) || d.Zh == token {
				return d
			}
			for _, alias := range d.Aliases {
				if strings.EqualFold(alias, token) {
					return d
				}
			}
		}
	}
	return District{En: token, Zh: token}
}

// AvailableRegions returns the catalog pruned to districts that match at
// least one card's localized address, keeping catalog order. Matching uses
// the same projection as the region filter so every offered district yields
// at least one card.
func AvailableRegions(cards []models.Card, lang models.Language) []RegionGroup {
	addresses := make([]string, 0, len(cards))
	for _, c := range cards {
		if a := models.Localize(c.Address, lang); a != "" {
			addresses = append(addresses, a)
		}
	}

	groups := []RegionGroup{}
	for _, group := range Catalog {
		var present []District
		for _, d := range group.Districts {
			for _, a := range addresses {
				if d.Matches(a) {
					present = append(present, d)
					break
				}
			}
		}
		if len(present) > 0 {
			groups = append(groups, RegionGroup{En: group.En, Zh: group.Zh, Districts: present})
		}
	}
	return groups
}
