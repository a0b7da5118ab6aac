package generative

import (
	"strings"

	"github.com/ktnshm/receipt-scanner/internal/models"
)

type categoryRule struct {
	name     string
	keywords []string
}

// categoryRules is ordered; keywords are lowercase for case-insensitive
// matching. The store name is scanned against the whole table before item
// names are consulted.
var categoryRules = []categoryRule{
	{"食費", []string{"スーパー", "マート", "食品", "コンビニ", "ファミリーマート", "セブン", "ローソン", "弁当", "パン", "牛乳", "野菜", "肉", "魚", "レストラン", "食堂", "カフェ"}},
	{"交通費", []string{"交通", "電車", "バス", "タクシー", "ガソリン", "駐車", "高速", "jr", "メトロ"}},
	{"日用品", []string{"ドラッグ", "薬局", "洗剤", "シャンプー", "ティッシュ", "日用", "ホームセンター"}},
	{"書籍", []string{"書店", "本屋", "ブック", "書籍", "雑誌"}},
	{"娯楽費", []string{"映画", "カラオケ", "ゲーム", "遊園地", "チケット"}},
	{"医療費", []string{"病院", "クリニック", "診療", "処方", "医院"}},
	{"光熱費", []string{"電気", "ガス", "水道"}},
	{"通信費", []string{"携帯", "通信", "インターネット", "docomo", "ソフトバンク", "au"}},
}

// categorize suggests a Japanese expense category. The store name takes
// priority over item names, and an empty string means no suggestion.
func categorize(r *models.Receipt) string {
	if c := matchCategory(r.StoreName); c != "" {
		return c
	}
	for _, it := range r.Items {
		if c := matchCategory(it.Name); c != "" {
			return c
		}
	}
	return ""
}

func matchCategory(text string) string {
	text = strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.name
			}
		}
	}
	return ""
}
