package pattern

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktnshm/receipt-scanner/internal/models"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	fixed := func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return NewEngine(logger.NewTestLogger(), WithClock(fixed))
}

func TestExtractDate(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		name string
		text string
		want string
	}{
		{"slash full year", "2023/05/15", "2023-05-15"},
		{"kanji separators", "2023年5月15日", "2023-05-15"},
		{"hyphen full year", "2023-05-15", "2023-05-15"},
		{"dotted full year", "2023.5.15", "2023-05-15"},
		{"two digit year recent", "23/05/15", "2023-05-15"},
		{"two digit year old", "98/05/15", "1998-05-15"},
		{"reiwa era", "令和5年5月15日", "2023-05-15"},
		{"heisei era", "平成31年4月30日", "2019-04-30"},
		{"month day only", "5/15", "2024-05-15"},
		{"full width digits", "２０２３年５月１５日", "2023-05-15"},
		{"no date", "スーパーマーケット", ""},
		{"invalid calendar day", "2023/02/30", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, e.extractDate(normalizeWidth(tc.text)))
		})
	}
}

func TestExtractAmount(t *testing.T) {
	t.Run("label beats larger unlabelled amount", func(t *testing.T) {
		got := extractAmount("お釣り ¥8,500\n合計 ¥1,500\n¥50")
		require.NotNil(t, got)
		assert.Equal(t, 1500.0, *got)
	})

	t.Run("max wins without label", func(t *testing.T) {
		got := extractAmount("¥300\n¥1,200\n¥50")
		require.NotNil(t, got)
		assert.Equal(t, 1200.0, *got)
	})

	t.Run("full width total", func(t *testing.T) {
		got := extractAmount(normalizeWidth("合計　￥１，５００"))
		require.NotNil(t, got)
		assert.Equal(t, 1500.0, *got)
	})

	t.Run("out of range rejected", func(t *testing.T) {
		assert.Nil(t, extractAmount("20000000"))
		assert.Nil(t, extractAmount("合計 ¥0"))
	})

	t.Run("english total label", func(t *testing.T) {
		got := extractAmount("TOTAL ¥2,480\n¥9,999")
		require.NotNil(t, got)
		assert.Equal(t, 2480.0, *got)
	})
}

func TestExtractTaxAmounts(t *testing.T) {
	excluded, included := extractTaxAmounts("税抜 ¥1,364\n税込 ¥1,500")
	require.NotNil(t, excluded)
	require.NotNil(t, included)
	assert.Equal(t, 1364.0, *excluded)
	assert.Equal(t, 1500.0, *included)

	excluded, included = extractTaxAmounts("合計 ¥1,500")
	assert.Nil(t, excluded)
	assert.Nil(t, included)
}

func TestExtractStoreName(t *testing.T) {
	t.Run("first plausible line", func(t *testing.T) {
		text := "スーパーマーケット田中\n2023/05/15\n合計 ¥1,500"
		assert.Equal(t, "スーパーマーケット田中", extractStoreName(text))
	})

	t.Run("skips numeric heavy lines", func(t *testing.T) {
		text := "123-4567 890\nコンビニ山田\n合計 ¥800"
		assert.Equal(t, "コンビニ山田", extractStoreName(text))
	})

	t.Run("strips artifacts", func(t *testing.T) {
		assert.Equal(t, "ドラッグストア", extractStoreName("***ドラッグストア***\n2023/05/15"))
	})

	t.Run("length checked before cleaning", func(t *testing.T) {
		long := strings.Repeat("ア", 45) + strings.Repeat("*", 10)
		got := extractStoreName(long + "\n2023/05/15")
		assert.Equal(t, string([]rune(long)[:50]), got)
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Equal(t, "", extractStoreName("   \n\n"))
	})
}

func TestExtractItems(t *testing.T) {
	text := normalizeWidth("牛乳 ¥198\nパン 158円\n食パン ¥158\n999999999")
	items := extractItems(text)
	require.Len(t, items, 3)
	assert.Equal(t, "牛乳", items[0].Name)
	assert.Equal(t, 198.0, *items[0].Price)
	assert.Equal(t, "パン", items[1].Name)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestExtractItemsKeepsRepeatedLines(t *testing.T) {
	items := extractItems(normalizeWidth("牛乳 ¥198\n牛乳 ¥198"))
	require.Len(t, items, 2)
	assert.Equal(t, "牛乳", items[0].Name)
	assert.Equal(t, "牛乳", items[1].Name)
	assert.Equal(t, 198.0, *items[1].Price)
}

func TestExtractItemsRequiresCurrencyMarker(t *testing.T) {
	items := extractItems(normalizeWidth("ポイント残高 1200\n値引 300"))
	assert.Empty(t, items)
}

func TestExtract(t *testing.T) {
	e := newTestEngine(t)
	text := "スーパーマーケット田中\n2023年5月15日\n牛乳 ¥198\nパン ¥158\n合計 ¥1,500\n税込 ¥1,500"

	t.Run("full receipt", func(t *testing.T) {
		result, err := e.Extract(text)
		require.NoError(t, err)
		assert.Equal(t, "2023-05-15", result.Date)
		assert.Equal(t, "スーパーマーケット田中", result.StoreName)
		require.NotNil(t, result.TotalAmount)
		assert.Equal(t, 1500.0, *result.TotalAmount)
		require.NotNil(t, result.TaxIncludedAmount)
		assert.Equal(t, 1500.0, *result.TaxIncludedAmount)
		assert.Empty(t, result.MissingFields)
	})

	t.Run("deterministic", func(t *testing.T) {
		first, err := e.Extract(text)
		require.NoError(t, err)
		second, err := e.Extract(text)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("missing store name fails", func(t *testing.T) {
		_, err := e.Extract("1234567890\n9876543210")
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrExtractionIncomplete)
	})

	t.Run("empty text fails", func(t *testing.T) {
		_, err := e.Extract("   ")
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrExtractionIncomplete)
	})

	t.Run("missing fields reported", func(t *testing.T) {
		result, err := e.Extract("コンビニ山田")
		require.NoError(t, err)
		assert.Contains(t, result.MissingFields, "日付")
		assert.Contains(t, result.MissingFields, "合計金額")
	})
}

func TestScoreConfidence(t *testing.T) {
	amount := 1500.0

	t.Run("field weights", func(t *testing.T) {
		r := &Result{StoreName: "店", TotalAmount: &amount, Date: "2023-05-15"}
		assert.InDelta(t, 0.8, scoreConfidence("レシート", r), 0.001)
	})

	t.Run("medium text tier", func(t *testing.T) {
		r := &Result{StoreName: "店"}
		assert.InDelta(t, 0.5, scoreConfidence(strings.Repeat("あ", 150), r), 0.001)
	})

	t.Run("long text tier", func(t *testing.T) {
		r := &Result{StoreName: "店"}
		assert.InDelta(t, 0.6, scoreConfidence(strings.Repeat("あ", 350), r), 0.001)
	})

	t.Run("digit density bonus", func(t *testing.T) {
		r := &Result{StoreName: "店", TotalAmount: &amount, Date: "2023-05-15"}
		assert.InDelta(t, 0.9, scoreConfidence("合計 1500 店", r), 0.001)
	})

	t.Run("empty result", func(t *testing.T) {
		assert.InDelta(t, 0.0, scoreConfidence("あ", &Result{}), 0.001)
	})

	t.Run("capped at one", func(t *testing.T) {
		long := ""
		for i := 0; i < 40; i++ {
			long += "商品名 100円\n"
		}
		r := &Result{StoreName: "店", TotalAmount: &amount, Date: "2023-05-15"}
		assert.InDelta(t, 1.0, scoreConfidence(long, r), 0.001)
	})
}
