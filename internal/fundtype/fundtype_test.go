package fundtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name, fund, code string
		key              string
		confidence       float64
	}{
		{"keyword", "华宝中证医疗ETF联接A", "162412", "equity_medicine", 0.8},
		{"case insensitive", "某某smartbeta增强", "000001", "index_sector", 0.8},
		{"order matters", "科技创新纯债", "000002", "equity_tech", 0.8},
		{"code prefix", "某某稳健", "161119", "bond_rate", 0.6},
		{"default", "某某成长", "000003", "hybrid_flexible", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.fund, tt.code)
			assert.Equal(t, tt.key, got.Key)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, Name(tt.key), got.Name)
		})
	}
}

func TestCategoryAndQuantKey(t *testing.T) {
	assert.Equal(t, "money", Category("money_market"))
	assert.Equal(t, "bond", Category("bond_credit"))
	assert.Equal(t, "qdii", Category("commodity_gold"))
	assert.Equal(t, "equity", Category("reits"))

	assert.Equal(t, "bond", QuantKey("money_market"))
	assert.Equal(t, "qdii", QuantKey("qdii_us"))
	assert.Equal(t, "equity", QuantKey("index_broad"))
}

func TestIndexSecid(t *testing.T) {
	tests := []struct {
		name, fund, typeName, benchmark string
		want                            string
		ok                              bool
	}{
		{"hs300", "易方达沪深300ETF联接A", "指数型-股票", "", "1.000300", true},
		{"bond excluded", "某某沪深300债券", "", "", "", false},
		{"whitespace stripped", "中证 500增强", "", "", "1.000905", true},
		{"nasdaq", "广发纳斯达克100ETF联接人民币(QDII)A", "QDII", "", "100.NDX", true},
		{"hang seng tech before hang seng", "华夏恒生科技ETF联接", "", "", "100.HSTECH", true},
		{"generic index", "某某指数增强", "", "", "1.000300", true},
		{"none", "某某成长混合", "混合型-偏股", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IndexSecid(tt.fund, tt.typeName, tt.benchmark)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	got, ok := FallbackQDIIIndex("某某标普500", "QDII", "")
	assert.True(t, ok)
	assert.Equal(t, "100.SPX", got)
}
