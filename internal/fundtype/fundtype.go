// Package fundtype classifies funds by name and maps them to benchmark indices.
package fundtype

import (
	"strings"

	"FundSentinel/internal/model"
)

type definition struct {
	key      string
	name     string
	keywords []string
}

// Checked in order; the first keyword hit wins.
var definitions = []definition{
	{"commodity_gold", "商品型-黄金", []string{"黄金ETF", "贵金属", "上海金", "COMEX", "伦敦金"}},
	{"commodity_oil", "商品型-原油", []string{"原油", "石油", "OPEC", "WTI", "布伦特"}},
	{"equity_tech", "股票型-科技", []string{"科技", "半导体", "芯片", "AI", "人工智能", "TMT"}},
	{"equity_medicine", "股票型-医药", []string{"医药", "医疗", "创新药", "CXO", "医疗器械", "生物科技"}},
	{"equity_new_energy", "股票型-新能源", []string{"新能源", "光伏", "锂电", "储能", "电动车", "碳中和"}},
	{"equity_consumption", "股票型-消费", []string{"消费", "白酒", "食品饮料", "家电", "免税", "医美"}},
	{"equity_finance", "股票型-金融", []string{"银行", "券商", "保险", "金融", "地产"}},
	{"index_broad", "指数型-宽基", []string{"沪深300", "中证500", "中证1000", "上证50", "创业板指", "科创板"}},
	{"index_sector", "指数型-行业", []string{"行业ETF", "主题ETF", "SmartBeta"}},
	{"bond_rate", "债券型-利率债", []string{"国债", "政金债", "利率债", "纯债"}},
	{"bond_credit", "债券型-信用债", []string{"信用债", "企业债", "公司债", "城投债"}},
	{"bond_convertible", "债券型-可转债", []string{"可转债", "转债"}},
	{"hybrid_balanced", "混合型-平衡", []string{"平衡混合", "股债平衡"}},
	{"hybrid_flexible", "混合型-灵活配置", []string{"灵活配置", "偏股混合", "偏债混合"}},
	{"qdii_us", "QDII-美股", []string{"纳斯达克", "标普500", "美股", "道琼斯"}},
	{"qdii_hk", "QDII-港股", []string{"恒生科技", "恒生指数", "港股", "中概互联"}},
	{"qdii_emerging", "QDII-新兴市场", []string{"越南", "印度", "东南亚", "新兴市场"}},
	{"reits", "REITs", []string{"REITs", "基础设施", "产业园", "高速公路", "仓储物流"}},
	{"fof", "FOF", []string{"FOF", "基金中基金", "养老FOF"}},
	{"money_market", "货币型", []string{"货币基金", "余额宝", "现金管理"}},
}

var codePrefixes = map[string]string{
	"51": "commodity_gold",
	"16": "bond_rate",
	"15": "bond_credit",
}

const fallbackKey = "hybrid_flexible"

// Detect classifies a fund by keyword (confidence 0.8), then by code prefix
// (0.6), defaulting to flexible hybrid (0.5).
func Detect(name, code string) model.FundType {
	name = strings.TrimSpace(name)
	upper := strings.ToUpper(name)
	for _, d := range definitions {
		for _, kw := range d.keywords {
			if strings.Contains(upper, strings.ToUpper(kw)) {
				return model.FundType{Key: d.key, Name: d.name, Confidence: 0.8}
			}
		}
	}
	if len(code) >= 2 {
		if key, ok := codePrefixes[code[:2]]; ok {
			return model.FundType{Key: key, Name: Name(key), Confidence: 0.6}
		}
	}
	return model.FundType{Key: fallbackKey, Name: Name(fallbackKey), Confidence: 0.5}
}

// Name returns the display name of a type key.
func Name(key string) string {
	for _, d := range definitions {
		if d.key == key {
			return d.name
		}
	}
	return "混合型-灵活配置"
}

// Category maps a type key onto one of money, bond, qdii or equity.
// Commodity funds share the qdii profile.
func Category(key string) string {
	switch {
	case key == "money_market":
		return "money"
	case strings.HasPrefix(key, "bond_"):
		return "bond"
	case strings.HasPrefix(key, "qdii_"), strings.HasPrefix(key, "commodity_"):
		return "qdii"
	default:
		return "equity"
	}
}

// QuantKey selects the volatility target family: bond, qdii or equity.
func QuantKey(key string) string {
	switch Category(key) {
	case "money", "bond":
		return "bond"
	case "qdii":
		return "qdii"
	default:
		return "equity"
	}
}
